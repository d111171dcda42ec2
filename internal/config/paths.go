// Package config provides configuration management for the transfer manager daemon.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// LogDirectory returns the log directory for the daemon.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\octaspace\transfer-manager\logs
//   - Unix: ~/.config/octaspace/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "transfer-manager-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "octaspace", "transfer-manager", "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "transfer-manager-logs")
		}
		return filepath.Join(homeDir, ".config", "octaspace", "logs")
	}
	return filepath.Join(configDir, "octaspace", "logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// LogDirectoryForUser returns the log directory for a specific user profile,
// used when the daemon runs under a service account on behalf of another user.
func LogDirectoryForUser(profilePath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(profilePath, "AppData", "Local", "octaspace", "transfer-manager", "logs")
	}
	return filepath.Join(profilePath, ".config", "octaspace", "logs")
}
