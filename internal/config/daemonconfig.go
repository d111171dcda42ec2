// Package config provides configuration loading for the transfer manager daemon.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/octaspace/transfer-manager/internal/constants"
)

// DaemonConfig is the daemon's on-disk configuration.
//
// Config file location: see DefaultConfigPath.
//
// INI format:
//
//	[server]
//	listen_port = 7780
//	default_farm_host = https://farm.octaspace.io
//
//	[logging]
//	log_file =
//	verbose = false
//
//	[queues]
//	max_upload_workers = 6
//	download_workers = 4
type DaemonConfig struct {
	Server  ServerConfig
	Logging LoggingConfig
	Queues  QueuesConfig
}

// ServerConfig holds the local control-plane listen settings.
type ServerConfig struct {
	// ListenPort is the loopback-only port the control plane binds to.
	ListenPort int `ini:"listen_port"`

	// DefaultFarmHost is used when a request omits (or sends null for)
	// the farm_host header, per SPEC_FULL.md §4.H.
	DefaultFarmHost string `ini:"default_farm_host"`
}

// LoggingConfig holds daemon logging settings.
type LoggingConfig struct {
	// LogFile is the rotating log file path. Empty uses the OS temp dir
	// default (see defaultLogFilePath in cmd/transfer-managerd).
	LogFile string `ini:"log_file"`

	// Verbose enables debug-level logging.
	Verbose bool `ini:"verbose"`
}

// QueuesConfig holds worker-pool counts read from and written to the
// config file. The daemon does not apply them: the queues always run with
// constants.MaxUploadWorkers and constants.DownloadWorkers
// (SPEC_FULL.md §4.D calls them design constants, not configurables).
type QueuesConfig struct {
	MaxUploadWorkers int `ini:"max_upload_workers"`
	DownloadWorkers  int `ini:"download_workers"`
}

var ErrInvalidListenPort = errors.New("listen_port must be between 1 and 65535")

// DefaultConfigPath returns the default location for transfer-manager.conf.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine config dir: %w", err)
	}
	return filepath.Join(configDir, "octaspace", "transfer-manager.conf"), nil
}

// NewDaemonConfig returns a DaemonConfig with defaults matching SPEC_FULL.md.
func NewDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Server: ServerConfig{
			ListenPort:      constants.DefaultListenPort,
			DefaultFarmHost: "https://farm.octaspace.io",
		},
		Logging: LoggingConfig{},
		Queues: QueuesConfig{
			MaxUploadWorkers: constants.MaxUploadWorkers,
			DownloadWorkers:  constants.DownloadWorkers,
		},
	}
}

// LoadDaemonConfig loads configuration from path. If path is empty, the
// default path is used. A missing file yields defaults, not an error.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	cfg := NewDaemonConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load transfer-manager.conf: %w", err)
	}

	server := iniFile.Section("server")
	cfg.Server.ListenPort = server.Key("listen_port").MustInt(constants.DefaultListenPort)
	cfg.Server.DefaultFarmHost = server.Key("default_farm_host").MustString(cfg.Server.DefaultFarmHost)

	logging := iniFile.Section("logging")
	cfg.Logging.LogFile = logging.Key("log_file").String()
	cfg.Logging.Verbose = logging.Key("verbose").MustBool(false)

	queues := iniFile.Section("queues")
	cfg.Queues.MaxUploadWorkers = queues.Key("max_upload_workers").MustInt(constants.MaxUploadWorkers)
	cfg.Queues.DownloadWorkers = queues.Key("download_workers").MustInt(constants.DownloadWorkers)

	if cfg.Server.ListenPort < 1 || cfg.Server.ListenPort > 65535 {
		return nil, ErrInvalidListenPort
	}

	return cfg, nil
}

// SaveDaemonConfig writes cfg to path (default path if empty), creating
// parent directories as needed.
func SaveDaemonConfig(cfg *DaemonConfig, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	iniFile := ini.Empty()

	server, err := iniFile.NewSection("server")
	if err != nil {
		return err
	}
	_, _ = server.NewKey("listen_port", fmt.Sprintf("%d", cfg.Server.ListenPort))
	_, _ = server.NewKey("default_farm_host", cfg.Server.DefaultFarmHost)

	logging, err := iniFile.NewSection("logging")
	if err != nil {
		return err
	}
	_, _ = logging.NewKey("log_file", cfg.Logging.LogFile)
	_, _ = logging.NewKey("verbose", fmt.Sprintf("%t", cfg.Logging.Verbose))

	queues, err := iniFile.NewSection("queues")
	if err != nil {
		return err
	}
	_, _ = queues.NewKey("max_upload_workers", fmt.Sprintf("%d", cfg.Queues.MaxUploadWorkers))
	_, _ = queues.NewKey("download_workers", fmt.Sprintf("%d", cfg.Queues.DownloadWorkers))

	return iniFile.SaveTo(path)
}
