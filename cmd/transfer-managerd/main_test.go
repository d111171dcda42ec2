package main

import (
	"testing"
)

func TestNewRootCmdStructure(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "transfer-managerd" {
		t.Errorf("Use = %q, want %q", cmd.Use, "transfer-managerd")
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag not registered")
	}
	if cmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("--verbose flag not registered")
	}

	found := false
	for _, c := range cmd.Commands() {
		if c.Use == "run" {
			found = true
			if c.RunE == nil {
				t.Error("run subcommand has nil RunE")
			}
		}
	}
	if !found {
		t.Error("run subcommand not registered")
	}
}

func TestDefaultLogFilePath(t *testing.T) {
	path, err := defaultLogFilePath()
	if err != nil {
		t.Fatalf("defaultLogFilePath() error: %v", err)
	}
	if path == "" {
		t.Error("expected non-empty log file path")
	}
}
