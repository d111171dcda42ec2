package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestShortID(t *testing.T) {
	if got := shortID("abcdefghijklmnop"); got != "abcdefgh" {
		t.Errorf("shortID() = %q, want %q", got, "abcdefgh")
	}
	if got := shortID("short"); got != "short" {
		t.Errorf("shortID() on already-short id = %q, want %q", got, "short")
	}
}

func TestPrintTransferTable(t *testing.T) {
	transfers := []transferSummary{
		{
			ID:        "0123456789abcdef",
			Kind:      "upload",
			Status:    "running",
			Done:      50,
			Total:     100,
			Value:     0.5,
			SpeedBps:  2 * 1024 * 1024,
			CreatedAt: time.Now(),
		},
	}

	var buf bytes.Buffer
	printTransferTable(&buf, transfers)

	out := buf.String()
	header := strings.Join(strings.Fields(strings.SplitN(out, "\n", 2)[0]), " ")
	if !strings.HasPrefix(header, "ID KIND STATUS") {
		t.Errorf("table missing header: %q", out)
	}
	if !strings.Contains(out, "01234567") {
		t.Errorf("table missing shortened id: %q", out)
	}
	if !strings.Contains(out, "upload") || !strings.Contains(out, "running") {
		t.Errorf("table missing kind/status: %q", out)
	}
}

func TestPrintTransferTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	printTransferTable(&buf, nil)
	header := strings.Join(strings.Fields(strings.SplitN(buf.String(), "\n", 2)[0]), " ")
	if !strings.HasPrefix(header, "ID KIND STATUS") {
		t.Error("header should still print with no rows")
	}
}

func TestNewRootCmdStructure(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "transfer-managerctl" {
		t.Errorf("Use = %q, want %q", cmd.Use, "transfer-managerctl")
	}

	if cmd.PersistentFlags().Lookup("host") == nil {
		t.Error("--host flag not registered")
	}
	if cmd.PersistentFlags().Lookup("port") == nil {
		t.Error("--port flag not registered")
	}

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Use] = true
	}
	if !names["status"] {
		t.Error("status subcommand not registered")
	}
	if !names["watch"] {
		t.Error("watch subcommand not registered")
	}
}
