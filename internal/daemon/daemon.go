// Package daemon wires the control plane, the two transfer queues, and the
// transfer manager into a single long-running process (SPEC_FULL.md §4.G,
// §4.H).
package daemon

import (
	"context"
	"fmt"
	"sync"

	"github.com/octaspace/transfer-manager/internal/config"
	"github.com/octaspace/transfer-manager/internal/constants"
	"github.com/octaspace/transfer-manager/internal/controlplane"
	"github.com/octaspace/transfer-manager/internal/logging"
	"github.com/octaspace/transfer-manager/internal/remote"
	"github.com/octaspace/transfer-manager/internal/transfer"
)

// Daemon owns the transfer manager (registry plus the upload/download
// worker queues) and the loopback control-plane server fronting it. It
// replaces the lineage's poll-and-download service loop: this daemon is
// driven by the control plane's REST requests, not a timer.
type Daemon struct {
	manager *transfer.Manager
	server  *controlplane.Server
	logger  *logging.Logger
	writer  *DaemonLogWriter

	mu      sync.RWMutex
	running bool
}

// New builds a Daemon from daemon configuration. logWriter, if non-nil,
// backs GET /logs and is closed on Stop; pass nil in tests that don't care
// about the rolling log buffer.
func New(cfg *config.DaemonConfig, logger *logging.Logger, logWriter *DaemonLogWriter) *Daemon {
	clients := remote.NewClients(logger)
	manager := transfer.NewManager(clients, logger)

	var buf *logging.LogBuffer
	if logWriter != nil {
		buf = logWriter.GetBuffer()
	} else {
		buf = logging.NewLogBuffer(constants.LogBufferMaxLines)
	}

	server := controlplane.NewServer(controlplane.Config{
		ListenPort:      cfg.Server.ListenPort,
		DefaultFarmHost: cfg.Server.DefaultFarmHost,
		LogTailLines:    constants.LogBufferMaxLines,
	}, manager, logger, buf)

	return &Daemon{
		manager: manager,
		server:  server,
		logger:  logger,
		writer:  logWriter,
	}
}

// Manager returns the daemon's transfer manager, for in-process callers
// that need direct access. The CLI dashboard talks to the daemon over HTTP
// only and does not use it.
func (d *Daemon) Manager() *transfer.Manager {
	return d.manager
}

// Start spawns the queue workers and begins serving the control plane.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.mu.Unlock()

	d.manager.Start()
	if err := d.server.Start(); err != nil {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		return err
	}

	d.logger.Info().Msg("daemon started")
	return nil
}

// Stop gracefully shuts the control plane down and closes the rotating log
// file, if any. Queue workers are daemon-process-lifetime goroutines with
// no individual shutdown signal (SPEC_FULL.md §5): they exit when the
// process does.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	err := d.server.Shutdown(ctx)
	if d.writer != nil {
		if closeErr := d.writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	d.logger.Info().Msg("daemon stopped")
	return err
}

// IsRunning reports whether Start has been called without a matching Stop.
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}
