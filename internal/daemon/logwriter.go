package daemon

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/octaspace/transfer-manager/internal/logging"
)

// DaemonLogWriter fans zerolog output out to the console, a rotating log
// file, and the in-memory LogBuffer backing GET /logs.
type DaemonLogWriter struct {
	mu          sync.RWMutex
	console     io.Writer
	file        *lumberjack.Logger
	buffer      *logging.LogBuffer
	fileEnabled bool
}

// DaemonLogConfig configures the daemon logger.
type DaemonLogConfig struct {
	// LogFile is the path to write rotating logs (empty = no file logging).
	LogFile string
	// Console enables console output.
	Console bool
	// BufferSize is the number of entries retained for GET /logs.
	BufferSize int
}

// NewDaemonLogWriter creates a new daemon log writer.
func NewDaemonLogWriter(cfg DaemonLogConfig) *DaemonLogWriter {
	w := &DaemonLogWriter{buffer: logging.NewLogBuffer(cfg.BufferSize)}

	if cfg.Console {
		w.console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	if cfg.LogFile != "" {
		w.file = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		w.fileEnabled = true
	}

	return w
}

// Write implements io.Writer for zerolog, fanning the JSON line out to the
// console, the rotating file, and the log buffer.
func (w *DaemonLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)

	var entry struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(p, &entry); err == nil {
		var fields map[string]interface{}
		_ = json.Unmarshal(p, &fields)
		delete(fields, "level")
		delete(fields, "time")
		delete(fields, "message")
		w.buffer.Add(entry.Level, entry.Message, fields)
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.console != nil {
		_, _ = w.console.Write(p)
	}
	if w.fileEnabled && w.file != nil {
		_, _ = w.file.Write(p)
	}

	return n, nil
}

// GetBuffer returns the log buffer backing GET /logs.
func (w *DaemonLogWriter) GetBuffer() *logging.LogBuffer {
	return w.buffer
}

// Close closes the rotating file logger, if any.
func (w *DaemonLogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// CreateDaemonLogger creates a zerolog logger configured for daemon use,
// returning it alongside the writer for log-buffer access. The returned
// zerolog.Logger writes raw JSON lines to writer, which does its own console
// formatting and file rotation; wrap it with logging.WrapZerolog to get a
// *logging.Logger with the usual event-bus mirroring.
func CreateDaemonLogger(cfg DaemonLogConfig) (zerolog.Logger, *DaemonLogWriter) {
	writer := NewDaemonLogWriter(cfg)
	logger := zerolog.New(writer).With().Timestamp().Logger()
	return logger, writer
}
