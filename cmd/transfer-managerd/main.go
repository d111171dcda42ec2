// Command transfer-managerd is the transfer manager daemon: a local,
// loopback-only HTTP control plane fronting the upload/download work-order
// engine (SPEC_FULL.md §4).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/octaspace/transfer-manager/internal/config"
	"github.com/octaspace/transfer-manager/internal/daemon"
	"github.com/octaspace/transfer-manager/internal/logging"
	"github.com/octaspace/transfer-manager/internal/version"
)

const shutdownGrace = 10 * time.Second

var (
	cfgFile string
	verbose bool

	logger     *logging.Logger
	rootCtx    context.Context
	cancelFunc context.CancelFunc
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "transfer-managerd",
		Short: "Local control-plane daemon for render-farm file transfers",
		Long: `transfer-managerd ` + version.Version + ` - Built: ` + version.BuildTime + `

Exposes a loopback HTTP control plane (SPEC_FULL.md §4.H) that the host
app's UI process drives upload and download transfers through.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(-1)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newRunCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDaemonConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if verbose {
				cfg.Logging.Verbose = true
			}

			logFile := cfg.Logging.LogFile
			if logFile == "" {
				var derr error
				logFile, derr = defaultLogFilePath()
				if derr != nil {
					logger.Warn().Err(derr).Msg("falling back to console-only logging")
				}
			}

			zlog, writer := daemon.CreateDaemonLogger(daemon.DaemonLogConfig{
				LogFile:    logFile,
				Console:    true,
				BufferSize: 5000,
			})
			d := daemon.New(cfg, logging.WrapZerolog(zlog, nil), writer)

			if err := d.Start(rootCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			<-rootCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return d.Stop(shutdownCtx)
		},
	}
}

func defaultLogFilePath() (string, error) {
	dir := os.TempDir()
	path := dir + string(os.PathSeparator) + "octaspace" + string(os.PathSeparator) + "transfer-manager.log"
	if err := os.MkdirAll(dir+string(os.PathSeparator)+"octaspace", 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func main() {
	rootCtx, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nreceived signal %v, shutting down...\n", sig)
				cancelFunc()
			}
		}
	}()

	err := newRootCmd().Execute()

	signal.Stop(sigChan)
	close(sigChan)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
