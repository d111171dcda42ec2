package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

var watchInterval time.Duration

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll GET /transfers on an interval, rendering live bars",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigChan
				cancel()
			}()

			return runWatch(ctx, newDaemonClient(host, port), watchInterval)
		},
	}
	cmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "Poll interval")
	return cmd
}

// watchUI manages one mpb bar per active transfer, grounded on the
// lineage's DownloadUI (one bar per in-flight file, non-TTY falls back to
// plain text).
type watchUI struct {
	progress   *mpb.Progress
	bars       sync.Map // transfer id -> *mpb.Bar
	isTerminal bool
}

func newWatchUI() *watchUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	var p *mpb.Progress
	if isTerminal {
		width := 100
		if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 20 {
			width = w
		}
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(width),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}
	return &watchUI{progress: p, isTerminal: isTerminal}
}

func (u *watchUI) sync(transfers []transferSummary) {
	seen := make(map[string]bool, len(transfers))
	for _, tr := range transfers {
		seen[tr.ID] = true
		if bar, ok := u.bars.Load(tr.ID); ok {
			b := bar.(*mpb.Bar)
			b.SetCurrent(tr.Done)
			continue
		}
		if !u.isTerminal {
			fmt.Printf("[%s] %s %s starting (%d total)\n", shortID(tr.ID), tr.Kind, tr.ID, tr.Total)
			u.bars.Store(tr.ID, (*mpb.Bar)(nil))
			continue
		}

		label := fmt.Sprintf("[%s] %s", shortID(tr.ID), tr.Kind)
		b := u.progress.New(tr.Total,
			mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding("-").Rbound("]"),
			mpb.PrependDecorators(decor.Name(label, decor.WCSyncSpace)),
			mpb.AppendDecorators(
				decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
		b.SetCurrent(tr.Done)
		u.bars.Store(tr.ID, b)
	}

	u.bars.Range(func(key, value interface{}) bool {
		id := key.(string)
		if seen[id] {
			return true
		}
		if bar, ok := value.(*mpb.Bar); ok && bar != nil {
			bar.Abort(true)
		}
		u.bars.Delete(id)
		return true
	})
}

func runWatch(ctx context.Context, client *daemonClient, interval time.Duration) error {
	ui := newWatchUI()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		transfers, err := client.transfers()
		if err != nil {
			fmt.Fprintf(os.Stderr, "poll error: %v\n", err)
		} else {
			ui.sync(transfers)
		}

		select {
		case <-ctx.Done():
			ui.progress.Wait()
			return nil
		case <-ticker.C:
		}
	}
}
