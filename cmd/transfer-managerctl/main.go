// Command transfer-managerctl is a terminal dashboard polling
// transfer-managerd's control plane (SPEC_FULL.md §4.J).
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/octaspace/transfer-manager/internal/constants"
)

var (
	host string
	port int
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "transfer-managerctl",
		Short: "Terminal dashboard for the transfer manager daemon",
	}
	rootCmd.PersistentFlags().StringVar(&host, "host", "127.0.0.1", "Daemon control-plane host")
	rootCmd.PersistentFlags().IntVar(&port, "port", constants.DefaultListenPort, "Daemon control-plane port")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newWatchCmd())
	return rootCmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Poll GET /transfers once and print a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newDaemonClient(host, port)
			transfers, err := client.transfers()
			if err != nil {
				return err
			}
			printTransferTable(os.Stdout, transfers)
			return nil
		},
	}
}

func printTransferTable(w io.Writer, transfers []transferSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tPROGRESS\tSPEED\tCREATED")
	for _, tr := range transfers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d (%.1f%%)\t%.1f MiB/s\t%s\n",
			shortID(tr.ID), tr.Kind, tr.Status,
			tr.Done, tr.Total, tr.Value*100,
			tr.SpeedBps/(1024*1024),
			tr.CreatedAt.Format(time.Kitchen))
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
