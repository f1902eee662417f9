package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"buildtrace.dev/pkg/buildtrace/internal/domain"
)

var historyLimitFlag int

// historyCmd represents the history command.
var historyCmd = newHistoryCmd()

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past profiling runs",
		Long:  "List past profiling runs recorded in the history database, most recent first.",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			return workflow.History(context.Background(), domain.HistoryArgs{Limit: historyLimitFlag})
		},
	}

	cmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "maximum number of runs to list")

	return cmd
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
