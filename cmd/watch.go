package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"buildtrace.dev/pkg/buildtrace/internal/domain"
	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

var watchJournalFlag string

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Report created and modified files live",
		Long: `Watch the target directory and print created and modified files as they
happen, until interrupted. Deletions are not reported, matching the
profile command's change classification.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := m.Path(".")
			if len(args) > 0 {
				root = m.Path(args[0])
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watcher.Watch(ctx, domain.WatchArgs{
				Root:    root,
				Exclude: viper.GetStringSlice(excludeConfigKey),
				Journal: m.Path(watchJournalFlag),
			})
		},
	}

	cmd.Flags().StringVar(&watchJournalFlag, "journal", "", "append observed changes to this journal file")

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
