package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"buildtrace.dev/pkg/buildtrace/internal/domain"
	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Snapshot a directory and list its files",
		Long:  "Take a single snapshot of the target directory and list every regular file with its modification time.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := m.Path(".")
			if len(args) > 0 {
				root = m.Path(args[0])
			}

			return workflow.List(context.Background(), domain.ListArgs{
				Root:     root,
				Exclude:  viper.GetStringSlice(excludeConfigKey),
				Parallel: viper.GetInt(parallelConfigKey),
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
