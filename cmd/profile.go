package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"buildtrace.dev/pkg/buildtrace/internal/domain"
	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

var profileParallelFlag int
var profileCSVFlag bool
var profileTimeoutFlag time.Duration
var profileNoHistoryFlag bool

const profileLongDescription = `Profile a build: snapshot the target directory, run the build command,
snapshot again, and report every file the build created or modified.

The build command follows a double dash:

  buildtrace profile ./project -- make -j8

Without a command, the configured default build command is used
(build.command, "make" by default). A failing build is reported as a
warning; the final scan still runs so partial build output is visible.`

// profileCmd represents the profile command.
var profileCmd = newProfileCmd()

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [dir] [-- command...]",
		Short: "Profile which files a build creates or modifies",
		Long:  profileLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, command := splitProfileArgs(cmd, args)

			return workflow.Profile(context.Background(), domain.ProfileArgs{
				Root:     root,
				Command:  command,
				Exclude:  viper.GetStringSlice(excludeConfigKey),
				Parallel: viper.GetInt(parallelConfigKey),
				Reports:  m.Path(viper.GetString(outputFlagName)),
				Timeout:  buildTimeout(),
				CSV:      profileCSVFlag,
				History:  viper.GetBool(historyEnabledKey) && !profileNoHistoryFlag,
			})
		},
	}

	configureProfileFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func configureProfileFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&profileParallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of parallel stat workers for scanning")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)

	cmd.Flags().BoolVar(&profileCSVFlag, csvFlagName, false, "also export the change set as CSV")
	cmd.Flags().DurationVar(&profileTimeoutFlag, timeoutFlagName, 0, "kill the build command after this duration (0 = no limit)")
	cmd.Flags().BoolVar(&profileNoHistoryFlag, noHistoryFlagName, false, "do not record this run in the history database")
}

// splitProfileArgs separates the optional target directory from the build
// command after the double dash. Without a dashed command the configured
// default applies.
func splitProfileArgs(cmd *cobra.Command, args []string) (m.Path, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		dash = len(args)
	}

	root := m.Path(".")
	if dash > 0 {
		root = m.Path(args[0])
	}

	command := args[dash:]
	if len(command) == 0 {
		command = strings.Fields(viper.GetString(buildCommandKey))
	}

	return root, command
}

func buildTimeout() time.Duration {
	if profileTimeoutFlag > 0 {
		return profileTimeoutFlag
	}

	return time.Duration(viper.GetInt64(buildTimeoutKey)) * time.Second
}
