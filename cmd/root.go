// Package cmd provides the root command and CLI setup for buildtrace.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"buildtrace.dev/pkg/buildtrace/internal/adapter"
	"buildtrace.dev/pkg/buildtrace/internal/controller"
	"buildtrace.dev/pkg/buildtrace/internal/domain"
)

var fsAdapter adapter.ScanFS
var buildRunner adapter.BuildRunner
var reportStore adapter.ReportStore
var historyStore adapter.HistoryStore
var workflow domain.Workflow
var watcher domain.Watcher
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read and
// write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files out of scans.
var excludePatterns []string

// verboseFlag raises the log level to debug.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalScanFS()
	buildRunner = adapter.NewLocalBuildRunner()
	reportStore = adapter.NewReportStore()
	historyStore = adapter.NewHistoryStore(historyDatabasePath())
	workflow = domain.NewWorkflow(fsAdapter, buildRunner, reportStore, historyStore, ui)
	watcher = domain.NewWatcher(fsAdapter, ui)
}

const rootLongDescription = `Buildtrace profiles a build by snapshotting a directory tree before and
after the build command runs, and reporting every file the build created
or modified, with timestamps.

The target directory defaults to the current working directory.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buildtrace",
		Short: "Build output profiler",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for run reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching gitignore-style pattern (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "enable debug logging")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values
// feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	_ = historyStore.Close()

	if err != nil {
		os.Exit(1)
	}
}
