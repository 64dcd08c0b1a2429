package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loykin/fifoctl"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
	LogDir     string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	writeFlags := &WriteFlags{}
	readFlags := &ReadFlags{}
	cleanupFlags := &CleanupFlags{}
	historyFlags := &HistoryFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createSetupCommand(globalFlags),
		createStartCommand(globalFlags),
		createWriteCommand(globalFlags, writeFlags),
		createReadCommand(globalFlags, readFlags),
		createHealthCommand(globalFlags),
		createCleanupCommand(globalFlags, cleanupFlags),
		createHistoryCommand(globalFlags, historyFlags),
		createVersionCommand(),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "fifoctl",
		Short:         "Manage bidirectional communication with a command through named pipes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file")
	root.PersistentFlags().StringVar(&flags.LogDir, "log-dir", "", "directory for operation log and child stderr capture")
	return root
}

// Exit codes are stable per error kind so scripts can branch on outcome.
func exitCode(err error) int {
	switch {
	case errors.Is(err, fifoctl.ErrPathConflict):
		return 2
	case errors.Is(err, fifoctl.ErrPipesNotReady):
		return 3
	case errors.Is(err, fifoctl.ErrLaunchFailed):
		return 4
	case errors.Is(err, fifoctl.ErrNoReader):
		return 5
	case errors.Is(err, fifoctl.ErrNoData):
		return 6
	case errors.Is(err, fifoctl.ErrNoRegisteredProcess):
		return 7
	case errors.Is(err, fifoctl.ErrTerminationFailed):
		return 8
	case errors.Is(err, fifoctl.ErrAlreadyManaged):
		return 9
	default:
		return 1
	}
}
