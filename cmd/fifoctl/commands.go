package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loykin/fifoctl"
	"github.com/loykin/fifoctl/internal/logger"
)

// newHandler loads config, applies flag overrides, installs logging, and
// builds the operation handler. Every subcommand goes through here so an
// invocation always sees the same resolved state.
func newHandler(flags *GlobalFlags, overrides ...func(*fifoctl.Config)) (*fifoctl.Handler, error) {
	cfg, err := fifoctl.LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.LogDir != "" {
		cfg.Log.Dir = flags.LogDir
	}
	for _, o := range overrides {
		o(&cfg)
	}
	logger.Setup(logger.Options{
		Dir:        cfg.Log.Dir,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	return fifoctl.New(cfg), nil
}

func createSetupCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Provision the input and output named pipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newHandler(flags)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			if err := h.Setup(); err != nil {
				return err
			}
			cmd.Println("Pipes created successfully.")
			return nil
		},
	}
}

func createStartCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start [command]",
		Short: "Start a command in the background with its stdin/stdout bound to the pipes",
		Long: "Start launches the command detached from this invocation; the default\n" +
			"command from the config file is used when none is given. While a managed\n" +
			"process is still alive a second start is rejected; run cleanup first.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler(flags)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			rec, err := h.Start(strings.Join(args, " "))
			if err != nil {
				return err
			}
			cmd.Printf("Started command (PID: %d): %s\n", rec.PID, rec.Command)
			return nil
		},
	}
}

func createWriteCommand(flags *GlobalFlags, wf *WriteFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <message>",
		Short: "Write one message to the input pipe (bounded wait for a reader)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler(flags, func(cfg *fifoctl.Config) {
				if wf.Timeout > 0 {
					cfg.WriteTimeout = wf.Timeout
				}
			})
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			if err := h.Write(args[0]); err != nil {
				return err
			}
			cmd.Printf("Wrote to input pipe: %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().DurationVar(&wf.Timeout, "timeout", 0, "max wait for a pipe reader (default from config)")
	return cmd
}

func createReadCommand(flags *GlobalFlags, rf *ReadFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read available output-pipe bytes within the deadline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newHandler(flags)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			out, err := h.Read(rf.Timeout)
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}
	cmd.Flags().DurationVar(&rf.Timeout, "timeout", 0, "hard read deadline (default from config)")
	return cmd
}

func createHealthCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health [pid]",
		Short: "Print a structured health verdict for pipes and process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler(flags)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			pid, err := optionalPID(args)
			if err != nil {
				return err
			}
			verdict, err := h.Health(pid)
			if err != nil {
				return err
			}
			printJSON(cmd, verdict)
			return nil
		},
	}
}

func createCleanupCommand(flags *GlobalFlags, cf *CleanupFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup [pid]",
		Short: "Terminate the managed process and remove pipes and record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandler(flags, func(cfg *fifoctl.Config) {
				if cf.Grace > 0 {
					cfg.GracePeriod = cf.Grace
				}
			})
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			pid, err := optionalPID(args)
			if err != nil {
				return err
			}
			rep, cleanupErr := h.Cleanup(pid)
			printJSON(cmd, rep)
			return cleanupErr
		},
	}
	cmd.Flags().DurationVar(&cf.Grace, "grace", 0, "grace period before forced termination (default from config)")
	return cmd
}

func createHistoryCommand(flags *GlobalFlags, hf *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent operation outcomes from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newHandler(flags)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			entries, err := h.History(cmd.Context(), hf.Limit)
			if err != nil {
				return err
			}
			if entries == nil {
				cmd.Println("history is disabled; set history.path in the config file")
				return nil
			}
			printJSON(cmd, entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&hf.Limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fifoctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("fifoctl", version)
		},
	}
}

func optionalPID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID %q", args[0])
	}
	return pid, nil
}
