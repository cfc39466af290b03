package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// APIFlags holds daemon connection flags shared by client commands.
type APIFlags struct {
	URL     string
	Timeout time.Duration
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Daemonize  bool
	PidFile    string
	LogFile    string
}

func buildRoot() *cobra.Command {
	api := &APIFlags{}
	serveFlags := &ServeFlags{}

	root := &cobra.Command{
		Use:   "svcdeck",
		Short: "Local dev service orchestration and supervision tool",
		Long: `Svcdeck starts, stops, and monitors a fixed deck of local development
services with dependency-aware startup, port-based shutdown, health checks,
and optional auto-restart.

Examples:
  svcdeck serve --config=svcdeck.toml   # Start daemon
  svcdeck status                        # Status of every service
  svcdeck start api                     # Start api and its dependencies
  svcdeck logs api --lines=50           # Tail the api log`,
	}
	root.PersistentFlags().StringVar(&api.URL, "api-url", "", "daemon URL (default http://127.0.0.1:8099/api)")
	root.PersistentFlags().DurationVar(&api.Timeout, "api-timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		createStatusCommand(api),
		createHealthCommand(api),
		createStartCommand(api),
		createStopCommand(api),
		createRestartCommand(api),
		createStartAllCommand(api),
		createStopAllCommand(api),
		createAutoRestartCommand(api),
		createLogsCommand(api),
		createServeCommand(serveFlags),
	)
	return root
}

func createStatusCommand(api *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show service status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runStatus(api, name)
		},
	}
}

func createHealthCommand(api *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health <name>",
		Short: "Run a health check for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(api, args[0])
		},
	}
}

func createStartCommand(api *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start <name>",
		Short: "Start a service and its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(api, args[0])
		},
	}
}

func createStopCommand(api *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a service by killing its port listener",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(api, args[0])
		},
	}
}

func createRestartCommand(api *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restart <name>",
		Short: "Restart a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart(api, args[0])
		},
	}
}

func createStartAllCommand(api *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start-all",
		Short: "Start every registered service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStartAll(api)
		},
	}
}

func createStopAllCommand(api *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all",
		Short: "Stop every registered service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStopAll(api)
		},
	}
}

func createAutoRestartCommand(api *APIFlags) *cobra.Command {
	var enabled bool
	cmd := &cobra.Command{
		Use:   "autorestart <name>",
		Short: "Toggle auto-restart for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutoRestart(api, args[0], enabled)
		},
	}
	cmd.Flags().BoolVar(&enabled, "enabled", true, "enable or disable auto-restart")
	return cmd
}

func createLogsCommand(api *APIFlags) *cobra.Command {
	var lines int
	var clear bool
	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Tail or clear a service's log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				return runClearLogs(api, args[0])
			}
			return runTailLogs(api, args[0], lines)
		},
	}
	cmd.Flags().IntVar(&lines, "lines", 100, "number of lines to tail")
	cmd.Flags().BoolVar(&clear, "clear", false, "truncate the log instead of tailing")
	return cmd
}

func createServeCommand(flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the svcdeck daemon",
		Long: `Start the svcdeck daemon: HTTP API, auto-restart monitor, and
lifecycle history export, all configured from a TOML file.

Examples:
  svcdeck serve --config=svcdeck.toml
  svcdeck serve --config=svcdeck.toml --daemonize --pidfile=/tmp/svcdeck.pid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}
	cmd.Flags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (required)")
	cmd.Flags().BoolVar(&flags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&flags.PidFile, "pidfile", "", "write daemon pid to this file")
	cmd.Flags().StringVar(&flags.LogFile, "logfile", "", "redirect daemon logs to file")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}
