package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lingosub/internal/api"
	"lingosub/internal/daemonctl"
	"lingosub/internal/daemonrun"
	"lingosub/internal/preflight"
	"lingosub/internal/queue"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the lingosub daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath(),
				LogLevel:   startLogLevel,
			}, 15*time.Second)
			if err != nil {
				return err
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d) at %s\n", result.PID, client.BaseURL())
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override the configured log level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the lingosub daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.Stop(cmd.Context(), client, ctx.configValue().DaemonPIDPath(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var withChecks bool
	var jsonOutput bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context(), withChecks)
			if err != nil && !errors.Is(err, api.ErrDaemonUnavailable) {
				return err
			}
			running := err == nil && status.Running
			if !running {
				// Offline view: what a daemon started now would see.
				status = api.DaemonStatus{
					QueueDBPath:  cfg.QueueDBPath(),
					LockFilePath: cfg.DaemonLockPath(),
					ProjectsDir:  cfg.Paths.ProjectsDir,
					Dependencies: api.FromDependencies(preflight.CheckSystemDeps(cfg)),
				}
				if withChecks {
					status.Checks = api.FromChecks(preflight.RunAll(cmd.Context(), cfg))
				}
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			printLines(stdout, renderSectionHeader("System Status", colorize))
			if running {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("API", statusInfo, client.BaseURL(), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, "Not running", colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Projects", statusInfo, status.ProjectsDir, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Queue database", statusInfo, status.QueueDBPath, colorize))
			if running && status.Workflow.LastError != "" {
				fmt.Fprintln(stdout, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
			}
			fmt.Fprintln(stdout)

			printLines(stdout, renderSectionHeader("Dependencies", colorize))
			printLines(stdout, dependencyLines(status.Dependencies, colorize))

			if len(status.Checks) > 0 {
				fmt.Fprintln(stdout)
				printLines(stdout, renderSectionHeader("Checks", colorize))
				printLines(stdout, checkLines(status.Checks, colorize))
			}

			if !running {
				return nil
			}
			fmt.Fprintln(stdout)
			printLines(stdout, renderSectionHeader("Queue Status", colorize))
			rows := queueStatsRows(status.Workflow.QueueStats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&withChecks, "checks", false, "Also run the preflight checks (contacts the translation engine)")
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Run the lingosub daemon in the foreground",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr := ctx.apiAddress(); addr != "" {
				cfg.API.Bind = addr
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    strings.TrimSpace(logLevel),
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&development, "development", false, "Use development logging (source locations, text output)")
	return cmd
}

func queueStatsRows(stats map[string]int) [][]string {
	var rows [][]string
	for _, status := range queue.AllStatuses() {
		count := stats[string(status)]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{titleCase(string(status)), strconv.Itoa(count)})
	}
	return rows
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}
