package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lingosub/internal/api"
	"lingosub/internal/daemonrun"
	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/queue"
	"lingosub/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var detach bool
	var logLevel string
	cmd := &cobra.Command{
		Use:   "run <project-id>",
		Short: "Run the subtitle pipeline for a project",
		Long: "Run the subtitle pipeline for a project in the foreground, resuming from the last\n" +
			"completed stage. With --detach the run is queued on the daemon instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			if detach {
				return ctx.withClient(func(client *api.Client) error {
					item, err := client.StartRun(cmd.Context(), projectID)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Queued run #%d for project %s\n", item.ID, projectID)
					return nil
				})
			}
			return runForeground(cmd, ctx, projectID, logLevel)
		},
	}
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Queue the run on the daemon and return immediately")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func runForeground(cmd *cobra.Command, ctx *commandContext, projectID, logLevel string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(logLevel) == "" {
		logLevel = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       logLevel,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	components, err := daemonrun.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	state, runErr := components.Runner.Run(runCtx, projectID)
	if runErr != nil && state.Stage == "" {
		return runErr
	}
	renderRunOutcome(cmd, projectID, state)
	if runErr != nil {
		if runCtx.Err() != nil {
			return context.Canceled
		}
		d := services.Describe(runErr)
		return fmt.Errorf("run failed during %s: %s", d.Stage, d.Message)
	}
	return nil
}

func renderRunOutcome(cmd *cobra.Command, projectID string, state pipeline.State) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)
	kind := statusOK
	message := "Complete"
	switch {
	case state.Status == pipeline.StatusFailed:
		kind, message = statusError, "Failed"
		if state.LastError != nil {
			message = fmt.Sprintf("Failed during %s: %s", state.LastError.Stage, state.LastError.Message)
		}
	case len(state.FailedLanguages) > 0:
		kind, message = statusWarn, "Complete with translation failures"
	}
	fmt.Fprintln(stdout, renderStatusLine(projectID, kind, message, colorize))
	if state.LastError != nil && state.LastError.Hint != "" {
		fmt.Fprintln(stdout, renderStatusLine("Hint", statusInfo, state.LastError.Hint, colorize))
	}
	if len(state.FailedLanguages) > 0 {
		fmt.Fprintln(stdout, renderStatusLine("Failed languages", statusWarn, strings.Join(state.FailedLanguages, ", "), colorize))
	}
	for _, warning := range state.Warnings {
		fmt.Fprintln(stdout, renderStatusLine("Warning", statusWarn, warning, colorize))
	}
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var projectID string
	var statuses []string
	var jsonOutput bool
	var clearFinished bool
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List queued and finished daemon runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, value := range statuses {
				if _, ok := queue.ParseStatus(value); !ok {
					return fmt.Errorf("unknown status %q", value)
				}
			}
			if clearFinished {
				return ctx.withClient(func(client *api.Client) error {
					removed, err := client.ClearRuns(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished run(s)\n", removed)
					return nil
				})
			}
			return ctx.withClient(func(client *api.Client) error {
				items, err := client.Runs(cmd.Context(), projectID, statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSONList(cmd, items)
				}
				stdout := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(stdout, "No runs")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						item.ProjectID,
						item.Status,
						item.Stage,
						formatSeconds(item.DurationSeconds),
						runNote(item),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Project", "Status", "Stage", "Duration", "Note"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					withFooter(countLabel(len(items), "run")),
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Only runs for this project")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (pending, running, completed, failed)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&clearFinished, "clear", false, "Remove completed and failed runs from the queue")
	return cmd
}

func runNote(item api.RunItem) string {
	if item.ErrorMessage != "" {
		return item.ErrorMessage
	}
	if len(item.FailedLanguages) > 0 {
		return "untranslated: " + strings.Join(item.FailedLanguages, ", ")
	}
	return ""
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1fs", seconds)
}
