package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lingosub/internal/api"
	"lingosub/internal/daemonrun"
	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/project"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Create and inspect projects",
	}
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))
	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var name string
	var start bool
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "create <media-file>",
		Short: "Copy a media file into a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := daemonrun.NewProjectStore(cfg, logging.NewNop())
			p, err := store.Create(cmd.Context(), project.CreateRequest{Name: name, SourcePath: args[0]})
			if err != nil {
				return err
			}

			var run *api.RunItem
			if start {
				err := ctx.withClient(func(client *api.Client) error {
					item, err := client.StartRun(cmd.Context(), p.ID)
					if err != nil {
						return err
					}
					run = &item
					return nil
				})
				if err != nil {
					return fmt.Errorf("project %s created but run not queued: %w", p.ID, err)
				}
			}

			if jsonOutput {
				out := struct {
					Project api.ProjectSummary `json:"project"`
					Run     *api.RunItem       `json:"run,omitempty"`
				}{Project: api.FromProject(p, pipeline.NewState(), false, nil), Run: run}
				return writeJSON(cmd, out)
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Created project %s (%s.%s)\n", p.ID, p.Name, p.FileEnding)
			if run != nil {
				fmt.Fprintf(stdout, "Queued run #%d\n", run.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name (defaults to the file name)")
	cmd.Flags().BoolVar(&start, "run", false, "Queue a run on the daemon after creating the project")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := ctx.projectSource(cmd.Context())
			if err != nil {
				return err
			}
			projects, err := source.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSONList(cmd, projects)
			}
			stdout := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(stdout, "No projects")
				return nil
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{
					p.ID,
					p.Name,
					p.Stage,
					p.Status,
					yesNo(p.Active),
					strings.Join(p.Languages, ","),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"ID", "Name", "Stage", "Status", "Active", "Subtitles"},
				rows,
				nil,
				withFooter(countLabel(len(projects), "project")),
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project's run state and artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := ctx.projectSource(cmd.Context())
			if err != nil {
				return err
			}
			detail, err := source.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, detail)
			}
			renderProjectDetail(cmd, detail)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project and all of its artifacts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := ctx.projectSource(cmd.Context())
			if err != nil {
				return err
			}
			if err := source.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
}

func renderProjectDetail(cmd *cobra.Command, detail api.ProjectDetail) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "Project:  %s\n", detail.ID)
	fmt.Fprintf(stdout, "Name:     %s.%s\n", detail.Name, detail.FileEnding)
	if detail.CreatedAt != "" {
		fmt.Fprintf(stdout, "Created:  %s\n", detail.CreatedAt)
	}
	if detail.DurationSeconds > 0 {
		fmt.Fprintf(stdout, "Duration: %.1fs\n", detail.DurationSeconds)
	}
	if detail.Width > 0 && detail.Height > 0 {
		fmt.Fprintf(stdout, "Video:    %dx%d\n", detail.Width, detail.Height)
	}
	fmt.Fprintf(stdout, "Stage:    %s (%s)\n", detail.State.Stage, detail.State.Status)
	if detail.Active {
		fmt.Fprintln(stdout, "Active:   yes")
	}
	if e := detail.State.LastError; e != nil {
		fmt.Fprintf(stdout, "Error:    %s during %s: %s\n", e.Kind, e.Stage, e.Message)
		if e.Hint != "" {
			fmt.Fprintf(stdout, "Hint:     %s\n", e.Hint)
		}
	}
	if len(detail.State.FailedLanguages) > 0 {
		fmt.Fprintf(stdout, "Failed:   %s\n", strings.Join(detail.State.FailedLanguages, ", "))
	}
	for _, warning := range detail.State.Warnings {
		fmt.Fprintf(stdout, "Warning:  %s\n", warning)
	}

	if len(detail.Artifacts) == 0 {
		return
	}
	artifacts := append([]api.Artifact(nil), detail.Artifacts...)
	sort.SliceStable(artifacts, func(i, j int) bool { return artifacts[i].Name < artifacts[j].Name })
	rows := make([][]string, 0, len(artifacts))
	for _, a := range artifacts {
		rows = append(rows, []string{a.Name, a.Kind, a.Language, formatSize(a.SizeBytes)})
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, renderTable(
		[]string{"File", "Kind", "Language", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
