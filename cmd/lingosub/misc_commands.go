package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lingosub/internal/api"
	"lingosub/internal/daemonrun"
	"lingosub/internal/fileutil"
	"lingosub/internal/language"
	"lingosub/internal/logging"
	"lingosub/internal/notifications"
	"lingosub/internal/preflight"
	"lingosub/internal/project"
	"lingosub/internal/services"
	"lingosub/internal/subtitles"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the configured subtitle languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resp := api.FromLanguages(cfg.Languages.Source, cfg.Languages.Supported)
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			rows := make([][]string, 0, len(resp.Languages))
			for _, lang := range resp.Languages {
				role := "target"
				if lang.Source {
					role = "source"
				}
				rows = append(rows, []string{lang.Code, lang.Name, role})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Code", "Language", "Role"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var archive bool
	var output string
	cmd := &cobra.Command{
		Use:   "download <project-id> [language]",
		Short: "Copy a subtitle file or the subtitle archive out of a project",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			var lang string
			switch {
			case archive && len(args) == 2:
				return fmt.Errorf("--archive does not take a language")
			case !archive && len(args) == 1:
				return fmt.Errorf("a language is required unless --archive is set")
			case !archive:
				lang = language.Normalize(args[1])
				if lang == "" {
					return fmt.Errorf("unknown language %q", args[1])
				}
			}

			name := project.ArchiveFile
			if !archive {
				name = subtitles.FileName(lang)
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = name
			}

			var dst io.Writer
			var file *os.File
			if target == "-" {
				dst = cmd.OutOrStdout()
			} else {
				f, err := os.Create(target)
				if err != nil {
					return fmt.Errorf("create %s: %w", target, err)
				}
				file, dst = f, f
			}

			n, err := copyArtifact(cmd, ctx, projectID, lang, archive, dst)
			if file != nil {
				if closeErr := file.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					_ = os.Remove(target)
				}
			}
			if err != nil {
				return err
			}
			if file != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", target, formatSize(n))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archive, "archive", false, "Download "+project.ArchiveFile+" instead of a single language")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file, or - for stdout")
	return cmd
}

// copyArtifact streams from the daemon when it answers and reads the project
// directory otherwise.
func copyArtifact(cmd *cobra.Command, ctx *commandContext, projectID, lang string, archive bool, dst io.Writer) (int64, error) {
	if client, ok := ctx.daemonReachable(cmd.Context()); ok {
		if archive {
			return client.DownloadArchive(cmd.Context(), projectID, dst)
		}
		return client.DownloadSubtitle(cmd.Context(), projectID, lang, dst)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return 0, err
	}
	store := daemonrun.NewProjectStore(cfg, logging.NewNop())
	p, err := store.Get(projectID)
	if err != nil {
		return 0, err
	}
	layout := store.Layout(p)
	path := layout.Archive()
	if !archive {
		path = layout.Subtitle(lang)
	}
	if !fileutil.NonEmpty(path) {
		return 0, services.Wrap(services.ErrNotFound, "", "download", filepath.Base(path)+" not produced yet", nil)
	}
	src, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()
	return io.Copy(dst, src)
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories, external tools and the translation engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			failed := preflight.Failed(results)
			if jsonOutput {
				if err := writeJSON(cmd, api.FromChecks(results)); err != nil {
					return err
				}
			} else {
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				printLines(stdout, renderSectionHeader("Preflight", colorize))
				printLines(stdout, checkLines(api.FromChecks(results), colorize))
			}
			if len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return fmt.Errorf("%d check(s) failed: %s", len(failed), strings.Join(names, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are disabled (set notifications.ntfy_topic)")
				return nil
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
