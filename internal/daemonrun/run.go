package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"lingosub/internal/config"
	"lingosub/internal/daemon"
	"lingosub/internal/deps"
	"lingosub/internal/logging"
	"lingosub/internal/preflight"
	"lingosub/internal/queue"
	"lingosub/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the lingosub daemon and blocks until SIGINT/SIGTERM or ctx is
// cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, logPath, err := logging.NewFromConfig(cfg, opts.LogLevel, opts.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update lingosubd.log link: %v\n", err)
	}
	logDependencySnapshot(logger, cfg)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	components, err := Build(cfg, logger)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer components.Close()

	manager := workflow.NewManager(cfg, store, components.Runner, logger)
	d, err := daemon.New(cfg, store, components.Projects, manager, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	pidPath := cfg.DaemonPIDPath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("write pid file failed", logging.Error(err), logging.String("path", pidPath))
	}
	defer os.Remove(pidPath)

	<-signalCtx.Done()
	logger.Info("lingosub daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, config.DaemonLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := preflight.CheckSystemDeps(cfg)
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, st := range statuses {
		key := strings.ToLower(st.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", st.Available),
			logging.String(key+"_binary", st.Command),
		)
	}
	attrs = append(attrs,
		logging.String("asr_model", cfg.ASR.Model),
		logging.Bool("whisperx_cuda", cfg.ASR.CUDA),
		logging.String("whisperx_vad_method", cfg.ASR.VADMethod),
		logging.String("translation_provider", cfg.Translation.Provider),
		logging.Bool("translation_key_present", strings.TrimSpace(cfg.Translation.APIKey) != ""),
		logging.Int("target_languages", len(cfg.TargetLanguages())),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "dependency snapshot", attrs...)

	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logging.WarnWithContext(logger, "required dependencies missing",
			"dependency_missing",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldErrorHint, "install the missing tools; runs fail at the stage that needs them"),
		)
	}
}
