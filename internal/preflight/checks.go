package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"lingosub/internal/config"
	"lingosub/internal/deps"
	"lingosub/internal/fileutil"
	"lingosub/internal/services/libretranslate"
	"lingosub/internal/services/llm"
	"lingosub/internal/translation"
)

// MinFreeBytes is the free space below which new runs are likely to fail
// while extracting audio.
const MinFreeBytes = 1 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeBytes reports the space available below path.
func FreeBytes(path string) (uint64, error) {
	return fileutil.FreeBytes(path)
}

// CheckFreeSpace fails when fewer than minBytes are available below path.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free", formatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(" (need %s)", formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Pipeline(cfg.FFmpegBinary()))
}

// CheckTranslationEngine verifies that the configured translation provider
// answers and, for LibreTranslate, that it offers every target language.
func CheckTranslationEngine(ctx context.Context, cfg *config.Config) Result {
	const name = "Translation engine"
	if cfg == nil {
		return Result{Name: name, Detail: "configuration unavailable"}
	}
	if len(cfg.TargetLanguages()) == 0 {
		return Result{Name: name, Passed: true, Detail: "no target languages"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.Translation.Provider {
	case translation.ProviderLibreTranslate:
		client := libretranslate.New(libretranslate.Config{
			BaseURL: cfg.Translation.BaseURL,
			APIKey:  cfg.Translation.APIKey,
		}, libretranslate.WithRetry(1, 0))
		langs, err := client.Languages(checkCtx)
		if err != nil {
			return Result{Name: name, Detail: summarizeError("LibreTranslate", err)}
		}
		if missing := missingTargets(cfg.Languages.Source, cfg.TargetLanguages(), langs); len(missing) > 0 {
			return Result{Name: name, Detail: fmt.Sprintf("LibreTranslate lacks %s", strings.Join(missing, ", "))}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("LibreTranslate reachable (%d languages)", len(langs))}
	case translation.ProviderOpenAI:
		if strings.TrimSpace(cfg.Translation.APIKey) == "" {
			return Result{Name: name, Detail: "API key missing"}
		}
		client := llm.NewClient(llm.Config{
			APIKey:  cfg.Translation.APIKey,
			BaseURL: cfg.Translation.BaseURL,
			Model:   cfg.Translation.Model,
		}, llm.WithRetryMaxAttempts(1))
		if err := client.HealthCheck(checkCtx); err != nil {
			return Result{Name: name, Detail: summarizeError("LLM API", err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("LLM API reachable (%s)", client.Model())}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unsupported provider %q", cfg.Translation.Provider)}
	}
}

func missingTargets(source string, targets []string, offered []libretranslate.Language) []string {
	var sourceTargets []string
	found := false
	for _, lang := range offered {
		if strings.EqualFold(lang.Code, source) {
			sourceTargets = lang.Targets
			found = true
			break
		}
	}
	if !found {
		return append([]string{source}, targets...)
	}
	var missing []string
	for _, target := range targets {
		if !slices.ContainsFunc(sourceTargets, func(code string) bool { return strings.EqualFold(code, target) }) {
			missing = append(missing, target)
		}
	}
	return missing
}

// summarizeError produces a human-readable summary for engine check failures.
func summarizeError(service string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", service)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", service)
	}
	return err.Error()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
