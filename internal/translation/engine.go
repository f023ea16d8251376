package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"lingosub/internal/logging"
)

// Engine translates a batch of cue texts between two languages. The result
// has one entry per input text, in order.
type Engine interface {
	Translate(ctx context.Context, source, target string, texts []string) ([]string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, source, target string, texts []string) ([]string, error)

func (f EngineFunc) Translate(ctx context.Context, source, target string, texts []string) ([]string, error) {
	return f(ctx, source, target, texts)
}

// ErrEngineUnavailable is returned while the circuit breaker is open.
var ErrEngineUnavailable = errors.New("translation engine unavailable")

// BreakerEngine stops calling an engine after repeated consecutive failures
// and lets a single probe through once the cool-down has elapsed.
type BreakerEngine struct {
	next    Engine
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerEngine wraps next with a circuit breaker that opens after
// failures consecutive errors and stays open for cooldown.
func NewBreakerEngine(next Engine, name string, failures int, cooldown time.Duration, logger *slog.Logger) *BreakerEngine {
	if failures <= 0 {
		failures = 3
	}
	logger = logging.NewComponentLogger(logger, "translation_breaker")
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			// Cancellation says nothing about the engine; timeouts count as failures.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("translation breaker state changed",
				logging.String(logging.FieldEventType, "breaker_state_change"),
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	}
	return &BreakerEngine{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Translate forwards to the wrapped engine unless the breaker is open.
func (b *BreakerEngine) Translate(ctx context.Context, source, target string, texts []string) ([]string, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, source, target, texts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		return nil, err
	}
	translated, ok := out.([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected translation result %T", out)
	}
	return translated, nil
}

// State reports the breaker state for status output.
func (b *BreakerEngine) State() string {
	return b.breaker.State().String()
}
