package simulation

import (
	"log/slog"

	"github.com/aretw0/entropia/pkg/domain"
)

type settings struct {
	tolerances domain.Tolerances
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

// Option configures an Engine.
type Option func(*settings)

// WithTolerances overrides the sum and pruning tolerances.
func WithTolerances(t domain.Tolerances) Option {
	return func(s *settings) {
		s.tolerances = t
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}
