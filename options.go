package entropia

import (
	"log/slog"

	"github.com/aretw0/entropia/pkg/config"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
)

type settings struct {
	tolerances     domain.Tolerances
	parallelism    int
	batchSize      int
	iterationLimit int
	normalize      bool
	logger         *slog.Logger
	hooks          domain.LifecycleHooks
}

func defaultSettings() settings {
	return settings{
		tolerances: domain.DefaultTolerances(),
		batchSize:  explorer.DefaultBatchSize,
	}
}

// Option defines a functional option for configuring a Chain.
type Option func(*settings)

// WithConfig applies the numeric settings of a loaded configuration.
// Options given after it still take precedence.
func WithConfig(cfg config.Config) Option {
	return func(s *settings) {
		s.tolerances = cfg.Tolerances
		s.parallelism = cfg.Parallelism
		if cfg.BatchSize > 0 {
			s.batchSize = cfg.BatchSize
		}
		s.iterationLimit = cfg.IterationLimit
	}
}

// WithTolerances overrides the sum, pruning and convergence tolerances.
func WithTolerances(t domain.Tolerances) Option {
	return func(s *settings) {
		s.tolerances = t
	}
}

// WithParallelism bounds how many transition functions run at once during
// exploration. Zero uses GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(s *settings) {
		s.parallelism = n
	}
}

// WithBatchSize caps the number of states resolved per exploration round.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithIterationLimit caps the number of states Explore expands. Zero is unbounded.
func WithIterationLimit(n int) Option {
	return func(s *settings) {
		s.iterationLimit = n
	}
}

// WithNormalization makes FromRules rescale each state's transitions to sum to one,
// sending missing mass to a self loop.
func WithNormalization() Option {
	return func(s *settings) {
		s.normalize = true
	}
}

// WithLogger sets a custom structured logger for every engine of the chain.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = s.hooks.Merge(hooks)
	}
}
