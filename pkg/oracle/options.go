package oracle

import (
	"log/slog"
	"runtime"

	"github.com/aretw0/entropia/pkg/domain"
)

// parallelThreshold is the batch size below which resolution stays on the caller's goroutine.
const parallelThreshold = 32

type settings struct {
	tolerance   float64
	parallelism int
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
}

// Option configures an Oracle.
type Option func(*settings)

// WithTolerance sets the epsilon used to validate weight sums.
func WithTolerance(eps float64) Option {
	return func(s *settings) {
		if eps > 0 {
			s.tolerance = eps
		}
	}
}

// WithParallelism bounds the number of goroutines used by batch resolution.
// Values below 1 select GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(s *settings) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		s.parallelism = n
	}
}

// WithLogger sets a custom structured logger for the oracle.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks registers observability hooks. OnResolve may be called concurrently.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}
