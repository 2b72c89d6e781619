package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/entropia"
	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/config"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/observability"
	"github.com/aretw0/entropia/pkg/simulation"
)

// App carries what every command needs: the resolved configuration, a logger
// writing to stderr, the metrics registry and the output stream.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Out      io.Writer
}

// NewApp loads the configuration at configPath (optional) and builds the logger.
// A non-empty logLevel overrides the configured level.
func NewApp(configPath, logLevel string, out io.Writer, errOut io.Writer) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return &App{
		Config:   cfg,
		Logger:   logging.NewWithWriter(errOut, level),
		Registry: reg,
		Metrics:  observability.NewMetrics(reg),
		Out:      out,
	}, nil
}

// Hooks returns the metrics hooks, plus debug logging hooks when the logger
// has debug enabled.
func (a *App) Hooks() domain.LifecycleHooks {
	hooks := a.Metrics.Hooks()
	if a.Logger.Enabled(context.Background(), slog.LevelDebug) {
		hooks = hooks.Merge(createDebugHooks(a.Logger))
	}
	return hooks
}

// ChainOptions are the facade options derived from the configuration.
func (a *App) ChainOptions() []entropia.Option {
	return []entropia.Option{
		entropia.WithConfig(a.Config),
		entropia.WithLogger(a.Logger),
		entropia.WithLifecycleHooks(a.Hooks()),
	}
}

// SimulationOptions mirror ChainOptions for engines restored from snapshots.
func (a *App) SimulationOptions() []simulation.Option {
	return []simulation.Option{
		simulation.WithTolerances(a.Config.Tolerances),
		simulation.WithLogger(a.Logger),
		simulation.WithHooks(a.Hooks()),
	}
}

// ServeMetrics exposes the registry on the configured address until the returned
// function is called. It is a no-op when no address is configured.
func (a *App) ServeMetrics() (func(), error) {
	addr := a.Config.Metrics.Addr
	if addr == "" {
		return func() {}, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Metrics server failed", "err", err)
		}
	}()
	a.Logger.Info("Serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnResolve: func(e *domain.ResolveEvent) {
			if e.Err != nil {
				logger.Debug("Resolve (Error)", "state", e.State, "err", e.Err)
				return
			}
			logger.Debug("Resolve", "state", e.State, "hit", e.Hit, "transitions", e.Transitions)
		},
		OnStep: func(e *domain.StepEvent) {
			logger.Debug("Step", "time", e.Time, "kind", e.Kind, "support", e.Support, "entropy", e.Entropy, "duration", e.Duration)
		},
		OnExplore: func(e *domain.ExploreEvent) {
			logger.Debug("Explore Round", "round", e.Round, "frontier", e.Frontier, "nodes", e.Nodes, "edges", e.Edges)
		},
	}
}
