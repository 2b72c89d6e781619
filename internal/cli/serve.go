package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpadapter "github.com/aretw0/entropia/pkg/adapters/http"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/session"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// ServeOptions configures serve.
type ServeOptions struct {
	Addr string

	// Ready, if set, is called with the bound address once the listener is up.
	Ready func(addr string)
}

// Stepper advances stored snapshots of the built-in models.
type Stepper struct {
	app     *App
	manager *session.Manager
}

// NewStepper returns a stepper that writes through m.
func NewStepper(app *App, m *session.Manager) *Stepper {
	return &Stepper{app: app, manager: m}
}

// Advance restores the snapshot stored under id, runs it for steps more steps
// and saves it back, all under the snapshot lock.
func (s *Stepper) Advance(ctx context.Context, id string, steps int) (*snapshot.Snapshot, error) {
	var out *snapshot.Snapshot
	err := s.manager.Update(ctx, id, func(current *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		if current == nil {
			return nil, domain.ErrSnapshotNotFound
		}
		sim, g, _, err := restore(s.app, id, current)
		if err != nil {
			return nil, err
		}
		if _, err := sim.Run(steps); err != nil {
			return nil, err
		}
		next, err := snapshot.Capture(sim, g, current.Metadata)
		if err != nil {
			return nil, err
		}
		next.ID = current.ID
		out = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.app.Logger.Info("Snapshot advanced", "snapshot_id", id, "steps", steps, "time", out.Time)
	return out, nil
}

// RunServe serves the configured snapshot store over HTTP until ctx is done.
func RunServe(ctx context.Context, app *App, opts ServeOptions) error {
	if opts.Addr == "" {
		return errors.New("serve needs an address")
	}
	p, err := OpenPersistence(app.Config.Store, app.Logger)
	if err != nil {
		return err
	}
	defer p.Close()
	m := p.Manager(app.Logger)

	handler := httpadapter.NewHandler(p.Store,
		httpadapter.WithStepper(NewStepper(app, m)),
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithMetrics(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})),
	)

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	addr := ln.Addr().String()
	app.Logger.Info("Serving snapshots", "addr", addr, "backend", app.Config.Store.Backend)
	if opts.Ready != nil {
		opts.Ready(addr)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// SSE streams never finish on their own.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
