package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/entropia"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/runner"
	"github.com/aretw0/entropia/pkg/session"
	"github.com/aretw0/entropia/pkg/simulation"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// SaveOptions configures snapshot save.
type SaveOptions struct {
	Model   ModelOptions
	Steps   int
	ID      string
	Explore bool

	// Out writes the snapshot to a file instead of the configured store.
	// The format follows the extension.
	Out string
}

// ResumeOptions configures snapshot resume.
type ResumeOptions struct {
	ID              string
	Steps           int
	CheckpointEvery int
	Walk            WalkOptions
}

// SaveSnapshot runs the model and persists the resulting history. It returns the
// ID the snapshot was saved under.
func SaveSnapshot(ctx context.Context, app *App, opts SaveOptions) (string, error) {
	if opts.Steps < 0 {
		return "", fmt.Errorf("steps must not be negative, got %d", opts.Steps)
	}
	if opts.Explore && !opts.Model.Bounded() && app.Config.IterationLimit <= 0 {
		return "", errors.New("model is unbounded: set iteration_limit to explore it")
	}
	chain, err := opts.Model.Chain(app.ChainOptions()...)
	if err != nil {
		return "", err
	}
	if _, err := chain.Run(opts.Steps); err != nil {
		return "", err
	}
	if opts.Explore {
		if _, err := chain.Explore(); err != nil {
			return "", err
		}
	}
	snap, err := chain.Snapshot(opts.Model.metadata())
	if err != nil {
		return "", err
	}
	id := opts.ID
	if id == "" {
		id = snap.ID
	}

	if opts.Out != "" {
		if err := writeSnapshotFile(opts.Out, snap); err != nil {
			return "", err
		}
		app.Logger.Info("Snapshot written", "path", opts.Out, "time", snap.Time)
		return id, nil
	}

	p, err := OpenPersistence(app.Config.Store, app.Logger)
	if err != nil {
		return "", err
	}
	defer p.Close()
	if err := p.Manager(app.Logger).Save(ctx, id, snap); err != nil {
		return "", err
	}
	app.Logger.Info("Snapshot saved", "snapshot_id", id, "time", snap.Time)
	return id, nil
}

func writeSnapshotFile(path string, snap *snapshot.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snapshot.Encode(f, snap, snapshot.FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ListSnapshots returns the IDs in the configured store.
func ListSnapshots(ctx context.Context, app *App) ([]string, error) {
	p, err := OpenPersistence(app.Config.Store, app.Logger)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Store.List(ctx)
}

// ShowSnapshot prints a stored snapshot in the given format.
func ShowSnapshot(ctx context.Context, app *App, id string, format snapshot.Format) error {
	p, err := OpenPersistence(app.Config.Store, app.Logger)
	if err != nil {
		return err
	}
	defer p.Close()
	snap, err := p.Manager(app.Logger).Load(ctx, id)
	if err != nil {
		return err
	}
	return snapshot.Encode(app.Out, snap, format)
}

// RemoveSnapshots deletes every id, reporting all failures together.
func RemoveSnapshots(ctx context.Context, app *App, ids []string) error {
	p, err := OpenPersistence(app.Config.Store, app.Logger)
	if err != nil {
		return err
	}
	defer p.Close()
	m := p.Manager(app.Logger)

	var errs []error
	for _, id := range ids {
		if err := m.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("remove %q: %w", id, err))
			continue
		}
		fmt.Fprintf(app.Out, "Removed snapshot '%s'\n", id)
	}
	return errors.Join(errs...)
}

// ResumeSnapshot restores a stored snapshot, continues it for opts.Steps steps
// while printing frames, and checkpoints it back under the same ID.
func ResumeSnapshot(ctx context.Context, app *App, opts ResumeOptions) error {
	if opts.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", opts.Steps)
	}
	p, err := OpenPersistence(app.Config.Store, app.Logger)
	if err != nil {
		return err
	}
	defer p.Close()
	m := p.Manager(app.Logger)

	snap, err := m.Load(ctx, opts.ID)
	if err != nil {
		return err
	}
	sim, g, chain, err := restore(app, opts.ID, snap)
	if err != nil {
		return err
	}
	app.Logger.Info("Snapshot resumed", "snapshot_id", opts.ID, "time", sim.Time(), "model", snap.Metadata[metaModel])

	h, err := newHandler(app.Out, opts.Walk, describer(chain.Oracle()))
	if err != nil {
		return err
	}
	r := runner.New(
		runner.WithHandler(h),
		runner.WithLogger(app.Logger),
		runner.WithSteps(opts.Steps),
		runner.WithCheckpoint(opts.CheckpointEvery, checkpointer(m, opts.ID, sim, g, snap.Metadata)),
	)
	_, err = r.Run(ctx, sim)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// restore rebuilds the model a snapshot was recorded from and restores it.
func restore(app *App, id string, snap *snapshot.Snapshot) (*simulation.Engine[int], *explorer.Graph, *entropia.Chain[int], error) {
	model, err := modelFromMetadata(snap.Metadata)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot %q: %w", id, err)
	}
	chain, err := model.Chain(app.ChainOptions()...)
	if err != nil {
		return nil, nil, nil, err
	}
	sim, g, err := snapshot.Restore(snap, chain.Oracle(), app.SimulationOptions()...)
	if err != nil {
		return nil, nil, nil, err
	}
	return sim, g, chain, nil
}

func checkpointer(m *session.Manager, id string, sim *simulation.Engine[int], g *explorer.Graph, md map[string]string) func(context.Context, simulation.Frame) error {
	return func(ctx context.Context, f simulation.Frame) error {
		_, err := session.Checkpoint(ctx, m, id, sim, g, md)
		return err
	}
}

// IsNotFound reports whether err means the snapshot does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSnapshotNotFound)
}
