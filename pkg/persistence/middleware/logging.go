package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/ports"
	"github.com/aretw0/entropia/pkg/snapshot"
)

type loggingMiddleware struct {
	next   ports.SnapshotStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store operation with its duration.
// Failures are logged at Warn, except ErrSnapshotNotFound which is a normal miss.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op, id string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "duration", time.Since(start))
	if id != "" {
		attrs = append(attrs, "snapshot_id", id)
	}
	switch {
	case err == nil, errors.Is(err, domain.ErrSnapshotNotFound):
		m.logger.DebugContext(ctx, "Snapshot store", append(attrs, "found", err == nil)...)
	default:
		m.logger.WarnContext(ctx, "Snapshot store failed", append(attrs, "error", err)...)
	}
}

func (m *loggingMiddleware) Save(ctx context.Context, id string, snap *snapshot.Snapshot) error {
	start := time.Now()
	err := m.next.Save(ctx, id, snap)
	m.log(ctx, "save", id, start, err, "time", snap.Time, "frames", len(snap.Frames))
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	start := time.Now()
	snap, err := m.next.Load(ctx, id)
	m.log(ctx, "load", id, start, err)
	return snap, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := m.next.Delete(ctx, id)
	m.log(ctx, "delete", id, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.log(ctx, "list", "", start, err, "count", len(ids))
	return ids, err
}
