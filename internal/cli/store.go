package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/entropia/pkg/adapters/file"
	"github.com/aretw0/entropia/pkg/adapters/memory"
	"github.com/aretw0/entropia/pkg/adapters/redis"
	"github.com/aretw0/entropia/pkg/config"
	"github.com/aretw0/entropia/pkg/persistence/middleware"
	"github.com/aretw0/entropia/pkg/ports"
	"github.com/aretw0/entropia/pkg/session"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// Persistence is the snapshot store selected by configuration, decorated with the
// configured middleware, and the distributed locker that goes with it.
type Persistence struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	close  func() error
}

// OpenPersistence builds the store stack for cfg.
// Middleware order, outermost first: logging, redaction, encryption.
func OpenPersistence(cfg config.Store, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{close: func() error { return nil }}

	var base ports.SnapshotStore
	switch cfg.Backend {
	case config.BackendMemory:
		base = memory.NewStore()
	case config.BackendFile, "":
		format, err := snapshot.ParseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		base = file.New(cfg.Path, format)
	case config.BackendRedis:
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		base = rs
		p.Locker = redis.NewLocker(rs.Client(), prefix+"lock:")
		p.close = rs.Close
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(cfg.Redact))
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		_ = p.close()
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	p.Store = middleware.Chain(base, mws...)
	return p, nil
}

// Manager wraps the store in a session manager using the locker, if any.
func (p *Persistence) Manager(logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if p.Locker != nil {
		opts = append(opts, session.WithLocker(p.Locker))
	}
	return session.NewManager(p.Store, opts...)
}

// Close releases backend connections.
func (p *Persistence) Close() error {
	return p.close()
}
