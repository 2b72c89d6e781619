package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/entropia/pkg/ports"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// RedactedValue replaces masked metadata values.
const RedactedValue = "***"

type redactionMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks the values of metadata keys
// matching any of the patterns before the snapshot is stored. The caller's snapshot
// is never modified.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, id string, snap *snapshot.Snapshot) error {
	cloned := *snap
	cloned.Metadata = make(map[string]string, len(snap.Metadata))
	for k, v := range snap.Metadata {
		if m.matches(k) {
			v = RedactedValue
		}
		cloned.Metadata[k] = v
	}
	return m.next.Save(ctx, id, &cloned)
}

func (m *redactionMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *redactionMiddleware) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	return m.next.Load(ctx, id)
}

func (m *redactionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
