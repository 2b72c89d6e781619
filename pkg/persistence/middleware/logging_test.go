package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/adapters/memory"
	"github.com/aretw0/entropia/pkg/persistence/middleware"
	contract "github.com/aretw0/entropia/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	store := middleware.NewLoggingMiddleware(logging.NewWithWriter(&buf, slog.LevelDebug))(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run", contract.Fixture("run")))
	_, err := store.Load(ctx, "missing")
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "op=save")
	assert.Contains(t, out, "snapshot_id=run")
	assert.Contains(t, out, "op=load")
	assert.Contains(t, out, "found=false")
	assert.NotContains(t, out, "level=WARN")
}

func TestChain_Order(t *testing.T) {
	var buf bytes.Buffer
	underlying := memory.NewStore()
	key := bytes.Repeat([]byte{7}, 32)

	store := middleware.Chain(underlying,
		middleware.NewLoggingMiddleware(logging.NewWithWriter(&buf, slog.LevelDebug)),
		middleware.NewRedactionMiddleware([]string{"secret"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	ctx := context.Background()

	snap := contract.Fixture("run")
	snap.Metadata["secret"] = "value"
	require.NoError(t, store.Save(ctx, "run", snap))

	loaded, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, middleware.RedactedValue, loaded.Metadata["secret"], "redaction runs before encryption")
	assert.True(t, strings.Contains(buf.String(), "op=save"))

	raw, err := underlying.Load(ctx, "run")
	require.NoError(t, err)
	assert.Contains(t, raw.Metadata, middleware.EnvelopeKey)
}
