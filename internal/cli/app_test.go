package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/entropia/pkg/config"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := NewApp("", "warn", &out, io.Discard)
	require.NoError(t, err)
	app.Config.Store = config.Store{
		Backend: config.BackendFile,
		Path:    t.TempDir(),
		Format:  "json",
	}
	return app, &out
}

func TestNewApp(t *testing.T) {
	app, err := NewApp("", "debug", io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "debug", app.Config.Logging.Level)
	assert.True(t, app.Logger.Enabled(context.Background(), slog.LevelDebug))
	assert.NotNil(t, app.Hooks().OnExplore)

	_, err = NewApp("", "loud", io.Discard, io.Discard)
	assert.Error(t, err)

	_, err = NewApp("missing.yaml", "", io.Discard, io.Discard)
	assert.ErrorContains(t, err, "error loading config")
}

func TestApp_HooksFeedMetrics(t *testing.T) {
	app, _ := newTestApp(t)
	_, err := RunExplore(context.Background(), app, ExploreOptions{
		Model:      ModelOptions{Name: ModelRing, Size: 4},
		Iterations: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(4), testutil.ToFloat64(app.Metrics.GraphNodes))
	assert.Equal(t, float64(8), testutil.ToFloat64(app.Metrics.GraphEdges))
}

func TestApp_ServeMetrics(t *testing.T) {
	app, _ := newTestApp(t)
	stop, err := app.ServeMetrics()
	require.NoError(t, err)
	stop()

	app.Config.Metrics.Addr = "127.0.0.1:0"
	stop, err = app.ServeMetrics()
	require.NoError(t, err)
	stop()

	app.Config.Metrics.Addr = "not-an-address"
	_, err = app.ServeMetrics()
	assert.Error(t, err)
}
