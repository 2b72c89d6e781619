package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/entropia"
	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/internal/presentation/graph"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/ports"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// Stepper advances a stored snapshot. The server does not know how to rebuild the
// chain behind a snapshot, so stepping is delegated to whoever does.
type Stepper interface {
	Advance(ctx context.Context, id string, steps int) (*snapshot.Snapshot, error)
}

// Server exposes a snapshot store over HTTP.
type Server struct {
	Store   ports.SnapshotStore
	Stepper Stepper
	Streams *StreamManager
	Logger  *slog.Logger
}

// Option configures the handler.
type Option func(*options)

type options struct {
	stepper Stepper
	logger  *slog.Logger
	metrics http.Handler
}

// WithStepper enables POST /snapshots/{id}/steps.
func WithStepper(s Stepper) Option {
	return func(o *options) { o.stepper = s }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

// NewHandler creates the HTTP handler for store.
func NewHandler(store ports.SnapshotStore, opts ...Option) http.Handler {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	server := &Server{
		Store:   store,
		Stepper: o.stepper,
		Streams: NewStreamManager(o.logger),
		Logger:  o.logger,
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if o.metrics != nil {
		r.Handle("/metrics", o.metrics)
	}
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", server.ListSnapshots)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSnapshot)
			r.Delete("/", server.DeleteSnapshot)
			r.Get("/frames/{t}", server.GetFrame)
			r.Get("/graph.mmd", server.GetGraph)
			r.Get("/events", server.SubscribeEvents)
			r.Post("/steps", server.PostSteps)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":      "entropia-http",
		"version":  strings.TrimSpace(entropia.Version),
		"stepping": s.Stepper != nil,
	})
}

// ListSnapshots handles GET /snapshots.
func (s *Server) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, "List failed", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// GetSnapshot handles GET /snapshots/{id}. The format query parameter selects
// json (default) or yaml.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	format := snapshot.FormatJSON
	if name := r.URL.Query().Get("format"); name != "" {
		var err error
		if format, err = snapshot.ParseFormat(name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if format == snapshot.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := snapshot.Encode(w, snap, format); err != nil {
		s.Logger.Error("Snapshot encode failed", "snapshot_id", snap.ID, "err", err)
	}
}

// DeleteSnapshot handles DELETE /snapshots/{id}.
func (s *Server) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.fail(w, "Delete failed", err)
		return
	}
	s.Streams.Broadcast(id, Event{Type: EventDeleted, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

// GetFrame handles GET /snapshots/{id}/frames/{t}.
func (s *Server) GetFrame(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseUint(chi.URLParam(r, "t"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid time: expected a non-negative integer", http.StatusBadRequest)
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	for _, f := range snap.Frames {
		if f.Time == t {
			s.writeJSON(w, http.StatusOK, f)
			return
		}
	}
	miss := &domain.NotYetComputedError{Time: t, Latest: snap.Time}
	if len(snap.Frames) > 0 {
		miss.Earliest = snap.Frames[0].Time
	}
	http.Error(w, miss.Error(), http.StatusNotFound)
}

// GetGraph handles GET /snapshots/{id}/graph.mmd.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	nodes, edges, overlay, ok := graph.FromSnapshot(snap)
	if !ok {
		http.Error(w, "snapshot has no graph", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(nodes, edges, overlay))
}

type stepsRequest struct {
	Steps int `json:"steps"`
}

// PostSteps handles POST /snapshots/{id}/steps.
func (s *Server) PostSteps(w http.ResponseWriter, r *http.Request) {
	if s.Stepper == nil {
		http.Error(w, "Stepping is not enabled", http.StatusNotImplemented)
		return
	}
	var body stepsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("PostSteps: Invalid request body", "err", err)
		return
	}
	if body.Steps < 1 {
		http.Error(w, "steps must be at least 1", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	snap, err := s.Stepper.Advance(r.Context(), id, body.Steps)
	if err != nil {
		s.fail(w, "Advance failed", err)
		return
	}
	if n := len(snap.Frames); n > 0 {
		last := snap.Frames[n-1]
		s.Streams.Broadcast(id, Event{Type: EventStep, ID: id, Frame: &last})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "time": snap.Time})
}

// SubscribeEvents handles GET /snapshots/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}
	id := chi.URLParam(r, "id")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("SSE: Subscribed", "snapshot_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: Client disconnected", "snapshot_id", id)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.Logger.Error("SSE: Event encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*snapshot.Snapshot, bool) {
	snap, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "Load failed", err)
		return nil, false
	}
	return snap, true
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), http.StatusInternalServerError)
	s.Logger.Error(msg, "err", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}
