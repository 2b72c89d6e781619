package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/aretw0/entropia/pkg/simulation"
)

// Record is the JSON line emitted per frame.
type Record struct {
	Time    uint64             `json:"time"`
	Kind    string             `json:"kind"`
	Label   string             `json:"label,omitempty"`
	Entropy float64            `json:"entropy"`
	Norm    float64            `json:"norm"`
	Support int                `json:"support"`
	Masses  map[string]float64 `json:"masses,omitempty"`
}

// JSONHandler implements Handler for JSON-Lines output.
type JSONHandler struct {
	Encoder *json.Encoder

	// Masses includes the full distribution, keyed by hex state hash or description.
	Masses   bool
	Describe Describer
}

// NewJSONHandler creates a handler writing to w (stdout when nil).
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{Encoder: json.NewEncoder(w)}
}

func (h *JSONHandler) Handle(ctx context.Context, f simulation.Frame) error {
	rec := Record{
		Time:    f.Time,
		Kind:    string(f.Kind),
		Label:   f.Label,
		Entropy: f.Distribution.Entropy(),
		Norm:    f.Distribution.EuclideanNorm(),
		Support: f.Distribution.Len(),
	}
	if h.Masses {
		rec.Masses = make(map[string]float64, f.Distribution.Len())
		for h2, p := range f.Distribution.Masses() {
			key := h2.String()
			if h.Describe != nil {
				key = h.Describe(h2)
			}
			rec.Masses[key] += p
		}
	}
	return h.Encoder.Encode(rec)
}
