package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/entropia/pkg/simulation"
)

// TextHandler writes one aligned line per frame:
//
//	t=3    step          H=1.811278  norm=0.612372  support=4
type TextHandler struct {
	Writer   io.Writer
	Top      int
	Describe Describer
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTop appends the n heaviest states to each line.
func WithTop(n int) TextHandlerOption {
	return func(h *TextHandler) {
		h.Top = n
	}
}

// WithDescriber names states in the top list; hashes are printed otherwise.
func WithDescriber(d Describer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Describe = d
	}
}

// NewTextHandler creates a text handler writing to w (stdout when nil).
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{Writer: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Handle(ctx context.Context, f simulation.Frame) error {
	var b strings.Builder
	kind := string(f.Kind)
	if f.Label != "" {
		kind += "(" + f.Label + ")"
	}
	fmt.Fprintf(&b, "t=%-4d %-12s H=%.6f  norm=%.6f  support=%d",
		f.Time, kind, f.Distribution.Entropy(), f.Distribution.EuclideanNorm(), f.Distribution.Len())

	for i, m := range top(f, h.Top) {
		sep := ", "
		if i == 0 {
			sep = "  top: "
		}
		name := m.hash.String()
		if h.Describe != nil {
			name = h.Describe(m.hash)
		}
		fmt.Fprintf(&b, "%s%s=%.6f", sep, name, m.p)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(h.Writer, b.String())
	return err
}
