package cli

import (
	"fmt"
	"strconv"

	"github.com/aretw0/entropia"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/dsl"
	"github.com/aretw0/entropia/pkg/oracle"
	"github.com/aretw0/entropia/pkg/registry"
	"github.com/aretw0/entropia/pkg/runner"
)

// Built-in models.
const (
	ModelWalk    = "walk"
	ModelRing    = "ring"
	ModelGambler = "gambler"
)

// Metadata keys recorded in snapshots so they can be resumed.
const (
	metaModel = "model"
	metaSize  = "size"
)

// model is a built-in chain over integer states.
type model struct {
	sized   bool
	bounded bool
	build   func(size int, opts ...entropia.Option) (*entropia.Chain[int], error)
}

// Models holds the built-in models.
//
// walk is the unbounded symmetric random walk on the integers starting at 0.
// ring is the symmetric walk on Z/size, built from rules.
// gambler is the fair gambler's ruin on 0..size, starting halfway, with both
// ends absorbing.
var Models = registry.NewRegistry[model]()

func init() {
	Models.Register(ModelWalk, model{build: func(_ int, opts ...entropia.Option) (*entropia.Chain[int], error) {
		return entropia.New(0, walk, opts...), nil
	}})
	Models.Register(ModelRing, model{sized: true, bounded: true, build: ring})
	Models.Register(ModelGambler, model{sized: true, bounded: true, build: func(size int, opts ...entropia.Option) (*entropia.Chain[int], error) {
		return entropia.New(size/2, gambler(size), opts...), nil
	}})
}

// ModelOptions selects one of the built-in models.
type ModelOptions struct {
	Name string
	Size int
}

func (m ModelOptions) lookup() (model, error) {
	mod, err := Models.Lookup(m.Name)
	if err != nil {
		return mod, fmt.Errorf("unknown model: %w", err)
	}
	if mod.sized && m.Size < 1 {
		return mod, fmt.Errorf("%s size must be positive, got %d", m.Name, m.Size)
	}
	return mod, nil
}

func (m ModelOptions) validate() error {
	_, err := m.lookup()
	return err
}

// Bounded reports whether the model has finitely many states.
func (m ModelOptions) Bounded() bool {
	mod, err := Models.Lookup(m.Name)
	return err == nil && mod.bounded
}

func (m ModelOptions) metadata() map[string]string {
	md := map[string]string{metaModel: m.Name}
	if mod, err := Models.Lookup(m.Name); err == nil && mod.sized {
		md[metaSize] = strconv.Itoa(m.Size)
	}
	return md
}

func modelFromMetadata(md map[string]string) (ModelOptions, error) {
	m := ModelOptions{Name: md[metaModel]}
	if raw, ok := md[metaSize]; ok {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return m, fmt.Errorf("snapshot metadata %s=%q: %w", metaSize, raw, err)
		}
		m.Size = size
	}
	return m, m.validate()
}

// Chain builds the model's chain.
func (m ModelOptions) Chain(opts ...entropia.Option) (*entropia.Chain[int], error) {
	mod, err := m.lookup()
	if err != nil {
		return nil, err
	}
	return mod.build(m.Size, opts...)
}

func walk(p int) []domain.Transition[int] {
	return []domain.Transition[int]{
		{Target: p - 1, Label: "left", Weight: 0.5},
		{Target: p + 1, Label: "right", Weight: 0.5},
	}
}

func ring(size int, opts ...entropia.Option) (*entropia.Chain[int], error) {
	b := dsl.New[int]()
	b.Rule("clockwise").
		Describe("step to the next position").
		Go(func(p int) int { return (p + 1) % size }).
		Weight(0.5).
		Label("cw")
	b.Rule("counterclockwise").
		Describe("step to the previous position").
		Go(func(p int) int { return (p + size - 1) % size }).
		Weight(0.5).
		Label("ccw")
	rs, err := b.Rules()
	if err != nil {
		return nil, err
	}
	return entropia.FromRules(0, rs, opts...)
}

func gambler(size int) func(int) []domain.Transition[int] {
	return func(p int) []domain.Transition[int] {
		if p <= 0 || p >= size {
			return []domain.Transition[int]{{Target: p, Label: domain.AbsorbingLabel, Weight: 1}}
		}
		return []domain.Transition[int]{
			{Target: p - 1, Label: "lose", Weight: 0.5},
			{Target: p + 1, Label: "win", Weight: 0.5},
		}
	}
}

func describer[S any](o *oracle.Oracle[S]) runner.Describer {
	return func(h domain.StateHash) string {
		if s, ok := o.State(h); ok {
			return domain.Describe(s)
		}
		return h.String()
	}
}
