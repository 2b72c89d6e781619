package explorer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/oracle"
)

// DefaultBatchSize is the number of frontier states resolved per round.
const DefaultBatchSize = 64

// Options tunes FullTraversal. The zero value explores without bound.
type Options[S any] struct {
	// ModifyState canonicalizes the initial state and every discovered target
	// before it is recorded.
	ModifyState func(S) S

	// Keep decides whether a discovered state is expanded. Rejected states are
	// recorded as pruned leaves.
	Keep func(S) bool

	// IterationLimit caps the number of expanded states. Zero or less is unbounded.
	IterationLimit int

	// BatchSize caps the number of states resolved per round.
	BatchSize int

	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
}

type item[S any] struct {
	state S
	hash  domain.StateHash
	depth int
}

// FullTraversal explores the states reachable from initial.
//
// The returned graph holds every discovered state and an edge for every resolved
// transition; absorbing states get a self-loop labelled domain.AbsorbingLabel. The
// graph is exhaustive when the frontier empties before IterationLimit is reached
// and Keep rejected no state; otherwise it is partial but consistent. The initial
// state passes through ModifyState like every discovered target. A transition list that fails validation
// aborts the traversal with a *domain.GraphConstructionError.
func FullTraversal[S any](initial S, o *oracle.Oracle[S], opts Options[S]) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	if opts.ModifyState != nil {
		initial = opts.ModifyState(initial)
	}
	g := newGraph()
	root := item[S]{state: initial, hash: o.Remember(initial)}
	g.addNode(Node{Hash: root.hash})
	queue := []item[S]{root}
	pruned := 0

	for round := 1; len(queue) > 0; round++ {
		n := min(batch, len(queue))
		if opts.IterationLimit > 0 {
			if g.iterations >= opts.IterationLimit {
				break
			}
			n = min(n, opts.IterationLimit-g.iterations)
		}
		level := queue[:n]
		queue = queue[n:]

		states := make([]S, len(level))
		for i, it := range level {
			states[i] = it.state
		}
		resolved, err := o.ResolveAll(states)
		if err != nil {
			return nil, constructionError(err)
		}
		g.iterations += n

		// 1. Merge sequentially so discovery order does not depend on scheduling.
		for i, it := range level {
			ts := resolved[i]
			if len(ts) == 0 {
				g.addEdge(domain.Edge{From: it.hash, To: it.hash, Label: domain.AbsorbingLabel, Weight: 1})
				continue
			}
			for _, t := range ts {
				target := t.Target
				if opts.ModifyState != nil {
					target = opts.ModifyState(target)
				}
				th := o.Remember(target)
				g.addEdge(domain.Edge{From: it.hash, To: th, Label: t.Label, Weight: t.Weight})
				if g.Has(th) {
					continue
				}
				keep := opts.Keep == nil || opts.Keep(target)
				g.addNode(Node{Hash: th, Depth: it.depth + 1, Pruned: !keep})
				if !keep {
					pruned++
					continue
				}
				queue = append(queue, item[S]{state: target, hash: th, depth: it.depth + 1})
			}
		}

		// 2. Report progress.
		logger.Debug("Explored round", "round", round, "expanded", n, "frontier", len(queue), "nodes", g.NodeCount())
		if opts.Hooks.OnExplore != nil {
			opts.Hooks.OnExplore(&domain.ExploreEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventExplore},
				Round:     round,
				Frontier:  len(queue),
				Nodes:     g.NodeCount(),
				Edges:     g.EdgeCount(),
			})
		}
	}

	g.exhaustive = len(queue) == 0 && pruned == 0
	return g, nil
}

func constructionError(err error) error {
	var invalid *domain.InvalidDistributionError
	if errors.As(err, &invalid) {
		return &domain.GraphConstructionError{State: invalid.State, Err: err}
	}
	return fmt.Errorf("explore: %w", err)
}
