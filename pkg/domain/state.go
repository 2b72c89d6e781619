package domain

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// StateHash identifies a state. Equal states produce equal hashes.
type StateHash uint64

// String renders the hash as a fixed-width hex string, the form used in snapshots.
func (h StateHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// ParseStateHash is the inverse of StateHash.String.
func ParseStateHash(s string) (StateHash, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid state hash %q: %w", s, err)
	}
	return StateHash(v), nil
}

// Keyer lets a state provide its own canonical identity.
// Two states with the same key are treated as the same state.
type Keyer interface {
	StateKey() string
}

// HashOf computes the identity of a state.
//
// States implementing Keyer are hashed by their key. Any other value is hashed by its
// Go-syntax rendering, which is deterministic for scalars, strings, structs, arrays,
// slices and maps (map keys are printed sorted). States holding pointers hash by
// address and must implement Keyer instead.
func HashOf[S any](s S) StateHash {
	d := xxhash.New()
	_, _ = fmt.Fprintf(d, "%T\x00", s)
	if k, ok := any(s).(Keyer); ok {
		_, _ = d.WriteString(k.StateKey())
	} else {
		_, _ = fmt.Fprintf(d, "%#v", s)
	}
	return StateHash(d.Sum64())
}

// Describe returns a short human readable rendering of a state for errors and logs.
func Describe[S any](s S) string {
	if k, ok := any(s).(Keyer); ok {
		return k.StateKey()
	}
	return fmt.Sprintf("%+v", s)
}
