package domain

import (
	"errors"
	"fmt"
)

// ErrArithmeticOverflow is returned when a counter would wrap or a mass computation
// produces a non-finite value.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// ErrMassNotConserved is returned when a stepped distribution no longer sums to one.
var ErrMassNotConserved = errors.New("probability mass not conserved")

// ErrUnknownState is returned when a hash has never been registered with a cache.
var ErrUnknownState = errors.New("unknown state")

// ErrStaleCursor is returned by Advance when the cursor does not match the engine's current time.
var ErrStaleCursor = errors.New("stale cursor")

// ErrRuleExists is returned when adding a rule whose ID is already registered.
var ErrRuleExists = errors.New("rule already exists")

// ErrRuleNotFound is returned when removing a rule that is not registered.
var ErrRuleNotFound = errors.New("rule not found")

// ErrSnapshotNotFound is returned when a snapshot ID cannot be found in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrInvalidSnapshot is returned when a snapshot fails structural validation.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// InvalidDistributionError reports a transition list that is not a probability distribution.
type InvalidDistributionError struct {
	State  StateHash
	Debug  string
	Sum    float64
	Reason string
}

func (e *InvalidDistributionError) Error() string {
	return fmt.Sprintf("invalid distribution for state %s (%s): %s (sum=%g)", e.State, e.Debug, e.Reason, e.Sum)
}

// NotYetComputedError is returned when querying a time that is not in the history.
type NotYetComputedError struct {
	Time     uint64
	Earliest uint64
	Latest   uint64
}

func (e *NotYetComputedError) Error() string {
	return fmt.Sprintf("time %d not computed (history covers %d..%d)", e.Time, e.Earliest, e.Latest)
}

// GraphConstructionError wraps a failure that happened while exploring a state.
type GraphConstructionError struct {
	State StateHash
	Err   error
}

func (e *GraphConstructionError) Error() string {
	return fmt.Sprintf("graph construction failed at state %s: %v", e.State, e.Err)
}

func (e *GraphConstructionError) Unwrap() error {
	return e.Err
}
