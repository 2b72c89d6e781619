package rules

type conditionKind uint8

const (
	kindNever conditionKind = iota
	kindAlways
	kindPredicate
)

// Condition decides whether a rule applies to a state.
// The zero value is Never.
type Condition[S any] struct {
	kind conditionKind
	pred func(S) bool
}

// Always returns a condition satisfied by every state.
func Always[S any]() Condition[S] {
	return Condition[S]{kind: kindAlways}
}

// Never returns a condition satisfied by no state.
func Never[S any]() Condition[S] {
	return Condition[S]{kind: kindNever}
}

// When returns a condition backed by a predicate. A nil predicate is Never.
func When[S any](pred func(S) bool) Condition[S] {
	if pred == nil {
		return Never[S]()
	}
	return Condition[S]{kind: kindPredicate, pred: pred}
}

// IsAlways reports whether c is the Always variant.
func (c Condition[S]) IsAlways() bool { return c.kind == kindAlways }

// IsNever reports whether c is the Never variant.
func (c Condition[S]) IsNever() bool { return c.kind == kindNever }

// IsPredicate reports whether c is backed by a predicate.
func (c Condition[S]) IsPredicate() bool { return c.kind == kindPredicate }

// String names the variant.
func (c Condition[S]) String() string {
	switch c.kind {
	case kindAlways:
		return "always"
	case kindPredicate:
		return "predicate"
	}
	return "never"
}
