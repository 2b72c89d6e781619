package domain

// Default epsilons. Sums of probability mass are judged against DefaultSumTolerance.
const (
	DefaultSumTolerance         = 1e-9
	DefaultConvergenceTolerance = 1e-9
)

// Tolerances groups the numeric thresholds used across the engines.
type Tolerances struct {
	// Sum bounds |Σ weights - 1| for transition lists and |Σ mass - 1| for distributions.
	Sum float64 `json:"sum" yaml:"sum" mapstructure:"sum" env:"SUM"`

	// Prune drops entries with mass below this value after a step.
	// Zero disables pruning.
	Prune float64 `json:"prune" yaml:"prune" mapstructure:"prune" env:"PRUNE"`

	// Convergence bounds the per-state mass change that still counts as steady.
	Convergence float64 `json:"convergence" yaml:"convergence" mapstructure:"convergence" env:"CONVERGENCE"`
}

// DefaultTolerances returns the tolerances used when nothing is configured.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Sum:         DefaultSumTolerance,
		Prune:       0,
		Convergence: DefaultConvergenceTolerance,
	}
}
