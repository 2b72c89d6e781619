// Package convergence checks whether repeated stepping leaves a distribution unchanged.
//
// Every check is bounded by an iteration budget. A negative answer only means that
// convergence was not observed within that budget.
package convergence
