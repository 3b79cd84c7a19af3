// Package types holds the configuration enums shared between the public
// pencil API and the internal planner.
package types

// Rigor is a planning-effort level: how much work the plan builder spends
// measuring candidate communication schedules before committing to one.
//
// Low rigor builds plans quickly but may pick a slower schedule; high
// rigor measures exhaustively and amortizes over many executions. Measure
// is the default for long-running iterative solvers.
type Rigor int

//go:generate go tool enumer -type=Rigor types.go

const (
	// Estimate picks a schedule heuristically, without measurement.
	Estimate Rigor = iota
	// Measure times each candidate schedule once.
	Measure
	// Patient times each candidate schedule several times.
	Patient
	// Exhaustive times each candidate schedule many times.
	Exhaustive
)

// Trials returns the number of timed executions per candidate schedule
// during plan construction.
func (r Rigor) Trials() int {
	switch r {
	case Measure:
		return 1
	case Patient:
		return 3
	case Exhaustive:
		return 8
	}
	return 0
}
