package pencil

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/spectralgo/pencil/config"
	"github.com/spectralgo/pencil/types"
)

// Flag configures plan construction. Flags combine as a bitwise union.
//
// At most one planning-effort bit may be set; zero effort bits selects the
// configured default (see package config, normally FlagMeasure).
type Flag uint32

const (
	// FlagEstimate builds plans fastest, picking a schedule heuristically.
	FlagEstimate Flag = 1 << types.Estimate
	// FlagMeasure times each candidate schedule once. The usual choice
	// for iterative solvers, where the build cost amortizes over many
	// executions.
	FlagMeasure Flag = 1 << types.Measure
	// FlagPatient measures candidates repeatedly.
	FlagPatient Flag = 1 << types.Patient
	// FlagExhaustive measures most thoroughly, for plans that will run
	// longest.
	FlagExhaustive Flag = 1 << types.Exhaustive
)

const rigorMask = FlagEstimate | FlagMeasure | FlagPatient | FlagExhaustive

// rigor resolves the flags to a single planning-effort level.
func (f Flag) rigor() (types.Rigor, error) {
	if unknown := f &^ rigorMask; unknown != 0 {
		return 0, errors.Errorf("unknown flag bits 0x%x", uint32(unknown))
	}
	set := f & rigorMask
	switch bits.OnesCount32(uint32(set)) {
	case 0:
		name := config.Current().Parallelism.Rigor
		r, err := types.RigorString(name)
		if err != nil {
			return 0, errors.Errorf("configured default rigor %q is not a planning-effort level", name)
		}
		return r, nil
	case 1:
		return types.Rigor(bits.TrailingZeros32(uint32(set))), nil
	default:
		return 0, errors.Errorf("conflicting planning-effort flags 0x%x: set at most one of FlagEstimate, FlagMeasure, FlagPatient, FlagExhaustive", uint32(set))
	}
}
