package pencil

import (
	"github.com/pkg/errors"

	"github.com/spectralgo/pencil/buffer"
	"github.com/spectralgo/pencil/comm"
	"github.com/spectralgo/pencil/config"
	"github.com/spectralgo/pencil/internal/plan"
	"github.com/spectralgo/pencil/types/dtypes"
)

// state tracks the Transpose lifecycle: plans are built exactly once at
// construction and released exactly once by Free.
type state int

const (
	stateUninitialized state = iota
	statePlansBuilt
	stateDestroyed
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case statePlansBuilt:
		return "plans-built"
	case stateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// LocalLayout is this rank's partition in both distributed layouts, fixed
// at construction. The domain machinery above the engine uses it to size
// and address its own arrays.
type LocalLayout struct {
	// AllocDoubles is the minimum capacity, in float64 words, of any
	// buffer passed to Gather or Scatter. It may exceed the naive local
	// product because the collective algorithm needs room for both
	// layouts.
	AllocDoubles int

	// Local0 and Start0 are this rank's row extent and offset along
	// dimension 0 in the row-distributed layout. Local0 may be zero when
	// the blocks do not divide the group size evenly.
	Local0, Start0 int

	// Local1 and Start1 are the same along dimension 1 in the
	// column-distributed layout.
	Local1, Start1 int
}

// Transpose moves a block-distributed global array between its two dual
// layouts: row-distributed (each rank owns Local0 rows of n1 columns) and
// column-distributed (Local1 rows of n0 columns, transposed storage).
//
// All ranks sharing the communicator must construct it with identical
// parameters and must call Scatter/Gather in matching order; this is a
// caller obligation that cannot be checked rank-locally. A Transpose must
// not be driven concurrently from multiple goroutines without external
// locking.
type Transpose struct {
	c     comm.Communicator
	dtype dtypes.DType
	lay   LocalLayout

	scatter *plan.Plan
	gather  *plan.Plan

	// syncTransposes inserts a barrier before each execution
	// (config parallelism.sync-transposes).
	syncTransposes bool

	state state
}

// New builds the plan pair for one transpose configuration.
//
//   - n0, n1: global extents of the two distributed dimensions.
//   - howmany: interleaved component multiplicity transposed together.
//   - block0, block1: distribution block sizes for each side.
//   - dtype: Float64 or Complex128 (complex values travel as paired reals).
//   - c: the communicator the plans are scoped to.
//   - flags: planning-effort selection, 0 for the configured default.
//
// Construction is collective: every rank in c must call New with identical
// parameters. The planner builds both plans against a transient scratch
// buffer of exactly AllocDoubles words, released before New returns. On
// error the returned object is nil and nothing is retained.
func New(n0, n1, howmany, block0, block1 int, dtype dtypes.DType, c comm.Communicator, flags Flag) (*Transpose, error) {
	if !Initialized() {
		return nil, errors.Wrap(ErrInvalidState, "InitLibrary must run before plans are built")
	}
	itemsize := dtype.Itemsize()
	if itemsize == 0 {
		return nil, errors.Wrapf(ErrConfiguration, "dtype %s is not supported: want Float64 or Complex128", dtype)
	}
	rigor, err := flags.rigor()
	if err != nil {
		return nil, errors.Wrap(ErrConfiguration, err.Error())
	}

	d := plan.Desc{N0: n0, N1: n1, Howmany: howmany, Itemsize: itemsize, Block0: block0, Block1: block1}
	lay, err := plan.LocalSize(d, c)
	if err != nil {
		return nil, errors.Wrap(ErrPlanCreation, err.Error())
	}
	scratch, err := buffer.New(lay.AllocDoubles)
	if err != nil {
		return nil, errors.Wrap(ErrResourceExhausted, err.Error())
	}
	// The scratch only satisfies the planner's interface; it is released
	// on every exit path and never reused at runtime.
	defer scratch.Free()

	scatterPlan, gatherPlan, err := plan.NewPair(d, scratch.Data, rigor, c)
	if err != nil {
		return nil, errors.Wrap(ErrPlanCreation, err.Error())
	}

	return &Transpose{
		c:     c,
		dtype: dtype,
		lay: LocalLayout{
			AllocDoubles: lay.AllocDoubles,
			Local0:       lay.Local0,
			Start0:       lay.Start0,
			Local1:       lay.Local1,
			Start1:       lay.Start1,
		},
		scatter:        scatterPlan,
		gather:         gatherPlan,
		syncTransposes: config.Current().Parallelism.SyncTransposes,
		state:          statePlansBuilt,
	}, nil
}

// Layout returns this rank's partition and required buffer capacity.
func (t *Transpose) Layout() LocalLayout { return t.lay }

// DType returns the element type the transpose was built for.
func (t *Transpose) DType() dtypes.DType { return t.dtype }

// Scatter executes the row-distributed to column-distributed plan in place
// on buf. Collective; every rank must call Scatter synchronously. The
// buffer must hold at least Layout().AllocDoubles words and its contents
// must already be in the row-distributed layout.
func (t *Transpose) Scatter(buf []float64) error {
	if t.state != statePlansBuilt {
		return errors.Wrapf(ErrInvalidState, "Scatter on a %s transpose", t.state)
	}
	if t.syncTransposes {
		t.c.Barrier()
	}
	return t.scatter.Execute(buf)
}

// Gather executes the column-distributed to row-distributed plan in place
// on buf: the exact inverse of Scatter.
func (t *Transpose) Gather(buf []float64) error {
	if t.state != statePlansBuilt {
		return errors.Wrapf(ErrInvalidState, "Gather on a %s transpose", t.state)
	}
	if t.syncTransposes {
		t.c.Barrier()
	}
	return t.gather.Execute(buf)
}

// Free releases both plans. Calling Free again, or on a transpose that
// never finished construction, is a no-op.
func (t *Transpose) Free() {
	if t == nil || t.state != statePlansBuilt {
		return
	}
	t.scatter.Free()
	t.gather.Free()
	t.state = stateDestroyed
}
