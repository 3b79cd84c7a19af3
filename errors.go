package pencil

import "github.com/pkg/errors"

// Sentinel errors classifying every failure the engine reports. Returned
// errors wrap one of these with context; match with errors.Is.
var (
	// ErrConfiguration covers locally detectable bad parameters: an
	// unsupported dtype or malformed planning-effort flags.
	ErrConfiguration = errors.New("invalid transpose configuration")

	// ErrPlanCreation means the planner rejected the (shape, blocks,
	// communicator) combination. Fatal and non-retryable for that
	// configuration; no plan or scratch resource is retained.
	ErrPlanCreation = errors.New("transpose plan creation failed")

	// ErrResourceExhausted means the aligned allocator could not satisfy
	// a request.
	ErrResourceExhausted = errors.New("buffer allocation failed")

	// ErrInvalidState means an operation was invoked outside the
	// lifecycle state that permits it.
	ErrInvalidState = errors.New("operation invalid in current transpose state")
)
