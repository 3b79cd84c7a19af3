// Package pencil implements the distributed block-transpose primitive a
// parallel spectral PDE solver uses to move array data between two dual
// block-distributions of a process mesh.
//
// Among its pieces:
//
//   - Transpose: a plan pair (scatter and its inverse, gather) built once
//     per (shape, blocks, communicator) configuration and executed in
//     place on caller-supplied buffers any number of times.
//   - NewBuffer: aligned, zero-initialized storage from the engine's own
//     allocator, required for execution.
//   - InitLibrary: one-time process-wide setup that must precede plan
//     construction.
//
// The engine moves data verbatim; basis transforms, fields and solver
// assembly live above it. See packages comm and layout for the
// communicator abstraction and the block-distribution accounting those
// layers build on.
package pencil

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/spectralgo/pencil/buffer"
	"github.com/spectralgo/pencil/config"
	"github.com/spectralgo/pencil/internal/plan"
)

var (
	initOnce      sync.Once
	initCompleted atomic.Bool
)

// InitLibrary performs the process-wide setup of the transpose engine:
// it installs the configuration file named by $PENCIL_CONFIG (if set) and
// calibrates the planner's trial timer.
//
// It must run before the first Transpose is built in any multi-process
// run; program startup sequencing normally guarantees this, and New fails
// otherwise. Repeated invocations are safe no-ops.
func InitLibrary() {
	initOnce.Do(func() {
		if path := os.Getenv("PENCIL_CONFIG"); path != "" {
			if err := config.InstallFile(path); err != nil {
				klog.Warningf("pencil: ignoring $PENCIL_CONFIG: %v", err)
			}
		}
		plan.CalibrateTimer()
		initCompleted.Store(true)
	})
}

// Initialized reports whether InitLibrary has completed.
func Initialized() bool { return initCompleted.Load() }

// NewBuffer allocates count aligned, zero-initialized float64 words from
// the engine's allocator. Buffers passed to Gather or Scatter must come
// from here so that alignment and release stay paired with the allocator
// that produced them; release with Buffer.Free, never through anything
// else. Ownership is exclusively the caller's. count may be 0.
func NewBuffer(count int) (*buffer.Buffer, error) {
	b, err := buffer.New(count)
	if err != nil {
		return nil, errors.Wrap(ErrResourceExhausted, err.Error())
	}
	return b, nil
}
