package plan

import (
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/spectralgo/pencil/comm"
	"github.com/spectralgo/pencil/types"
)

// timerOverhead is the measured cost of one elapsed-time sample, set by
// CalibrateTimer and subtracted from candidate timings.
var timerOverhead float64

// CalibrateTimer measures the clock sampling overhead once per process.
// InitLibrary calls it before the first plan is built.
func CalibrateTimer() {
	best := 0.0
	for k := 0; k < 16; k++ {
		start := time.Now()
		elapsed := time.Since(start).Seconds()
		if k == 0 || elapsed < best {
			best = elapsed
		}
	}
	timerOverhead = best
}

// NewPair builds the scatter and gather plans for one configuration.
//
// Collective: every rank in c must call it with identical Desc and rigor.
// The scratch buffer must hold at least Layout.AllocDoubles words; it is
// only used to time candidate schedules (its contents are clobbered) and
// is never retained. On error, nothing is retained either.
func NewPair(d Desc, scratch []float64, rigor types.Rigor, c comm.Communicator) (scatter, gather *Plan, err error) {
	lay, err := LocalSize(d, c)
	if err != nil {
		return nil, nil, err
	}
	if len(scratch) < lay.AllocDoubles {
		return nil, nil, errors.Errorf("planning scratch has %d doubles, need %d", len(scratch), lay.AllocDoubles)
	}
	c.Barrier()
	klog.V(2).Infof("building transpose plan pair for (n0, n1, howmany, blocks, rigor, ranks) = (%d, %d, %d, (%d, %d), %s, %d)",
		d.N0, d.N1, d.Howmany, d.Block0, d.Block1, rigor, c.Size())

	order, err := chooseOrder(d, lay, rigor, scratch, c)
	if err != nil {
		return nil, nil, err
	}
	scatter, err = newPlan(Scatter, d, lay, order, c)
	if err != nil {
		return nil, nil, err
	}
	gather, err = newPlan(Gather, d, lay, order, c)
	if err != nil {
		scatter.Free()
		return nil, nil, err
	}
	return scatter, gather, nil
}

// candidateOrders lists the peer staging orders the builder considers.
// The list must have the same length on every rank.
func candidateOrders(rank, size int) [][]int {
	natural := make([]int, size)
	rotated := make([]int, size)
	for i := 0; i < size; i++ {
		natural[i] = i
		rotated[i] = (rank + i) % size
	}
	orders := [][]int{natural, rotated}
	if size&(size-1) == 0 {
		// Pairwise exchange order, only well formed for power-of-two groups.
		pairwise := make([]int, size)
		for i := 0; i < size; i++ {
			pairwise[i] = rank ^ i
		}
		orders = append(orders, pairwise)
	}
	return orders
}

// chooseOrder picks the staging order for the plan pair. Estimate decides
// heuristically; higher rigor times each candidate on the scratch buffer,
// then the per-rank timings are allgathered and summed so every rank
// settles on the same candidate.
func chooseOrder(d Desc, lay Layout, rigor types.Rigor, scratch []float64, c comm.Communicator) ([]int, error) {
	orders := candidateOrders(c.Rank(), c.Size())
	trials := rigor.Trials()
	if trials == 0 || c.Size() == 1 {
		return orders[1], nil // rank-rotated: spreads load without measuring
	}

	timings := make([]float64, len(orders))
	for ci, order := range orders {
		trial, err := newPlan(Scatter, d, lay, order, c)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		for t := 0; t < trials; t++ {
			if err := trial.Execute(scratch); err != nil {
				trial.Free()
				return nil, err
			}
		}
		timings[ci] = time.Since(start).Seconds() - timerOverhead
		trial.Free()
	}

	all := make([]float64, len(orders)*c.Size())
	c.Allgather(timings, all)
	best := 0
	var bestTotal float64
	for ci := range orders {
		total := 0.0
		for rank := 0; rank < c.Size(); rank++ {
			total += all[rank*len(orders)+ci]
		}
		if ci == 0 || total < bestTotal {
			best, bestTotal = ci, total
		}
	}
	klog.V(2).Infof("transpose planner measured %d candidate schedules over %d trials, picked #%d", len(orders), trials, best)
	return orders[best], nil
}
