package comm

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// localWorld is the shared state of an in-process group: one buffered
// channel per ordered rank pair. A collective delivers exactly one message
// per pair, so capacity 1 keeps senders from blocking within a round while
// channel FIFO order keeps back-to-back collectives matched up.
type localWorld struct {
	size  int
	pipes [][]chan []float64 // pipes[src][dst]

	splitMu sync.Mutex
	split   *splitOp
}

// splitOp is the rendezvous state of one in-flight Split: the last rank to
// arrive builds every sub-group and wakes the others.
type splitOp struct {
	colors  []int
	keys    []int
	arrived int
	done    chan struct{}
	result  []Communicator // indexed by parent rank
}

// localComm is one rank's endpoint of a localWorld.
type localComm struct {
	world *localWorld
	rank  int
}

// NewLocalGroup wires n ranks together through in-process channels and
// returns their communicators, indexed by rank. It is the reference
// implementation of the Communicator contract, used for single-process
// runs and multi-rank tests; each communicator must be driven by its own
// goroutine (see Run).
func NewLocalGroup(n int) []Communicator {
	if n < 1 {
		panic(fmt.Sprintf("comm: group size must be at least 1, got %d", n))
	}
	w := &localWorld{size: n}
	w.pipes = make([][]chan []float64, n)
	for src := range w.pipes {
		w.pipes[src] = make([]chan []float64, n)
		for dst := range w.pipes[src] {
			if src != dst {
				w.pipes[src][dst] = make(chan []float64, 1)
			}
		}
	}
	comms := make([]Communicator, n)
	for rank := range comms {
		comms[rank] = &localComm{world: w, rank: rank}
	}
	return comms
}

// Run spawns one goroutine per rank of a fresh local group, calls fn with
// that rank's communicator, and waits for all of them. The first non-nil
// error is returned; the remaining ranks still run to completion.
func Run(n int, fn func(c Communicator) error) error {
	comms := NewLocalGroup(n)
	var g errgroup.Group
	for _, c := range comms {
		c := c
		g.Go(func() error { return fn(c) })
	}
	return g.Wait()
}

func (c *localComm) Rank() int { return c.rank }
func (c *localComm) Size() int { return c.world.size }

func (c *localComm) Barrier() {
	w := c.world
	for dst := 0; dst < w.size; dst++ {
		if dst != c.rank {
			w.pipes[c.rank][dst] <- nil
		}
	}
	for src := 0; src < w.size; src++ {
		if src != c.rank {
			if token := <-w.pipes[src][c.rank]; token != nil {
				panic(fmt.Sprintf("comm: rank %d received data inside a Barrier from rank %d: collective calls out of order", c.rank, src))
			}
		}
	}
}

func (c *localComm) Allgather(send, recv []float64) {
	w := c.world
	n := len(send)
	if len(recv) != w.size*n {
		panic(fmt.Sprintf("comm: Allgather recv has %d elements, want %d", len(recv), w.size*n))
	}
	copy(recv[c.rank*n:(c.rank+1)*n], send)
	for dst := 0; dst < w.size; dst++ {
		if dst == c.rank {
			continue
		}
		out := make([]float64, n)
		copy(out, send)
		w.pipes[c.rank][dst] <- out
	}
	for src := 0; src < w.size; src++ {
		if src == c.rank {
			continue
		}
		chunk := <-w.pipes[src][c.rank]
		if len(chunk) != n {
			panic(fmt.Sprintf("comm: rank %d received %d elements in Allgather from rank %d, want %d", c.rank, len(chunk), src, n))
		}
		copy(recv[src*n:(src+1)*n], chunk)
	}
}

func (c *localComm) AllToAllv(send []float64, sendCounts, sendDispls []int, recv []float64, recvCounts, recvDispls []int) {
	w := c.world
	if len(sendCounts) != w.size || len(recvCounts) != w.size {
		panic(fmt.Sprintf("comm: AllToAllv counts sized for %d/%d ranks, group has %d", len(sendCounts), len(recvCounts), w.size))
	}
	for dst := 0; dst < w.size; dst++ {
		chunk := send[sendDispls[dst] : sendDispls[dst]+sendCounts[dst]]
		if dst == c.rank {
			copy(recv[recvDispls[dst]:recvDispls[dst]+recvCounts[dst]], chunk)
			continue
		}
		out := make([]float64, len(chunk))
		copy(out, chunk)
		w.pipes[c.rank][dst] <- out
	}
	for src := 0; src < w.size; src++ {
		if src == c.rank {
			continue
		}
		chunk := <-w.pipes[src][c.rank]
		if len(chunk) != recvCounts[src] {
			panic(fmt.Sprintf("comm: rank %d received %d elements from rank %d, expected %d: mismatched AllToAllv counts", c.rank, len(chunk), src, recvCounts[src]))
		}
		copy(recv[recvDispls[src]:recvDispls[src]+recvCounts[src]], chunk)
	}
}

func (c *localComm) Split(color, key int) Communicator {
	w := c.world
	w.splitMu.Lock()
	if w.split == nil {
		w.split = &splitOp{
			colors: make([]int, w.size),
			keys:   make([]int, w.size),
			done:   make(chan struct{}),
			result: make([]Communicator, w.size),
		}
	}
	op := w.split
	op.colors[c.rank] = color
	op.keys[c.rank] = key
	op.arrived++
	if op.arrived == w.size {
		buildSubgroups(op, w.size)
		w.split = nil
		close(op.done)
	}
	w.splitMu.Unlock()
	<-op.done
	return op.result[c.rank]
}

// buildSubgroups creates one local group per distinct non-negative color
// and assigns members their sub-rank by (key, parent rank) order.
func buildSubgroups(op *splitOp, size int) {
	byColor := make(map[int][]int)
	for rank := 0; rank < size; rank++ {
		if op.colors[rank] < 0 {
			continue
		}
		byColor[op.colors[rank]] = append(byColor[op.colors[rank]], rank)
	}
	for _, members := range byColor {
		sort.SliceStable(members, func(i, j int) bool {
			return op.keys[members[i]] < op.keys[members[j]]
		})
		sub := NewLocalGroup(len(members))
		for subRank, rank := range members {
			op.result[rank] = sub[subRank]
		}
	}
}
