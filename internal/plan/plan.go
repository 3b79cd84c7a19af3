// Package plan implements the collective, plan-based distributed transpose
// library the public pencil API is built on: the local-size query, plan
// construction against a scratch buffer, and new-array in-place execution.
//
// A Plan embeds a communication schedule (per-peer counts, displacements
// and a staging order) valid only for the (communicator, shape, blocks)
// tuple it was built for. Plans are immutable once built and are executed
// any number of times against caller-supplied buffers.
package plan

import (
	"github.com/pkg/errors"

	"github.com/spectralgo/pencil/buffer"
	"github.com/spectralgo/pencil/comm"
)

// Desc fixes one transpose configuration: the global extents of the two
// distributed dimensions, the interleaved component multiplicity, the
// storage words per component (1 for real, 2 for complex-as-paired-real),
// and the distribution block sizes for each side.
type Desc struct {
	N0, N1   int
	Howmany  int
	Itemsize int
	Block0   int
	Block1   int
}

// Stride returns the number of float64 words that travel together per
// (i, j) point of the global array.
func (d Desc) Stride() int { return d.Howmany * d.Itemsize }

// Layout is one rank's partition in both distributed layouts, plus the
// buffer capacity the collective algorithm needs.
type Layout struct {
	// AllocDoubles is the minimum buffer capacity, in float64 words,
	// accepted by Execute. It covers the larger of the two layouts.
	AllocDoubles int

	// Local0, Start0: this rank's row extent and offset along dimension 0
	// in the row-distributed layout.
	Local0, Start0 int

	// Local1, Start1: the same along dimension 1 in the column-distributed
	// layout.
	Local1, Start1 int
}

// Direction selects which way a plan moves data between the two layouts.
type Direction int

//go:generate go tool enumer -type=Direction plan.go

const (
	// Scatter moves row-distributed data (Local0 rows of N1 columns) to
	// the column-distributed layout (Local1 rows of N0 columns).
	Scatter Direction = iota
	// Gather is the exact inverse of Scatter.
	Gather
)

// Plan is one direction's communication schedule, fixed at construction.
type Plan struct {
	dir Direction
	d   Desc
	c   comm.Communicator
	lay Layout

	// Block partitions of the two distributed dimensions, per rank.
	rowStarts, rowCounts []int
	colStarts, colCounts []int

	// order is the peer staging order chosen by the builder; counts and
	// displacements are indexed by rank and already reflect it.
	order      []int
	sendCounts []int
	sendDispls []int
	recvCounts []int
	recvDispls []int

	// Staging buffers owned by the plan, released by Free. These are not
	// the planning scratch, which the builder never retains.
	sendBuf, recvBuf *buffer.Buffer

	freed bool
}

// newPlan assembles the schedule for one direction. The order slice is
// shared with the caller and must not be mutated afterwards.
func newPlan(dir Direction, d Desc, lay Layout, order []int, c comm.Communicator) (*Plan, error) {
	size := c.Size()
	stride := d.Stride()
	p := &Plan{
		dir:        dir,
		d:          d,
		c:          c,
		lay:        lay,
		order:      order,
		sendCounts: make([]int, size),
		sendDispls: make([]int, size),
		recvCounts: make([]int, size),
		recvDispls: make([]int, size),
	}
	p.rowStarts, p.rowCounts = blockPartition(d.N0, d.Block0, size)
	p.colStarts, p.colCounts = blockPartition(d.N1, d.Block1, size)

	for q := 0; q < size; q++ {
		switch dir {
		case Scatter:
			// To q: my rows restricted to q's columns.
			p.sendCounts[q] = lay.Local0 * p.colCounts[q] * stride
			// From q: q's rows restricted to my columns.
			p.recvCounts[q] = p.rowCounts[q] * lay.Local1 * stride
		case Gather:
			p.sendCounts[q] = lay.Local1 * p.rowCounts[q] * stride
			p.recvCounts[q] = p.colCounts[q] * lay.Local0 * stride
		}
	}
	sendTotal, recvTotal := 0, 0
	for _, q := range order {
		p.sendDispls[q] = sendTotal
		sendTotal += p.sendCounts[q]
		p.recvDispls[q] = recvTotal
		recvTotal += p.recvCounts[q]
	}

	var err error
	p.sendBuf, err = buffer.New(sendTotal)
	if err != nil {
		return nil, errors.WithMessage(err, "allocating plan send staging")
	}
	p.recvBuf, err = buffer.New(recvTotal)
	if err != nil {
		p.sendBuf.Free()
		return nil, errors.WithMessage(err, "allocating plan recv staging")
	}
	return p, nil
}

// Execute runs the plan's schedule in place on buf: the transposed layout
// overwrites the input layout in the same storage. Collective; buf must
// hold at least Layout.AllocDoubles words.
func (p *Plan) Execute(buf []float64) error {
	if p.freed {
		return errors.Errorf("%s plan already freed", p.dir)
	}
	if len(buf) < p.lay.AllocDoubles {
		return errors.Errorf("%s plan needs at least %d doubles, buffer has %d",
			p.dir, p.lay.AllocDoubles, len(buf))
	}
	p.pack(buf)
	p.c.AllToAllv(p.sendBuf.Data, p.sendCounts, p.sendDispls, p.recvBuf.Data, p.recvCounts, p.recvDispls)
	p.unpack(buf)
	return nil
}

// pack copies buf's current layout into the send staging buffer, one
// contiguous column (or row) band per peer.
func (p *Plan) pack(buf []float64) {
	stride := p.d.Stride()
	switch p.dir {
	case Scatter:
		// Input: Local0 rows of N1 columns.
		for _, q := range p.order {
			off := p.sendDispls[q]
			w := p.colCounts[q] * stride
			for i := 0; i < p.lay.Local0; i++ {
				src := (i*p.d.N1 + p.colStarts[q]) * stride
				copy(p.sendBuf.Data[off:off+w], buf[src:src+w])
				off += w
			}
		}
	case Gather:
		// Input: Local1 rows of N0 columns.
		for _, q := range p.order {
			off := p.sendDispls[q]
			w := p.rowCounts[q] * stride
			for j := 0; j < p.lay.Local1; j++ {
				src := (j*p.d.N0 + p.rowStarts[q]) * stride
				copy(p.sendBuf.Data[off:off+w], buf[src:src+w])
				off += w
			}
		}
	}
}

// unpack scatters the received chunks into buf in the destination layout.
// The chunk from peer q keeps q's packing order, so the receive side walks
// it element-wise and lands each stride-sized point at its transposed
// position.
func (p *Plan) unpack(buf []float64) {
	stride := p.d.Stride()
	switch p.dir {
	case Scatter:
		// Output: Local1 rows of N0 columns.
		for _, src := range p.order {
			off := p.recvDispls[src]
			for i := 0; i < p.rowCounts[src]; i++ {
				gi := p.rowStarts[src] + i
				for j := 0; j < p.lay.Local1; j++ {
					dst := (j*p.d.N0 + gi) * stride
					copy(buf[dst:dst+stride], p.recvBuf.Data[off:off+stride])
					off += stride
				}
			}
		}
	case Gather:
		// Output: Local0 rows of N1 columns.
		for _, src := range p.order {
			off := p.recvDispls[src]
			for j := 0; j < p.colCounts[src]; j++ {
				gj := p.colStarts[src] + j
				for i := 0; i < p.lay.Local0; i++ {
					dst := (i*p.d.N1 + gj) * stride
					copy(buf[dst:dst+stride], p.recvBuf.Data[off:off+stride])
					off += stride
				}
			}
		}
	}
}

// Direction returns which way the plan moves data.
func (p *Plan) Direction() Direction { return p.dir }

// Free releases the plan's staging buffers. Safe to call more than once.
func (p *Plan) Free() {
	if p == nil || p.freed {
		return
	}
	p.freed = true
	p.sendBuf.Free()
	p.recvBuf.Free()
}
