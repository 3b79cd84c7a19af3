// Package buffer provides the aligned float64 storage the transpose engine
// executes on, modelled after mm_malloc-style paired allocate/free.
//
// Vectorized execution paths assume Alignment-byte aligned data, so buffers
// handed to the engine must come from this package, and their release must
// route back through Buffer.Free rather than being left to an arbitrary
// memory manager. The allocator keeps counters so tests can verify that
// every buffer acquired on a failure path was released.
package buffer

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Alignment is the byte alignment of every allocation, in bytes.
const Alignment = 64

const alignWords = Alignment / 8

// Allocator hands out aligned, zero-filled buffers and tracks them.
type Allocator struct {
	allocs    atomic.Int64
	frees     atomic.Int64
	liveWords atomic.Int64
}

// Stats is a snapshot of an allocator's counters.
type Stats struct {
	Allocs    int64
	Frees     int64
	LiveWords int64
}

// Buffer is count float64 words of aligned, caller-owned storage.
// Data aliases the aligned region; the backing array stays private.
type Buffer struct {
	Data  []float64
	alloc *Allocator
	freed bool
}

var defaultAllocator Allocator

// Default returns the process-wide allocator used by New.
func Default() *Allocator { return &defaultAllocator }

// New allocates count aligned float64 words from the default allocator.
func New(count int) (*Buffer, error) {
	return defaultAllocator.New(count)
}

// New allocates count aligned, zero-filled float64 words.
// count may be 0, yielding a valid empty buffer.
func (a *Allocator) New(count int) (*Buffer, error) {
	if count < 0 {
		return nil, errors.Errorf("buffer: cannot allocate %d words", count)
	}
	// Over-allocate by one alignment unit and slice at the first aligned
	// word. make zero-fills.
	raw := make([]float64, count+alignWords)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := 0
	if rem := addr % Alignment; rem != 0 {
		off = int((Alignment - rem) / 8)
	}
	a.allocs.Add(1)
	a.liveWords.Add(int64(count))
	return &Buffer{
		Data:  raw[off : off+count : off+count],
		alloc: a,
	}, nil
}

// Free returns the buffer to its allocator. Safe to call more than once;
// only the first call counts.
func (b *Buffer) Free() {
	if b == nil || b.freed {
		return
	}
	b.freed = true
	b.alloc.frees.Add(1)
	b.alloc.liveWords.Add(-int64(len(b.Data)))
	b.Data = nil
}

// Stats returns a snapshot of the allocator's counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		Allocs:    a.allocs.Load(),
		Frees:     a.frees.Load(),
		LiveWords: a.liveWords.Load(),
	}
}
