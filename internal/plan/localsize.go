package plan

import (
	"github.com/pkg/errors"

	"github.com/spectralgo/pencil/comm"
)

// blockRange returns the contiguous chunk of n elements that rank owns
// under a fixed block distribution. Ranks past the last partial block own
// zero elements.
func blockRange(n, block, rank int) (start, count int) {
	start = rank * block
	if start > n {
		start = n
	}
	end := start + block
	if end > n {
		end = n
	}
	return start, end - start
}

// blockPartition evaluates blockRange for every rank in the group.
func blockPartition(n, block, size int) (starts, counts []int) {
	starts = make([]int, size)
	counts = make([]int, size)
	for rank := 0; rank < size; rank++ {
		starts[rank], counts[rank] = blockRange(n, block, rank)
	}
	return starts, counts
}

// Validate applies the fail-fast checks on a transpose configuration for a
// group of the given size. Ranks owning zero rows are legal; rows owned by
// no rank are not.
func (d Desc) Validate(size int) error {
	if d.N0 < 1 || d.N1 < 1 {
		return errors.Errorf("global extents must be positive, got %dx%d", d.N0, d.N1)
	}
	if d.Howmany < 1 {
		return errors.Errorf("howmany must be positive, got %d", d.Howmany)
	}
	if d.Itemsize != 1 && d.Itemsize != 2 {
		return errors.Errorf("itemsize must be 1 (real) or 2 (paired-real complex), got %d", d.Itemsize)
	}
	if d.Block0 < 1 || d.Block1 < 1 {
		return errors.Errorf("block sizes must be positive, got (%d, %d)", d.Block0, d.Block1)
	}
	if d.Block0*size < d.N0 {
		return errors.Errorf("block0=%d over %d ranks covers only %d of %d rows", d.Block0, size, d.Block0*size, d.N0)
	}
	if d.Block1*size < d.N1 {
		return errors.Errorf("block1=%d over %d ranks covers only %d of %d columns", d.Block1, size, d.Block1*size, d.N1)
	}
	return nil
}

// LocalSize computes this rank's partition in both layouts and the padded
// buffer capacity the transpose needs. Local-only: it performs no
// communication, but every rank must pass identical parameters.
func LocalSize(d Desc, c comm.Communicator) (Layout, error) {
	if err := d.Validate(c.Size()); err != nil {
		return Layout{}, err
	}
	start0, local0 := blockRange(d.N0, d.Block0, c.Rank())
	start1, local1 := blockRange(d.N1, d.Block1, c.Rank())
	alloc := local0 * d.N1
	if transposed := local1 * d.N0; transposed > alloc {
		alloc = transposed
	}
	return Layout{
		AllocDoubles: alloc * d.Stride(),
		Local0:       local0,
		Start0:       start0,
		Local1:       local1,
		Start1:       start1,
	}, nil
}
