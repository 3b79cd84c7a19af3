package pencil

import (
	"fmt"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralgo/pencil/buffer"
	"github.com/spectralgo/pencil/comm"
	"github.com/spectralgo/pencil/types/dtypes"
)

// value gives every (row, column, component) point a distinct float64 that
// survives a round trip bit-exactly.
func value(i, j, k int) float64 {
	return float64((i*100+j)*10 + k)
}

func TestInitLibrary_Idempotent(t *testing.T) {
	for n := 0; n < 3; n++ {
		InitLibrary()
		assert.True(t, Initialized())
	}
}

func TestTranspose_SingleRank8x8(t *testing.T) {
	InitLibrary()
	tr := must.M1(New(8, 8, 1, 8, 8, dtypes.Float64, comm.Self(), 0))
	defer tr.Free()

	lay := tr.Layout()
	assert.Equal(t, 64, lay.AllocDoubles)
	assert.Equal(t, 8, lay.Local0)
	assert.Equal(t, 8, lay.Local1)
	assert.Equal(t, 0, lay.Start0)
	assert.Equal(t, 0, lay.Start1)

	buf := must.M1(NewBuffer(lay.AllocDoubles))
	defer buf.Free()
	for v := range buf.Data {
		buf.Data[v] = float64(v)
	}

	require.NoError(t, tr.Scatter(buf.Data))
	// Column-distributed layout holds the transposed matrix.
	for j := 0; j < 8; j++ {
		for i := 0; i < 8; i++ {
			require.Equal(t, float64(i*8+j), buf.Data[j*8+i], "transposed element (%d, %d)", i, j)
		}
	}

	require.NoError(t, tr.Gather(buf.Data))
	for v := range buf.Data {
		require.Equal(t, float64(v), buf.Data[v], "element %d after round trip", v)
	}
}

func TestTranspose_RoundTripMultiRank(t *testing.T) {
	InitLibrary()
	for _, tc := range []struct {
		ranks   int
		dtype   dtypes.DType
		n0, n1  int
		howmany int
	}{
		{ranks: 2, dtype: dtypes.Float64, n0: 8, n1: 8, howmany: 1},
		{ranks: 3, dtype: dtypes.Float64, n0: 7, n1: 5, howmany: 2},
		{ranks: 4, dtype: dtypes.Complex128, n0: 6, n1: 9, howmany: 1},
	} {
		name := fmt.Sprintf("%d ranks %s %dx%dx%d", tc.ranks, tc.dtype, tc.n0, tc.n1, tc.howmany)
		t.Run(name, func(t *testing.T) {
			stride := tc.howmany * tc.dtype.Itemsize()
			block0 := (tc.n0 + tc.ranks - 1) / tc.ranks
			block1 := (tc.n1 + tc.ranks - 1) / tc.ranks
			err := comm.Run(tc.ranks, func(c comm.Communicator) error {
				tr, err := New(tc.n0, tc.n1, tc.howmany, block0, block1, tc.dtype, c, FlagEstimate)
				if err != nil {
					return err
				}
				defer tr.Free()
				lay := tr.Layout()

				buf, err := NewBuffer(lay.AllocDoubles)
				if err != nil {
					return err
				}
				defer buf.Free()
				for i := 0; i < lay.Local0; i++ {
					for j := 0; j < tc.n1; j++ {
						for k := 0; k < stride; k++ {
							buf.Data[(i*tc.n1+j)*stride+k] = value(lay.Start0+i, j, k)
						}
					}
				}

				if err := tr.Scatter(buf.Data); err != nil {
					return err
				}
				for jj := 0; jj < lay.Local1; jj++ {
					for i := 0; i < tc.n0; i++ {
						for k := 0; k < stride; k++ {
							got := buf.Data[(jj*tc.n0+i)*stride+k]
							want := value(i, lay.Start1+jj, k)
							if got != want {
								return errors.Errorf("rank %d: scattered element (%d, %d, %d) = %v, want %v",
									c.Rank(), i, lay.Start1+jj, k, got, want)
							}
						}
					}
				}

				if err := tr.Gather(buf.Data); err != nil {
					return err
				}
				for i := 0; i < lay.Local0; i++ {
					for j := 0; j < tc.n1; j++ {
						for k := 0; k < stride; k++ {
							got := buf.Data[(i*tc.n1+j)*stride+k]
							want := value(lay.Start0+i, j, k)
							if got != want {
								return errors.Errorf("rank %d: element (%d, %d, %d) = %v after round trip, want %v",
									c.Rank(), lay.Start0+i, j, k, got, want)
							}
						}
					}
				}
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestTranspose_ZeroRowRank(t *testing.T) {
	InitLibrary()
	// 3 ranks with block 2 over 4 rows: rank 2 owns nothing on either side.
	err := comm.Run(3, func(c comm.Communicator) error {
		tr, err := New(4, 4, 1, 2, 2, dtypes.Float64, c, FlagEstimate)
		if err != nil {
			return err
		}
		defer tr.Free()
		lay := tr.Layout()
		if c.Rank() == 2 && (lay.Local0 != 0 || lay.Local1 != 0 || lay.AllocDoubles != 0) {
			return errors.Errorf("rank 2 should own nothing, got %+v", lay)
		}
		buf, err := NewBuffer(lay.AllocDoubles)
		if err != nil {
			return err
		}
		defer buf.Free()
		for i := 0; i < lay.Local0; i++ {
			for j := 0; j < 4; j++ {
				buf.Data[i*4+j] = value(lay.Start0+i, j, 0)
			}
		}
		if err := tr.Scatter(buf.Data); err != nil {
			return err
		}
		if err := tr.Gather(buf.Data); err != nil {
			return err
		}
		for i := 0; i < lay.Local0; i++ {
			for j := 0; j < 4; j++ {
				if buf.Data[i*4+j] != value(lay.Start0+i, j, 0) {
					return errors.Errorf("rank %d: element (%d, %d) corrupted", c.Rank(), lay.Start0+i, j)
				}
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_UnsupportedDType(t *testing.T) {
	InitLibrary()
	before := buffer.Default().Stats()
	tr, err := New(8, 8, 1, 8, 8, dtypes.Invalid, comm.Self(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
	assert.Nil(t, tr)
	after := buffer.Default().Stats()
	assert.Equal(t, before.Allocs, after.Allocs, "dtype rejection must not allocate")
}

func TestNew_RejectedBlocks(t *testing.T) {
	InitLibrary()
	before := buffer.Default().Stats()
	// A single rank with block 2 covers only 2 of 8 rows.
	tr, err := New(8, 8, 1, 2, 8, dtypes.Float64, comm.Self(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlanCreation), "got %v", err)
	assert.Nil(t, tr)
	after := buffer.Default().Stats()
	assert.Equal(t, before.LiveWords, after.LiveWords, "failed construction must not leak buffers")
	assert.Equal(t, after.Allocs-before.Allocs, after.Frees-before.Frees, "every allocation on the failure path must be freed")
}

func TestNew_ConflictingFlags(t *testing.T) {
	InitLibrary()
	_, err := New(8, 8, 1, 8, 8, dtypes.Float64, comm.Self(), FlagEstimate|FlagExhaustive)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
}

func TestTranspose_UseAfterFree(t *testing.T) {
	InitLibrary()
	tr := must.M1(New(4, 4, 1, 4, 4, dtypes.Float64, comm.Self(), 0))
	buf := must.M1(NewBuffer(tr.Layout().AllocDoubles))
	defer buf.Free()

	tr.Free()
	tr.Free() // second Free is a no-op

	err := tr.Scatter(buf.Data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState), "got %v", err)
	err = tr.Gather(buf.Data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState), "got %v", err)
}

func TestTranspose_ShortBuffer(t *testing.T) {
	InitLibrary()
	tr := must.M1(New(4, 4, 1, 4, 4, dtypes.Float64, comm.Self(), 0))
	defer tr.Free()
	short := make([]float64, tr.Layout().AllocDoubles-1)
	require.Error(t, tr.Scatter(short))
	require.Error(t, tr.Gather(short))
}
