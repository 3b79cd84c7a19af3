package comm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessMesh_Validation(t *testing.T) {
	_, err := NewProcessMesh("m", []int{2, 3}, []string{"x"})
	require.Error(t, err)

	_, err = NewProcessMesh("m", nil, nil)
	require.Error(t, err)

	_, err = NewProcessMesh("bad name", []int{2}, []string{"x"})
	require.Error(t, err)

	_, err = NewProcessMesh("m", []int{2, 2}, []string{"x", "x"})
	require.Error(t, err)

	_, err = NewProcessMesh("m", []int{2, 0}, []string{"x", "y"})
	require.Error(t, err)

	m, err := NewProcessMesh("solver_mesh", []int{2, 3}, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, 6, m.Size())
	assert.Equal(t, 2, m.NumAxes())
	assert.Equal(t, "ProcessMesh(axesSizes={x: 2, y: 3})", m.String())
}

func TestProcessMesh_Coords(t *testing.T) {
	m, err := NewProcessMesh("m", []int{2, 3}, []string{"x", "y"})
	require.NoError(t, err)

	// Last axis varies fastest.
	wantCoords := [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	for rank, want := range wantCoords {
		coords, err := m.Coords(rank)
		require.NoError(t, err)
		assert.Equal(t, want, coords, "rank %d", rank)
		back, err := m.RankAt(coords)
		require.NoError(t, err)
		assert.Equal(t, rank, back)
	}

	_, err = m.Coords(6)
	require.Error(t, err)
	_, err = m.RankAt([]int{2, 0})
	require.Error(t, err)
	_, err = m.RankAt([]int{0})
	require.Error(t, err)
}

func TestProcessMesh_SubAxis(t *testing.T) {
	m, err := NewProcessMesh("m", []int{2, 2}, []string{"x", "y"})
	require.NoError(t, err)

	err = Run(4, func(c Communicator) error {
		// Ranks sharing an x coordinate form one y-axis group.
		sub, err := m.SubAxis(c, "y")
		if err != nil {
			return err
		}
		if sub.Size() != 2 {
			return errors.Errorf("rank %d: sub-group size = %d, want 2", c.Rank(), sub.Size())
		}
		coords, err := m.Coords(c.Rank())
		if err != nil {
			return err
		}
		if sub.Rank() != coords[1] {
			return errors.Errorf("rank %d: sub-rank = %d, want y coordinate %d", c.Rank(), sub.Rank(), coords[1])
		}
		// Peers in the group must agree on the x coordinate.
		recv := make([]float64, 2)
		sub.Allgather([]float64{float64(coords[0])}, recv)
		for _, x := range recv {
			if int(x) != coords[0] {
				return errors.Errorf("rank %d: y-axis group mixes x coordinates %v", c.Rank(), recv)
			}
		}
		return nil
	})
	require.NoError(t, err)

	_, err = m.SubAxis(Self(), "y")
	require.Error(t, err, "communicator size must match the mesh")
}
