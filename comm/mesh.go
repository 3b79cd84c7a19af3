package comm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/spectralgo/pencil/internal/utils"
)

// ProcessMesh arranges the ranks of a communicator into a named cartesian
// grid, the way a multi-dimensional spectral solver distributes its array
// dimensions. Rank 0 sits at the origin and the last axis varies fastest.
type ProcessMesh struct {
	name string

	// axesNames are the names of the mesh axes.
	axesNames []string

	// axesSizes defines the number of ranks along each mesh axis.
	axesSizes []int

	// nameToAxis maps axis names to their index.
	nameToAxis map[string]int

	// size is the total number of ranks in the mesh.
	size int
}

// NewProcessMesh creates a cartesian arrangement of ranks.
//
//   - name: the name of the mesh, a valid identifier (letters, digits and
//     underscores, see utils.NormalizeIdentifier).
//   - axesSizes: the number of ranks along each mesh axis, one value per axis.
//   - axesNames: the names of the mesh axes, one per axis, also valid
//     identifiers.
func NewProcessMesh(name string, axesSizes []int, axesNames []string) (*ProcessMesh, error) {
	if len(axesSizes) != len(axesNames) {
		return nil, errors.Errorf("axesSizes and axesNames must have the same length, got %d and %d",
			len(axesSizes), len(axesNames))
	}
	if len(axesSizes) == 0 {
		return nil, errors.New("ProcessMesh axesSizes cannot be empty")
	}
	if name != utils.NormalizeIdentifier(name) {
		return nil, errors.Errorf("ProcessMesh name %q is not a valid identifier, suggestion %q",
			name, utils.NormalizeIdentifier(name))
	}

	axesNames = slices.Clone(axesNames)
	size := 1
	nameToAxis := make(map[string]int, len(axesSizes))
	seen := utils.MakeSet[string](len(axesNames))
	for i, axisName := range axesNames {
		if axisName == "" {
			return nil, errors.Errorf("ProcessMesh axis name at index %d cannot be empty", i)
		}
		if axisName != utils.NormalizeIdentifier(axisName) {
			return nil, errors.Errorf("ProcessMesh axis name %q at index %d is not a valid identifier, suggestion %q",
				axisName, i, utils.NormalizeIdentifier(axisName))
		}
		if seen.Has(axisName) {
			return nil, errors.Errorf("ProcessMesh axis name %q is duplicated", axisName)
		}
		seen.Insert(axisName)
		nameToAxis[axisName] = i
		if axesSizes[i] < 1 {
			return nil, errors.Errorf("ProcessMesh axis %q must have at least 1 rank, got %d",
				axisName, axesSizes[i])
		}
		size *= axesSizes[i]
	}

	return &ProcessMesh{
		name:       name,
		axesNames:  axesNames,
		axesSizes:  slices.Clone(axesSizes),
		nameToAxis: nameToAxis,
		size:       size,
	}, nil
}

func (m *ProcessMesh) Name() string {
	return m.name
}

// Size returns the total number of ranks in the mesh.
func (m *ProcessMesh) Size() int {
	return m.size
}

// NumAxes returns the number of axes in the mesh.
func (m *ProcessMesh) NumAxes() int {
	return len(m.axesSizes)
}

// AxesSizes returns a copy of the mesh's axis sizes.
func (m *ProcessMesh) AxesSizes() []int {
	return slices.Clone(m.axesSizes)
}

// AxisSize returns the number of ranks along the given mesh axis.
func (m *ProcessMesh) AxisSize(axisName string) (int, error) {
	idx, found := m.nameToAxis[axisName]
	if !found {
		return 0, errors.Errorf("mesh axis %q not found", axisName)
	}
	return m.axesSizes[idx], nil
}

// AxisIndex returns the index of the named axis.
func (m *ProcessMesh) AxisIndex(axisName string) (int, error) {
	idx, found := m.nameToAxis[axisName]
	if !found {
		return 0, errors.Errorf("mesh axis %q not found", axisName)
	}
	return idx, nil
}

// Coords returns the cartesian coordinates of a rank, one value per axis.
func (m *ProcessMesh) Coords(rank int) ([]int, error) {
	if rank < 0 || rank >= m.size {
		return nil, errors.Errorf("rank %d outside mesh of %d ranks", rank, m.size)
	}
	coords := make([]int, len(m.axesSizes))
	for axis := len(m.axesSizes) - 1; axis >= 0; axis-- {
		coords[axis] = rank % m.axesSizes[axis]
		rank /= m.axesSizes[axis]
	}
	return coords, nil
}

// RankAt returns the rank at the given cartesian coordinates.
func (m *ProcessMesh) RankAt(coords []int) (int, error) {
	if len(coords) != len(m.axesSizes) {
		return 0, errors.Errorf("got %d coordinates for a mesh with %d axes", len(coords), len(m.axesSizes))
	}
	rank := 0
	for axis, coord := range coords {
		if coord < 0 || coord >= m.axesSizes[axis] {
			return 0, errors.Errorf("coordinate %d outside axis %q of size %d", coord, m.axesNames[axis], m.axesSizes[axis])
		}
		rank = rank*m.axesSizes[axis] + coord
	}
	return rank, nil
}

// SubAxis builds the sub-communicator of ranks that vary only along the
// named axis: the group a transpose along that axis redistributes across.
// It is collective over c, whose size must match the mesh.
func (m *ProcessMesh) SubAxis(c Communicator, axisName string) (Communicator, error) {
	if c.Size() != m.size {
		return nil, errors.Errorf("communicator has %d ranks, mesh %q needs %d", c.Size(), m.name, m.size)
	}
	axis, err := m.AxisIndex(axisName)
	if err != nil {
		return nil, err
	}
	coords, err := m.Coords(c.Rank())
	if err != nil {
		return nil, err
	}
	// Color by the coordinates with the moving axis removed.
	color := 0
	for i, coord := range coords {
		if i == axis {
			continue
		}
		color = color*m.axesSizes[i] + coord
	}
	return c.Split(color, coords[axis]), nil
}

// String implements the fmt.Stringer interface.
func (m *ProcessMesh) String() string {
	var sb strings.Builder
	sb.WriteString("ProcessMesh(axesSizes={")
	for i, name := range m.axesNames {
		if i > 0 {
			sb.WriteString(", ")
		}
		_, _ = fmt.Fprintf(&sb, "%s: %d", name, m.axesSizes[i])
	}
	sb.WriteString("})")
	return sb.String()
}
