// Package layout computes the block-distribution accounting the domain
// machinery above the transpose engine needs: which contiguous chunk of
// each global dimension a mesh coordinate owns.
//
// Dimensions are partitioned into ceil(global/mesh)-sized blocks assigned
// in coordinate order. Trailing coordinates may own a partial block or
// nothing at all when the mesh does not divide the extent evenly.
package layout

import (
	"github.com/pkg/errors"
)

// Extent is the half-open interval [Start, Stop) a coordinate owns along
// one dimension.
type Extent struct {
	Start, Stop int
}

// Decomposition partitions a global shape across a cartesian process mesh.
// Only the first len(Mesh) dimensions are distributed; any remaining
// dimensions of the global shape stay local everywhere.
type Decomposition struct {
	global []int
	mesh   []int
	blocks []int
}

// NewDecomposition validates the shapes and precomputes block sizes.
func NewDecomposition(global, mesh []int) (*Decomposition, error) {
	if len(mesh) > len(global) {
		return nil, errors.Errorf("mesh has %d axes but the global shape only %d dimensions", len(mesh), len(global))
	}
	for i, n := range global {
		if n < 1 {
			return nil, errors.Errorf("global extent at dimension %d must be positive, got %d", i, n)
		}
	}
	for i, p := range mesh {
		if p < 1 {
			return nil, errors.Errorf("mesh size along axis %d must be positive, got %d", i, p)
		}
	}
	d := &Decomposition{
		global: append([]int(nil), global...),
		mesh:   append([]int(nil), mesh...),
		blocks: make([]int, len(global)),
	}
	for i, n := range global {
		if i < len(mesh) {
			d.blocks[i] = ceilDiv(n, mesh[i])
		} else {
			d.blocks[i] = n
		}
	}
	return d, nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// Blocks returns the per-dimension block sizes.
func (d *Decomposition) Blocks() []int {
	return append([]int(nil), d.blocks...)
}

// Start returns the starting global index of each dimension for the given
// mesh coordinates.
func (d *Decomposition) Start(coords []int) ([]int, error) {
	if err := d.checkCoords(coords); err != nil {
		return nil, err
	}
	start := make([]int, len(d.global))
	for i := range d.global {
		start[i] = d.coord(coords, i) * d.blocks[i]
	}
	return start, nil
}

// LocalShape returns the extent each dimension contributes at the given
// mesh coordinates. Coordinates past the last partial block get zero.
func (d *Decomposition) LocalShape(coords []int) ([]int, error) {
	if err := d.checkCoords(coords); err != nil {
		return nil, err
	}
	shape := make([]int, len(d.global))
	for i, n := range d.global {
		c := d.coord(coords, i)
		// cut is the coordinate of the first empty or partial block.
		cut := n / d.blocks[i]
		switch {
		case c < cut:
			shape[i] = d.blocks[i]
		case c == cut:
			shape[i] = n - cut*d.blocks[i]
		default:
			shape[i] = 0
		}
	}
	return shape, nil
}

// Extents returns the half-open global index range each dimension covers
// at the given mesh coordinates.
func (d *Decomposition) Extents(coords []int) ([]Extent, error) {
	start, err := d.Start(coords)
	if err != nil {
		return nil, err
	}
	shape, err := d.LocalShape(coords)
	if err != nil {
		return nil, err
	}
	extents := make([]Extent, len(start))
	for i := range extents {
		extents[i] = Extent{Start: start[i], Stop: start[i] + shape[i]}
	}
	return extents, nil
}

// BufferWords returns the number of float64 words the local chunk needs,
// with itemsize words per element.
func (d *Decomposition) BufferWords(coords []int, itemsize int) (int, error) {
	shape, err := d.LocalShape(coords)
	if err != nil {
		return 0, err
	}
	words := itemsize
	for _, n := range shape {
		words *= n
	}
	return words, nil
}

// coord returns the mesh coordinate for dimension i, or 0 for dimensions
// beyond the mesh (not distributed).
func (d *Decomposition) coord(coords []int, i int) int {
	if i < len(d.mesh) {
		return coords[i]
	}
	return 0
}

func (d *Decomposition) checkCoords(coords []int) error {
	if len(coords) != len(d.mesh) {
		return errors.Errorf("got %d coordinates for a mesh with %d axes", len(coords), len(d.mesh))
	}
	for i, c := range coords {
		if c < 0 || c >= d.mesh[i] {
			return errors.Errorf("coordinate %d outside mesh axis %d of size %d", c, i, d.mesh[i])
		}
	}
	return nil
}
