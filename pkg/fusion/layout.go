package fusion

import (
	"fmt"

	"orthofuse/internal/models"
)

// CubeLayout fixes how an N×N×N cube of unknowns is flattened into a vector
// and how the N×N coarse samples of each scan are ordered.
//
// The same layout is used to number the columns of the constraint matrix,
// to assemble known vectors and to place solved blocks, so the three always
// agree.
type CubeLayout struct {
	N int
}

// NewCubeLayout returns the layout for cubes of side n
func NewCubeLayout(n int) (CubeLayout, error) {
	if n < 1 {
		return CubeLayout{}, fmt.Errorf("%w: cube size must be positive, got %d", ErrConfiguration, n)
	}
	return CubeLayout{N: n}, nil
}

// Unknowns is the number of isotropic voxels in a cube (N³)
func (l CubeLayout) Unknowns() int { return l.N * l.N * l.N }

// Cells is the number of coarse samples one scan contributes to a cube (N²)
func (l CubeLayout) Cells() int { return l.N * l.N }

// Rows is the length of a known vector (3·N²)
func (l CubeLayout) Rows() int { return 3 * l.Cells() }

// Unknown flattens a voxel coordinate inside the cube
func (l CubeLayout) Unknown(i, j, k int) int {
	return (i*l.N+j)*l.N + k
}

// Cell flattens a coordinate on the two fine axes of a scan
func (l CubeLayout) Cell(u, v int) int {
	return u*l.N + v
}

// Row returns the known-vector position of cell (u, v) of the given scan
func (l CubeLayout) Row(scan models.Scan, u, v int) int {
	return int(scan)*l.Cells() + l.Cell(u, v)
}

// UnknownAt returns the unknown index of the w-th voxel covered by cell
// (u, v) of the scan: w runs along the scan's coarse axis while u and v
// run along its fine axes.
func (l CubeLayout) UnknownAt(scan models.Scan, u, v, w int) int {
	var c [3]int
	f1, f2 := scan.FineAxes()
	c[scan.CoarseAxis()] = w
	c[f1] = u
	c[f2] = v
	return l.Unknown(c[0], c[1], c[2])
}

// ScanCoord maps cell (u, v) of the cube at coarse position (x, y, z) to a
// coordinate in the scan's common-frame volume
func (l CubeLayout) ScanCoord(scan models.Scan, x, y, z, u, v int) (int, int, int) {
	p := [3]int{x, y, z}
	c := p
	f1, f2 := scan.FineAxes()
	c[f1] = p[f1]*l.N + u
	c[f2] = p[f2]*l.N + v
	return c[0], c[1], c[2]
}

// VolumeIndex maps voxel (i, j, k) of the cube at (x, y, z) to its offset
// in the output volume
func (l CubeLayout) VolumeIndex(dst *models.Volume, x, y, z, i, j, k int) int {
	return dst.Index(x*l.N+i, y*l.N+j, z*l.N+k)
}

// Place writes a solved block into the cube at (x, y, z)
func (l CubeLayout) Place(dst *models.Volume, x, y, z int, block []float64) {
	for i := 0; i < l.N; i++ {
		for j := 0; j < l.N; j++ {
			for k := 0; k < l.N; k++ {
				dst.Data[l.VolumeIndex(dst, x, y, z, i, j, k)] = block[l.Unknown(i, j, k)]
			}
		}
	}
}

// Extract reads the cube at (x, y, z) into block
func (l CubeLayout) Extract(src *models.Volume, x, y, z int, block []float64) {
	for i := 0; i < l.N; i++ {
		for j := 0; j < l.N; j++ {
			for k := 0; k < l.N; k++ {
				block[l.Unknown(i, j, k)] = src.Data[l.VolumeIndex(src, x, y, z, i, j, k)]
			}
		}
	}
}

// ExpectedShape returns the common-frame shape of a scan covering a dim³
// target with cubes of side N
func (l CubeLayout) ExpectedShape(scan models.Scan, dim int) [3]int {
	shape := [3]int{dim, dim, dim}
	shape[scan.CoarseAxis()] = dim / l.N
	return shape
}

// NativeShape is the (depth, dim, dim) shape every scan has on disk
func (l CubeLayout) NativeShape(dim int) [3]int {
	return [3]int{dim / l.N, dim, dim}
}

// CheckExtent verifies that dim is tiled exactly by cubes
func (l CubeLayout) CheckExtent(dim int) error {
	if dim < 1 {
		return fmt.Errorf("%w: target extent must be positive, got %d", ErrConfiguration, dim)
	}
	if dim%l.N != 0 {
		return fmt.Errorf("%w: target extent %d is not a multiple of cube size %d", ErrConfiguration, dim, l.N)
	}
	return nil
}
