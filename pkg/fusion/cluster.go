package fusion

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"orthofuse/internal/models"
)

// ClusterSolver recovers the isotropic voxels of one cube from the coarse
// samples of the three scans overlapping it.
//
// The constraint matrix and its solver are shared by every cube and never
// modified, so a single ClusterSolver may be used from many goroutines.
type ClusterSolver struct {
	layout CubeLayout
	matrix mat.Matrix
	solver LinearSolver
}

// NewClusterSolver builds the constraint matrix for cubes of side n and the
// named solver backend for it
func NewClusterSolver(n int, kind string) (*ClusterSolver, error) {
	layout, err := NewCubeLayout(n)
	if err != nil {
		return nil, err
	}

	m := layout.ConstraintMatrix()
	solver, err := NewSolver(kind, m)
	if err != nil {
		return nil, err
	}
	return NewClusterSolverWith(layout, m, solver)
}

// NewClusterSolverWith assembles a ClusterSolver from explicit parts. The
// matrix and solver must both be (3·N², N³).
func NewClusterSolverWith(layout CubeLayout, m mat.Matrix, solver LinearSolver) (*ClusterSolver, error) {
	if r, c := m.Dims(); r != layout.Rows() || c != layout.Unknowns() {
		return nil, fmt.Errorf("%w: constraint matrix is %d×%d, cube size %d needs %d×%d",
			ErrShapeMismatch, r, c, layout.N, layout.Rows(), layout.Unknowns())
	}
	if r, c := solver.Dims(); r != layout.Rows() || c != layout.Unknowns() {
		return nil, fmt.Errorf("%w: solver is %d×%d, cube size %d needs %d×%d",
			ErrShapeMismatch, r, c, layout.N, layout.Rows(), layout.Unknowns())
	}
	return &ClusterSolver{layout: layout, matrix: m, solver: solver}, nil
}

// Layout returns the flattening convention shared by matrix, vectors and blocks
func (cs *ClusterSolver) Layout() CubeLayout { return cs.layout }

// Matrix returns the constraint matrix
func (cs *ClusterSolver) Matrix() mat.Matrix { return cs.matrix }

// Solver returns the linear solver backend
func (cs *ClusterSolver) Solver() LinearSolver { return cs.solver }

// KnownVector gathers the coarse samples overlapping the cube at (x, y, z)
// into dst. Scans are common-frame volumes indexed by models.Scan.
func (cs *ClusterSolver) KnownVector(scans [3]*models.Volume, x, y, z int, dst []float64) error {
	l := cs.layout
	if len(dst) != l.Rows() {
		return fmt.Errorf("%w: known vector has %d entries, expected %d", ErrShapeMismatch, len(dst), l.Rows())
	}

	for _, scan := range models.Scans {
		vol := scans[scan]
		for u := 0; u < l.N; u++ {
			for v := 0; v < l.N; v++ {
				i, j, k := l.ScanCoord(scan, x, y, z, u, v)
				dst[l.Row(scan, u, v)] = vol.At(i, j, k)
			}
		}
	}
	return nil
}

// Solve stores in block the N³ voxels best consistent with the known vector.
//
// Ill-conditioned or rank-deficient systems are not errors: the least-squares
// backend returns its best estimate. Only vectors of the wrong length fail.
func (cs *ClusterSolver) Solve(known, block []float64) error {
	r, c := cs.solver.Dims()
	if len(known) != r {
		return fmt.Errorf("%w: known vector has %d entries, system has %d rows", ErrShapeMismatch, len(known), r)
	}
	if len(block) != c {
		return fmt.Errorf("%w: block has %d entries, system has %d unknowns", ErrShapeMismatch, len(block), c)
	}

	b := mat.NewVecDense(r, known)
	x := mat.NewVecDense(c, block)
	return cs.solver.Solve(x, b)
}
