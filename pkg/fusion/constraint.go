package fusion

import (
	"gonum.org/v1/gonum/mat"

	"orthofuse/internal/models"
)

// BuildConstraintMatrix returns the (3·N², N³) coefficient matrix relating a
// cube of isotropic unknowns to the coarse samples overlapping it.
//
// A coarse sample is the sum of the N voxels of its thick slab, so every row
// holds exactly N ones. Rows are grouped by scan in known-vector order and
// numbered with CubeLayout.Row; columns follow CubeLayout.Unknown.
func BuildConstraintMatrix(n int) (*mat.Dense, error) {
	layout, err := NewCubeLayout(n)
	if err != nil {
		return nil, err
	}
	return layout.ConstraintMatrix(), nil
}

// ConstraintMatrix builds the coefficient matrix for this layout
func (l CubeLayout) ConstraintMatrix() *mat.Dense {
	m := mat.NewDense(l.Rows(), l.Unknowns(), nil)
	for _, scan := range models.Scans {
		for u := 0; u < l.N; u++ {
			for v := 0; v < l.N; v++ {
				row := l.Row(scan, u, v)
				for w := 0; w < l.N; w++ {
					m.Set(row, l.UnknownAt(scan, u, v, w), 1)
				}
			}
		}
	}
	return m
}
