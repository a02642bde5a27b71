package fusion

import (
	"fmt"
	"runtime"

	"orthofuse/internal/models"
)

// ProgressCallback receives the number of completed and total slabs
type ProgressCallback func(completed, total int)

// Assembler tiles the output volume with solved cubes.
//
// Cubes are grouped into slabs of equal first coordinate and dispatched to
// worker goroutines. Workers share only the read-only ClusterSolver and each
// writes the disjoint region of its own cubes, so no locking is needed.
type Assembler struct {
	solver *ClusterSolver

	// Workers is the number of goroutines solving slabs. Values below one
	// mean runtime.NumCPU().
	Workers int

	// Progress, if set, is called from the assembling goroutine after each
	// completed slab
	Progress ProgressCallback
}

// NewAssembler creates an assembler around a cluster solver
func NewAssembler(solver *ClusterSolver, workers int) *Assembler {
	return &Assembler{solver: solver, Workers: workers}
}

// Assemble reconstructs the isotropic volume from three common-frame scans
// indexed by models.Scan
func (a *Assembler) Assemble(scans [3]*models.Volume) (*models.Volume, error) {
	l := a.solver.Layout()

	for _, scan := range models.Scans {
		if scans[scan] == nil {
			return nil, fmt.Errorf("%w: %s scan is missing", ErrInputShape, scan)
		}
	}

	dim := scans[models.Axial].Shape[1]
	if err := l.CheckExtent(dim); err != nil {
		return nil, err
	}
	for _, scan := range models.Scans {
		if want := l.ExpectedShape(scan, dim); scans[scan].Shape != want {
			return nil, fmt.Errorf("%w: %s scan has shape %v, expected %v", ErrInputShape, scan, scans[scan].Shape, want)
		}
	}

	depth := dim / l.N
	out := models.NewVolume(dim, dim, dim)

	workers := a.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > depth {
		workers = depth
	}

	type slabResult struct {
		x   int
		err error
	}

	slabs := make(chan int)
	results := make(chan slabResult)

	go func() {
		for x := 0; x < depth; x++ {
			slabs <- x
		}
		close(slabs)
	}()

	for w := 0; w < workers; w++ {
		go func() {
			known := make([]float64, l.Rows())
			block := make([]float64, l.Unknowns())
			for x := range slabs {
				results <- slabResult{x: x, err: a.solveSlab(scans, out, x, depth, known, block)}
			}
		}()
	}

	var firstErr error
	for completed := 1; completed <= depth; completed++ {
		res := <-results
		if res.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("slab %d: %w", res.x, res.err)
		}
		if a.Progress != nil {
			a.Progress(completed, depth)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// solveSlab reconstructs every cube whose first coarse coordinate is x
func (a *Assembler) solveSlab(scans [3]*models.Volume, out *models.Volume, x, depth int, known, block []float64) error {
	l := a.solver.Layout()
	for y := 0; y < depth; y++ {
		for z := 0; z < depth; z++ {
			if err := a.solver.KnownVector(scans, x, y, z, known); err != nil {
				return err
			}
			if err := a.solver.Solve(known, block); err != nil {
				return err
			}
			l.Place(out, x, y, z, block)
		}
	}
	return nil
}
