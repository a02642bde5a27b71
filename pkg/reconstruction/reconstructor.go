package reconstruction

import (
	"fmt"
	"time"

	"orthofuse/internal/models"
	"orthofuse/pkg/config"
	"orthofuse/pkg/fusion"
	"orthofuse/pkg/orient"
	"orthofuse/pkg/visualization"
	"orthofuse/pkg/volumeio"
)

// previewStep is the spacing of preview slices along each axis
const previewStep = 4

// Reconstructor fuses three orthogonal thick-slice scans into one isotropic
// volume.
//
// The reconstruction process consists of several steps:
// 1. Validating the configuration
// 2. Loading the axial, coronal and sagittal scans (and an optional ground truth)
// 3. Reorienting the scans into the common axial frame
// 4. Building the constraint matrix and its least-squares operator
// 5. Solving every cube and assembling the output volume
// 6. Calculating quality metrics
// 7. Writing the fused volume and optional previews
type Reconstructor struct {
	// cfg stores the reconstruction configuration
	cfg *config.Config

	// scans holds the common-frame inputs indexed by models.Scan
	scans [3]*models.Volume

	// truth is the optional reference volume
	truth *models.Volume

	// solver is the shared cube solver
	solver *fusion.ClusterSolver

	// volume is the fused result
	volume *models.Volume

	// metrics stores the quality assessment metrics after reconstruction
	metrics ValidationMetrics
}

// NewReconstructor creates a new reconstructor instance with the provided configuration
func NewReconstructor(cfg *config.Config) *Reconstructor {
	return &Reconstructor{cfg: cfg}
}

// Process runs the complete reconstruction pipeline. Configuration and shape
// errors abort the run before the output path is touched.
func (r *Reconstructor) Process() error {
	r.logf("Step 1: Validating configuration...\n")
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	r.logf("Step 2: Loading input scans...\n")
	if err := r.loadScans(); err != nil {
		return fmt.Errorf("failed to load scans: %w", err)
	}

	r.logf("Step 3: Reorienting scans into the axial frame...\n")
	if err := r.reorient(); err != nil {
		return fmt.Errorf("failed to reorient scans: %w", err)
	}

	r.logf("Step 4: Building constraint system...\n")
	if err := r.buildSolver(); err != nil {
		return fmt.Errorf("failed to build constraint system: %w", err)
	}

	r.logf("Step 5: Solving %d³ cubes...\n", r.cfg.Depth())
	if err := r.assemble(); err != nil {
		return fmt.Errorf("failed to assemble volume: %w", err)
	}

	r.logf("Step 6: Calculating validation metrics...\n")
	if err := r.calculateValidationMetrics(); err != nil {
		return fmt.Errorf("failed to calculate metrics: %w", err)
	}

	r.logf("Step 7: Writing fused volume to %s...\n", r.cfg.Output.Path)
	if err := r.writeOutput(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if r.cfg.Output.PreviewDir != "" {
		viewer := visualization.NewViewer(r.volume)
		saved, err := viewer.SavePreviews(r.cfg.Output.PreviewDir, previewStep)
		if err != nil {
			// Previews are a convenience; the fused volume is already in place
			fmt.Printf("Warning: Failed to save previews: %v\n", err)
		} else {
			r.logf("Saved %d preview slices to %s\n", saved, r.cfg.Output.PreviewDir)
		}
	}

	return nil
}

// loadScans reads the three native-frame scans and the optional ground truth
func (r *Reconstructor) loadScans() error {
	order, err := r.cfg.ByteOrder()
	if err != nil {
		return err
	}

	layout := fusion.CubeLayout{N: r.cfg.Volume.CubeSize}
	shape := layout.NativeShape(r.cfg.Volume.Dim)

	paths := map[models.Scan]string{
		models.Sagittal: r.cfg.Input.Sagittal,
		models.Coronal:  r.cfg.Input.Coronal,
		models.Axial:    r.cfg.Input.Axial,
	}
	for _, scan := range models.Scans {
		v, err := volumeio.Read(paths[scan], shape, order)
		if err != nil {
			return err
		}
		r.scans[scan] = v
		r.logf("Loaded %s scan %s with shape %v\n", scan, paths[scan], v.Shape)
	}

	if r.cfg.Input.Truth != "" {
		dim := r.cfg.Volume.Dim
		if r.truth, err = volumeio.Read(r.cfg.Input.Truth, [3]int{dim, dim, dim}, order); err != nil {
			return fmt.Errorf("ground truth: %w", err)
		}
		r.logf("Loaded ground truth %s\n", r.cfg.Input.Truth)
	}

	return nil
}

// reorient expresses the coronal and sagittal scans in the axial frame
func (r *Reconstructor) reorient() error {
	for _, scan := range models.Scans {
		v, err := orient.ToCommon(scan, r.scans[scan])
		if err != nil {
			return fmt.Errorf("%s: %w", scan, err)
		}
		r.scans[scan] = v
	}
	return nil
}

// buildSolver builds the constraint matrix once and reports its numerical rank
func (r *Reconstructor) buildSolver() error {
	solver, err := fusion.NewClusterSolver(r.cfg.Volume.CubeSize, r.cfg.Processing.Solver)
	if err != nil {
		return err
	}
	r.solver = solver

	rows, cols := solver.Solver().Dims()
	r.logf("Constraint matrix: %d×%d, rank %d\n", rows, cols, solver.Solver().Rank())
	if solver.Solver().Rank() < cols {
		r.logf("Rank-deficient system: using minimum-norm least-squares solutions\n")
	}
	return nil
}

// assemble solves every cube in parallel
func (r *Reconstructor) assemble() error {
	assembler := fusion.NewAssembler(r.solver, r.cfg.Processing.NumCores)

	start := time.Now()
	if r.cfg.Output.Verbose {
		assembler.Progress = func(completed, total int) {
			progress := float64(completed) / float64(total) * 100
			fmt.Printf("\rSolving cubes: %.1f%% complete", progress)
			if completed == total {
				fmt.Println()
			}
		}
	}

	volume, err := assembler.Assemble(r.scans)
	if err != nil {
		return err
	}
	r.volume = volume
	r.logf("Solved %d cubes in %.2f seconds\n", r.cfg.Depth()*r.cfg.Depth()*r.cfg.Depth(), time.Since(start).Seconds())
	return nil
}

// writeOutput stores the fused volume in the configured format
func (r *Reconstructor) writeOutput() error {
	switch r.cfg.Output.Format {
	case config.FormatNpy:
		return volumeio.WriteNpy(r.cfg.Output.Path, r.volume)
	default:
		order, err := r.cfg.ByteOrder()
		if err != nil {
			return err
		}
		return volumeio.WriteRaw(r.cfg.Output.Path, r.volume, order)
	}
}

// GetMetrics returns the quality metrics of the last run
func (r *Reconstructor) GetMetrics() ValidationMetrics {
	return r.metrics
}

// GetVolume returns the fused volume of the last run
func (r *Reconstructor) GetVolume() *models.Volume {
	return r.volume
}

func (r *Reconstructor) logf(format string, args ...interface{}) {
	if r.cfg.Output.Verbose {
		fmt.Printf(format, args...)
	}
}

// Fuse reconstructs the isotropic volume from three scans given in their
// native frames, indexed by models.Scan, without touching the filesystem
func Fuse(native [3]*models.Volume, cubeSize int, solverKind string, workers int) (*models.Volume, error) {
	solver, err := fusion.NewClusterSolver(cubeSize, solverKind)
	if err != nil {
		return nil, err
	}

	var scans [3]*models.Volume
	for _, scan := range models.Scans {
		if native[scan] == nil {
			return nil, fmt.Errorf("%w: %s scan is missing", fusion.ErrInputShape, scan)
		}
		if scans[scan], err = orient.ToCommon(scan, native[scan]); err != nil {
			return nil, err
		}
	}

	return fusion.NewAssembler(solver, workers).Assemble(scans)
}

// SynthesizeScans produces the three native-frame scans an ideal acquisition
// of an isotropic volume would record
func SynthesizeScans(truth *models.Volume, cubeSize int) ([3]*models.Volume, error) {
	var native [3]*models.Volume

	common, err := fusion.SynthesizeAll(truth, cubeSize)
	if err != nil {
		return native, err
	}
	for _, scan := range models.Scans {
		if native[scan], err = orient.FromCommon(scan, common[scan]); err != nil {
			return native, err
		}
	}
	return native, nil
}
