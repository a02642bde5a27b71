package reconstruction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"orthofuse/internal/models"
	"orthofuse/pkg/fusion"
)

// ValidationMetrics holds the reconstruction quality metrics.
type ValidationMetrics struct {
	// Consistency is, per scan in models.Scan order, the RMSE between the
	// input scan and the fused volume summed back along the scan's coarse
	// axis. It is close to zero whenever the three scans agree.
	Consistency [3]float64

	// HasTruth reports whether a reference volume was available; the
	// remaining fields are only meaningful when it is set.
	HasTruth bool

	// RMSE (Root Mean Square Error) between reference and fused voxels
	RMSE float64

	// PSNR is the peak signal-to-noise ratio in dB, using the reference's
	// intensity range as peak
	PSNR float64

	// Correlation is Pearson's correlation between reference and fused voxels
	Correlation float64

	// SSIM (Structural Similarity Index) computed globally over the volume
	SSIM float64
}

// calculateValidationMetrics fills r.metrics for the fused volume
func (r *Reconstructor) calculateValidationMetrics() error {
	metrics, err := CalculateMetrics(r.volume, r.scans, r.truth, r.cfg.Volume.CubeSize)
	if err != nil {
		return err
	}
	r.metrics = metrics

	for _, scan := range models.Scans {
		r.logf("Consistency RMSE (%s): %.6g\n", scan, metrics.Consistency[scan])
	}
	if metrics.HasTruth {
		r.logf("RMSE: %.6g  PSNR: %.2f dB  Correlation: %.4f  SSIM: %.4f\n",
			metrics.RMSE, metrics.PSNR, metrics.Correlation, metrics.SSIM)
	}
	return nil
}

// CalculateMetrics compares a fused volume with its common-frame input scans
// and, when truth is not nil, with a reference volume
func CalculateMetrics(fused *models.Volume, scans [3]*models.Volume, truth *models.Volume, cubeSize int) (ValidationMetrics, error) {
	var m ValidationMetrics

	for _, scan := range models.Scans {
		projected, err := fusion.Synthesize(fused, scan, cubeSize)
		if err != nil {
			return m, err
		}
		if projected.Shape != scans[scan].Shape {
			return m, fmt.Errorf("%w: %s scan has shape %v, fused projection has %v",
				fusion.ErrInputShape, scan, scans[scan].Shape, projected.Shape)
		}
		m.Consistency[scan] = calculateRMSE(scans[scan].Data, projected.Data)
	}

	if truth == nil {
		return m, nil
	}
	if truth.Shape != fused.Shape {
		return m, fmt.Errorf("%w: reference has shape %v, fused volume has %v", fusion.ErrInputShape, truth.Shape, fused.Shape)
	}

	m.HasTruth = true
	m.RMSE = calculateRMSE(truth.Data, fused.Data)
	m.PSNR = calculatePSNR(truth.Data, m.RMSE)
	m.Correlation = calculateCorrelation(truth.Data, fused.Data)
	m.SSIM = calculateSSIM(truth.Data, fused.Data)
	return m, nil
}

// calculateRMSE calculates the root mean square error between two sample sets
func calculateRMSE(original, reconstructed []float64) float64 {
	if len(original) == 0 {
		return 0
	}
	return floats.Distance(original, reconstructed, 2) / math.Sqrt(float64(len(original)))
}

// calculatePSNR uses the reference's dynamic range as peak value
func calculatePSNR(original []float64, rmse float64) float64 {
	if rmse == 0 {
		return math.Inf(1)
	}
	peak := floats.Max(original) - floats.Min(original)
	if peak <= 0 {
		return 0
	}
	return 20 * math.Log10(peak/rmse)
}

// calculateCorrelation returns Pearson's correlation; flat inputs that are
// identical count as perfectly correlated
func calculateCorrelation(original, reconstructed []float64) float64 {
	if len(original) < 2 {
		return 1
	}
	if stat.Variance(original, nil) == 0 || stat.Variance(reconstructed, nil) == 0 {
		if floats.Equal(original, reconstructed) {
			return 1
		}
		return 0
	}
	return stat.Correlation(original, reconstructed, nil)
}

// calculateSSIM computes a single-window structural similarity index
func calculateSSIM(original, reconstructed []float64) float64 {
	if len(original) < 2 {
		return 1
	}

	peak := floats.Max(original) - floats.Min(original)
	if peak <= 0 {
		peak = 1
	}
	c1 := math.Pow(0.01*peak, 2)
	c2 := math.Pow(0.03*peak, 2)

	muX := stat.Mean(original, nil)
	muY := stat.Mean(reconstructed, nil)
	sigmaX := stat.Variance(original, nil)
	sigmaY := stat.Variance(reconstructed, nil)
	sigmaXY := stat.Covariance(original, reconstructed, nil)

	numerator := (2*muX*muY + c1) * (2*sigmaXY + c2)
	denominator := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)
	return numerator / denominator
}
