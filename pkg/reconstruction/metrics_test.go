package reconstruction

import (
	"errors"
	"math"
	"testing"

	"orthofuse/internal/models"
	"orthofuse/pkg/fusion"
)

// TestCalculateMetricsIdentical verifies perfect scores for an exact reconstruction
func TestCalculateMetricsIdentical(t *testing.T) {
	truth := createTruthVolume(6)
	scans, err := fusion.SynthesizeAll(truth, 3)
	if err != nil {
		t.Fatalf("SynthesizeAll failed: %v", err)
	}

	m, err := CalculateMetrics(truth.Clone(), scans, truth, 3)
	if err != nil {
		t.Fatalf("CalculateMetrics failed: %v", err)
	}

	if !m.HasTruth {
		t.Errorf("Expected HasTruth")
	}
	if m.RMSE != 0 {
		t.Errorf("RMSE %v, expected 0", m.RMSE)
	}
	if !math.IsInf(m.PSNR, 1) {
		t.Errorf("PSNR %v, expected +Inf", m.PSNR)
	}
	if math.Abs(m.Correlation-1) > 1e-12 {
		t.Errorf("Correlation %v, expected 1", m.Correlation)
	}
	if math.Abs(m.SSIM-1) > 1e-12 {
		t.Errorf("SSIM %v, expected 1", m.SSIM)
	}
	for _, scan := range models.Scans {
		if m.Consistency[scan] != 0 {
			t.Errorf("%s consistency %v, expected 0", scan, m.Consistency[scan])
		}
	}
}

// TestCalculateMetricsDegraded verifies that an offset reconstruction is penalised
func TestCalculateMetricsDegraded(t *testing.T) {
	truth := createTruthVolume(6)
	scans, _ := fusion.SynthesizeAll(truth, 3)

	fused := truth.Clone()
	for i := range fused.Data {
		fused.Data[i] += 0.5
	}

	m, err := CalculateMetrics(fused, scans, truth, 3)
	if err != nil {
		t.Fatalf("CalculateMetrics failed: %v", err)
	}

	if math.Abs(m.RMSE-0.5) > 1e-12 {
		t.Errorf("RMSE %v, expected 0.5", m.RMSE)
	}
	// Each coarse sample sums three voxels, each off by 0.5
	for _, scan := range models.Scans {
		if math.Abs(m.Consistency[scan]-1.5) > 1e-12 {
			t.Errorf("%s consistency %v, expected 1.5", scan, m.Consistency[scan])
		}
	}
	if math.Abs(m.Correlation-1) > 1e-9 {
		t.Errorf("Correlation %v, expected 1 for a constant offset", m.Correlation)
	}
	if m.SSIM >= 1 {
		t.Errorf("SSIM %v, expected below 1", m.SSIM)
	}
}

// TestCalculateMetricsWithoutTruth verifies that only consistency is reported
func TestCalculateMetricsWithoutTruth(t *testing.T) {
	truth := createTruthVolume(3)
	scans, _ := fusion.SynthesizeAll(truth, 3)

	m, err := CalculateMetrics(truth, scans, nil, 3)
	if err != nil {
		t.Fatalf("CalculateMetrics failed: %v", err)
	}
	if m.HasTruth || m.RMSE != 0 {
		t.Errorf("Expected no ground truth metrics, got %+v", m)
	}

	if _, err := CalculateMetrics(truth, scans, models.NewVolume(3, 3, 6), 3); !errors.Is(err, fusion.ErrInputShape) {
		t.Errorf("Expected ErrInputShape for mismatched reference, got %v", err)
	}
}
