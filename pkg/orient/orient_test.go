package orient

import (
	"testing"

	"orthofuse/internal/models"
)

// createTestVolume fills a volume with distinct integer values so that any
// misplaced sample is detected
func createTestVolume(d0, d1, d2 int) *models.Volume {
	v := models.NewVolume(d0, d1, d2)
	for i := range v.Data {
		v.Data[i] = float64(i + 1)
	}
	return v
}

// TestRot90Plane checks a single-plane rotation against a hand computed result
func TestRot90Plane(t *testing.T) {
	// [[1 2] [3 4]] in the (1,2) plane
	v, _ := models.FromData([]float64{1, 2, 3, 4}, [3]int{1, 2, 2})

	out, err := Rot90(v, 1, 2)
	if err != nil {
		t.Fatalf("Rot90 failed: %v", err)
	}

	expected := []float64{2, 4, 1, 3}
	for i, want := range expected {
		if out.Data[i] != want {
			t.Errorf("Data[%d] = %v, expected %v", i, out.Data[i], want)
		}
	}
}

// TestRot90Shape verifies that the rotated extents are swapped
func TestRot90Shape(t *testing.T) {
	v := createTestVolume(2, 3, 4)

	cases := []struct {
		a, b  int
		shape [3]int
	}{
		{0, 1, [3]int{3, 2, 4}},
		{1, 0, [3]int{3, 2, 4}},
		{0, 2, [3]int{4, 3, 2}},
		{2, 1, [3]int{2, 4, 3}},
	}

	for _, c := range cases {
		out, err := Rot90(v, c.a, c.b)
		if err != nil {
			t.Fatalf("Rot90(%d,%d) failed: %v", c.a, c.b, err)
		}
		if out.Shape != c.shape {
			t.Errorf("Rot90(%d,%d) shape = %v, expected %v", c.a, c.b, out.Shape, c.shape)
		}
	}
}

// TestRot90Inverse verifies that rotating back in the opposite sense restores the input
func TestRot90Inverse(t *testing.T) {
	v := createTestVolume(2, 3, 4)

	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			if a == b {
				continue
			}
			out, err := Rot90(v, a, b)
			if err != nil {
				t.Fatalf("Rot90(%d,%d) failed: %v", a, b, err)
			}
			back, err := Rot90(out, b, a)
			if err != nil {
				t.Fatalf("Rot90(%d,%d) failed: %v", b, a, err)
			}
			if !back.Equal(v) {
				t.Errorf("Rot90(%d,%d) followed by Rot90(%d,%d) did not restore the volume", a, b, b, a)
			}
		}
	}
}

// TestInvalidAxes verifies argument checking
func TestInvalidAxes(t *testing.T) {
	v := createTestVolume(2, 2, 2)

	if _, err := Rot90(v, 1, 1); err == nil {
		t.Errorf("Expected error for identical axes")
	}
	if _, err := Rot90(v, 0, 3); err == nil {
		t.Errorf("Expected error for axis out of range")
	}
	if _, err := Flip(v, -1); err == nil {
		t.Errorf("Expected error for negative axis")
	}
}

// TestFlip verifies reversal along each axis and that flipping twice is the identity
func TestFlip(t *testing.T) {
	v := createTestVolume(2, 3, 4)

	for axis := 0; axis < 3; axis++ {
		out, err := Flip(v, axis)
		if err != nil {
			t.Fatalf("Flip(%d) failed: %v", axis, err)
		}

		var c [3]int
		c[axis] = 0
		src := c
		src[axis] = v.Shape[axis] - 1
		if out.At(c[0], c[1], c[2]) != v.At(src[0], src[1], src[2]) {
			t.Errorf("Flip(%d) did not reverse the axis", axis)
		}

		back, _ := Flip(out, axis)
		if !back.Equal(v) {
			t.Errorf("Flip(%d) twice is not the identity", axis)
		}
	}
}

// TestSagittalToAxial verifies the shape change and sample mapping of the sagittal transform
func TestSagittalToAxial(t *testing.T) {
	depth, dim := 2, 6
	v := createTestVolume(depth, dim, dim)

	out, err := SagittalToAxial(v)
	if err != nil {
		t.Fatalf("SagittalToAxial failed: %v", err)
	}
	if out.Shape != [3]int{dim, dim, depth} {
		t.Fatalf("Shape = %v, expected %v", out.Shape, [3]int{dim, dim, depth})
	}

	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			for k := 0; k < depth; k++ {
				want := v.At(depth-1-k, dim-1-i, j)
				if got := out.At(i, j, k); got != want {
					t.Fatalf("out(%d,%d,%d) = %v, expected %v", i, j, k, got, want)
				}
			}
		}
	}

	if v.Data[0] != 1 {
		t.Errorf("Source volume was modified")
	}
}

// TestCoronalToAxial verifies the shape change and sample mapping of the coronal transform
func TestCoronalToAxial(t *testing.T) {
	depth, dim := 2, 6
	v := createTestVolume(depth, dim, dim)

	out, err := CoronalToAxial(v)
	if err != nil {
		t.Fatalf("CoronalToAxial failed: %v", err)
	}
	if out.Shape != [3]int{dim, depth, dim} {
		t.Fatalf("Shape = %v, expected %v", out.Shape, [3]int{dim, depth, dim})
	}

	for i := 0; i < dim; i++ {
		for j := 0; j < depth; j++ {
			for k := 0; k < dim; k++ {
				want := v.At(depth-1-j, dim-1-i, k)
				if got := out.At(i, j, k); got != want {
					t.Fatalf("out(%d,%d,%d) = %v, expected %v", i, j, k, got, want)
				}
			}
		}
	}
}

// TestRoundTrip verifies that FromCommon inverts ToCommon bit for bit for every scan
func TestRoundTrip(t *testing.T) {
	v := createTestVolume(2, 6, 6)

	for _, scan := range models.Scans {
		common, err := ToCommon(scan, v)
		if err != nil {
			t.Fatalf("ToCommon(%s) failed: %v", scan, err)
		}
		if common.Shape[scan.CoarseAxis()] != 2 {
			t.Errorf("%s: coarse axis %d has extent %d, expected 2", scan, scan.CoarseAxis(), common.Shape[scan.CoarseAxis()])
		}

		native, err := FromCommon(scan, common)
		if err != nil {
			t.Fatalf("FromCommon(%s) failed: %v", scan, err)
		}
		if !native.Equal(v) {
			t.Errorf("%s: round trip did not restore the volume", scan)
		}
	}
}

// TestAxialIdentity verifies that the axial scan passes through unchanged
func TestAxialIdentity(t *testing.T) {
	v := createTestVolume(2, 6, 6)

	out, err := ToCommon(models.Axial, v)
	if err != nil {
		t.Fatalf("ToCommon failed: %v", err)
	}
	if !out.Equal(v) {
		t.Errorf("Axial scan should be unchanged")
	}

	out.Data[0] = -1
	if v.Data[0] == -1 {
		t.Errorf("ToCommon should not alias the source volume")
	}
}
