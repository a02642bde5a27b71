package models

// Scan identifies one of the three orthogonal thick-slice acquisitions.
//
// The order of the constants is the order in which the scans contribute to
// the known vector of a cube (and to the rows of the constraint matrix).
type Scan int

const (
	Sagittal Scan = iota
	Coronal
	Axial
)

// Scans lists every acquisition in known-vector order
var Scans = [3]Scan{Sagittal, Coronal, Axial}

// CoarseAxis returns the axis along which the scan is thick once it has
// been expressed in the common (axial) frame
func (s Scan) CoarseAxis() int {
	return 2 - int(s)
}

// FineAxes returns the two full-resolution axes in the common frame, in
// ascending order
func (s Scan) FineAxes() (int, int) {
	switch s.CoarseAxis() {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

func (s Scan) String() string {
	switch s {
	case Sagittal:
		return "sagittal"
	case Coronal:
		return "coronal"
	case Axial:
		return "axial"
	}
	return "unknown"
}
