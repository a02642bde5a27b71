package fusion

import "errors"

var (
	// ErrConfiguration reports inconsistent constants, such as a target
	// extent that is not a multiple of the cube size
	ErrConfiguration = errors.New("configuration error")

	// ErrInputShape reports a scan whose extents or element count do not
	// match what the configuration declares
	ErrInputShape = errors.New("input shape error")

	// ErrShapeMismatch reports a constraint system whose dimensions do not
	// agree with the vectors handed to it
	ErrShapeMismatch = errors.New("shape mismatch")
)
