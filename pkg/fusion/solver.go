package fusion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Solver backends accepted by NewSolver
const (
	SolverSVD = "svd"
	SolverQR  = "qr"
)

// machineEpsilon is the spacing of float64 values around 1
var machineEpsilon = math.Nextafter(1, 2) - 1

// LinearSolver solves M·x = b in the least-squares sense for a fixed M.
//
// Implementations must be safe for concurrent use by multiple goroutines:
// the factorization of M is computed once and only read while solving.
type LinearSolver interface {
	// Dims returns the shape of M
	Dims() (r, c int)

	// Rank returns the numerical rank of M used by the solve
	Rank() int

	// Solve stores the solution for right-hand side b in dst
	Solve(dst, b *mat.VecDense) error
}

// Operator is a LinearSolver backed by a precomputed (c × r) matrix that
// maps a right-hand side directly to its solution
type Operator struct {
	name string
	rows int
	cols int
	rank int
	cond float64
	op   *mat.Dense
}

// Dims returns the shape of the system matrix
func (o *Operator) Dims() (r, c int) { return o.rows, o.cols }

// Rank returns the numerical rank of the system matrix
func (o *Operator) Rank() int { return o.rank }

// Cond returns the 2-norm condition number of the system matrix
func (o *Operator) Cond() float64 { return o.cond }

// Name identifies the backend that built the operator
func (o *Operator) Name() string { return o.name }

// Solve computes dst = op·b
func (o *Operator) Solve(dst, b *mat.VecDense) error {
	if b.Len() != o.rows {
		return fmt.Errorf("%w: right-hand side has %d entries, system has %d rows", ErrShapeMismatch, b.Len(), o.rows)
	}
	if dst.Len() != o.cols {
		return fmt.Errorf("%w: solution has %d entries, system has %d columns", ErrShapeMismatch, dst.Len(), o.cols)
	}
	dst.MulVec(o.op, b)
	return nil
}

// NewSolver builds the named backend for m
func NewSolver(kind string, m mat.Matrix) (LinearSolver, error) {
	switch kind {
	case SolverSVD, "":
		return NewPseudoInverse(m)
	case SolverQR:
		return NewDirectSolver(m)
	}
	return nil, fmt.Errorf("%w: unknown solver %q (must be %s or %s)", ErrConfiguration, kind, SolverSVD, SolverQR)
}

// NewPseudoInverse precomputes the Moore-Penrose pseudo-inverse of m from its
// thin SVD.
//
// Singular values below eps·max(r,c)·σmax are treated as zero, so the operator
// yields the exact solution for square full-rank systems, the minimum-norm
// solution for rank-deficient ones and the least-squares solution when the
// system is inconsistent.
func NewPseudoInverse(m mat.Matrix) (*Operator, error) {
	r, c := m.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, fmt.Errorf("SVD factorization of %d×%d constraint matrix failed", r, c)
	}

	rank := svd.Rank(machineEpsilon * float64(max(r, c)))
	o := &Operator{
		name: SolverSVD,
		rows: r,
		cols: c,
		rank: rank,
		cond: svd.Cond(),
	}

	if rank == 0 {
		// Only the zero vector is consistent with a null matrix
		o.op = mat.NewDense(c, r, nil)
		return o, nil
	}

	var op mat.Dense
	svd.SolveTo(&op, identity(r), rank)
	o.op = &op
	return o, nil
}

// NewDirectSolver precomputes the inverse of a square, full-rank m with a QR
// factorization.
//
// Systems that are not square or are numerically rank-deficient keep the
// pseudo-inverse, so ill-conditioning degrades accuracy without failing.
func NewDirectSolver(m mat.Matrix) (*Operator, error) {
	pinv, err := NewPseudoInverse(m)
	if err != nil {
		return nil, err
	}
	r, c := m.Dims()
	if r != c || pinv.rank < r {
		return pinv, nil
	}

	var qr mat.QR
	qr.Factorize(m)

	var op mat.Dense
	if err := qr.SolveTo(&op, false, identity(r)); err != nil {
		// Condition errors still carry a usable solution, but the SVD is
		// the more accurate of the two here
		return pinv, nil
	}

	return &Operator{
		name: SolverQR,
		rows: r,
		cols: c,
		rank: r,
		cond: pinv.cond,
		op:   &op,
	}, nil
}

func identity(n int) *mat.DiagDense {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return mat.NewDiagDense(n, ones)
}
