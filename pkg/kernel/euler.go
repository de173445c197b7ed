package kernel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/ddcable/pkg/graph"
)

// rotationTolerance bounds how far a matrix may be from orthonormal.
const rotationTolerance = 1e-9

// CheckRotation returns an error unless m is a 3x3 proper rotation.
func CheckRotation(m mat.Matrix) error {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return errors.Errorf("rotation must be 3x3, got %dx%d", r, c)
	}
	var mtm mat.Dense
	mtm.Mul(m.T(), m)
	if !mat.EqualApprox(&mtm, mat.NewDiagDense(3, []float64{1, 1, 1}), rotationTolerance) {
		return errors.New("rotation is not orthonormal")
	}
	if det := mat.Det(m); det < 0 {
		return errors.New("rotation is a reflection")
	}
	return nil
}

// EulerZYZ decomposes a proper rotation as Rz(alpha) * Ry(beta) * Rz(gamma).
// When beta is 0 or pi only alpha+gamma (or alpha-gamma) is determined, and
// gamma is returned as 0.
func EulerZYZ(m mat.Matrix) (alpha, beta, gamma float64, err error) {
	if err := CheckRotation(m); err != nil {
		return 0, 0, 0, err
	}
	r22 := math.Max(-1, math.Min(1, m.At(2, 2)))
	beta = math.Acos(r22)
	if math.Sin(beta) > rotationTolerance {
		alpha = math.Atan2(m.At(1, 2), m.At(0, 2))
		gamma = math.Atan2(m.At(2, 1), -m.At(2, 0))
		return alpha, beta, gamma, nil
	}
	if r22 > 0 {
		return math.Atan2(m.At(1, 0), m.At(0, 0)), 0, 0, nil
	}
	return math.Atan2(-m.At(1, 0), -m.At(0, 0)), math.Pi, 0, nil
}

// Compose returns the transform that applies (rot, t) inside a frame that
// is itself placed with (parentRot, parentT).
func Compose(parentRot mat.Matrix, parentT r3.Vector, rot mat.Matrix, t r3.Vector) (*mat.Dense, r3.Vector) {
	var r mat.Dense
	r.Mul(parentRot, rot)
	return &r, parentT.Add(graph.Apply(parentRot, t))
}
