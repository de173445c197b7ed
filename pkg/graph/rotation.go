package graph

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Rotation is a named rotation given by the polar angles of the rotated
// axes in the mother frame. All angles are in radians.
type Rotation struct {
	Name   Name    `json:"name"`
	ThetaX float64 `json:"theta_x"`
	PhiX   float64 `json:"phi_x"`
	ThetaY float64 `json:"theta_y"`
	PhiY   float64 `json:"phi_y"`
	ThetaZ float64 `json:"theta_z"`
	PhiZ   float64 `json:"phi_z"`
}

// NewRotation creates a rotation from the six polar angles in radians.
func NewRotation(name Name, thetaX, phiX, thetaY, phiY, thetaZ, phiZ float64) *Rotation {
	return &Rotation{
		Name:   name,
		ThetaX: thetaX, PhiX: phiX,
		ThetaY: thetaY, PhiY: phiY,
		ThetaZ: thetaZ, PhiZ: phiZ,
	}
}

// polarAxis returns the unit vector with polar angle theta and azimuth phi.
func polarAxis(theta, phi float64) r3.Vector {
	return r3.Vector{
		X: math.Sin(theta) * math.Cos(phi),
		Y: math.Sin(theta) * math.Sin(phi),
		Z: math.Cos(theta),
	}
}

// Axes returns the rotated x, y and z axes.
func (r *Rotation) Axes() (x, y, z r3.Vector) {
	return polarAxis(r.ThetaX, r.PhiX), polarAxis(r.ThetaY, r.PhiY), polarAxis(r.ThetaZ, r.PhiZ)
}

// Matrix returns the 3x3 matrix whose columns are the rotated axes.
func (r *Rotation) Matrix() *mat.Dense {
	x, y, z := r.Axes()
	return mat.NewDense(3, 3, []float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	})
}

// Degrees returns the six angles converted to degrees.
func (r *Rotation) Degrees() [6]float64 {
	const d = 180 / math.Pi
	return [6]float64{r.ThetaX * d, r.PhiX * d, r.ThetaY * d, r.PhiY * d, r.ThetaZ * d, r.PhiZ * d}
}

// SameAngles reports whether two rotations produce the same matrix within tol.
func (r *Rotation) SameAngles(o *Rotation, tol float64) bool {
	return mat.EqualApprox(r.Matrix(), o.Matrix(), tol)
}

func (r *Rotation) String() string {
	a := r.Degrees()
	return fmt.Sprintf("%s (%g,%g,%g,%g,%g,%g)", r.Name, a[0], a[1], a[2], a[3], a[4], a[5])
}

// orthonormalTolerance bounds |R^T R - I| and |det R - 1| for a valid rotation.
const orthonormalTolerance = 1e-9

// CheckProper returns an error unless the matrix is orthonormal with
// determinant +1. Reflections (determinant -1) are reported separately.
func (r *Rotation) CheckProper() error {
	m := r.Matrix()
	var rtr mat.Dense
	rtr.Mul(m.T(), m)
	ident := mat.NewDiagDense(3, []float64{1, 1, 1})
	if !mat.EqualApprox(&rtr, ident, orthonormalTolerance) {
		return errors.Errorf("rotation %s axes are not orthonormal", r.Name)
	}
	det := mat.Det(m)
	if det < 0 {
		return errors.Errorf("rotation %s is a reflection (det %.3g)", r.Name, det)
	}
	if math.Abs(det-1) > orthonormalTolerance {
		return errors.Errorf("rotation %s has determinant %.6g", r.Name, det)
	}
	return nil
}

// Apply rotates v by the matrix m.
func Apply(m mat.Matrix, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// Identity returns a fresh 3x3 identity matrix.
func Identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
