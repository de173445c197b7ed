// Package kernel defines the abstract geometry kernel interface used to
// turn the geometry description into meshes. The sdfx subpackage is the
// implementation; tests use stubs.
package kernel

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/ddcable/pkg/graph"
)

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and meshes solids. All primitives are centred on the
// origin and take half lengths; angles are in radians.
type Kernel interface {
	// Box is a rectangular box.
	Box(dx, dy, dz float64) (Solid, error)
	// Trap is a right trapezoidal prism: half width dx1 at -z and dx2 at +z,
	// half thickness dy and half length dz.
	Trap(dz, dy, dx1, dx2 float64) (Solid, error)
	// Polyhedra is a polygonal solid of revolution around z. Radii are
	// measured to the flat faces.
	Polyhedra(sides int, startPhi, deltaPhi float64, z, rmin, rmax []float64) (Solid, error)

	Union(a, b Solid) Solid

	// Transform rotates s by rot, then translates it by t. rot must be a
	// proper rotation.
	Transform(s Solid, rot mat.Matrix, t r3.Vector) (Solid, error)

	ToMesh(s Solid) (*Mesh, error)
}

// ErrUnsupportedSolid is returned for solids the kernels cannot build.
var ErrUnsupportedSolid = errors.New("unsupported solid")

// FromGraph builds the kernel solid for a described solid.
func FromGraph(k Kernel, s graph.Solid) (Solid, error) {
	switch v := s.(type) {
	case *graph.Box:
		return k.Box(v.DX, v.DY, v.DZ)
	case *graph.Trap:
		if !v.IsRightPrism() {
			return nil, errors.Wrapf(ErrUnsupportedSolid, "trap %s is sheared", v.Name)
		}
		return k.Trap(v.DZ, v.H1, v.BL1, v.BL2)
	case *graph.Polyhedra:
		return k.Polyhedra(v.Sides, v.StartPhi, v.DeltaPhi, v.Z, v.RMin, v.RMax)
	}
	return nil, errors.Wrapf(ErrUnsupportedSolid, "%T", s)
}
