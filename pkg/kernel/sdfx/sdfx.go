// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"math"
	"os"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/ddcable/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	// MeshCells is the marching cubes resolution along the longest axis.
	MeshCells int
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{MeshCells: DefaultMeshCells}
}

func (k *SdfxKernel) cells() int {
	if k.MeshCells <= 0 {
		return DefaultMeshCells
	}
	return k.MeshCells
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box centred on the origin. sdf.Box3D takes full lengths.
func (k *SdfxKernel) Box(dx, dy, dz float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: 2 * dx, Y: 2 * dy, Z: 2 * dz}, 0)
	if err != nil {
		return nil, errors.Wrap(err, "box")
	}
	return wrap(s), nil
}

// Trap draws the trapezoid in the x-z plane, extrudes it through 2*dy and
// turns the extrusion axis onto y.
func (k *SdfxKernel) Trap(dz, dy, dx1, dx2 float64) (kernel.Solid, error) {
	if dz <= 0 || dy <= 0 || dx1 < 0 || dx2 < 0 || dx1+dx2 == 0 {
		return nil, errors.Errorf("trap: bad dimensions dz=%g dy=%g dx1=%g dx2=%g", dz, dy, dx1, dx2)
	}
	profile, err := sdf.Polygon2D([]v2.Vec{
		{X: -dx1, Y: -dz},
		{X: dx1, Y: -dz},
		{X: dx2, Y: dz},
		{X: -dx2, Y: dz},
	})
	if err != nil {
		return nil, errors.Wrap(err, "trap")
	}
	s := sdf.Extrude3D(profile, 2*dy)
	return wrap(sdf.Transform3D(s, sdf.RotateX(math.Pi/2))), nil
}

// Polyhedra builds a polygonal solid of revolution; see polyhedraSDF.
func (k *SdfxKernel) Polyhedra(sides int, startPhi, deltaPhi float64, z, rmin, rmax []float64) (kernel.Solid, error) {
	s, err := newPolyhedra(sides, startPhi, deltaPhi, z, rmin, rmax)
	if err != nil {
		return nil, err
	}
	return wrap(s), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Transform rotates then translates. sdfx only builds rotations about the
// coordinate axes, so the matrix goes through a Z-Y-Z decomposition.
func (k *SdfxKernel) Transform(s kernel.Solid, rot mat.Matrix, t r3.Vector) (kernel.Solid, error) {
	alpha, beta, gamma, err := kernel.EulerZYZ(rot)
	if err != nil {
		return nil, err
	}
	m := sdf.Translate3d(v3.Vec{X: t.X, Y: t.Y, Z: t.Z}).
		Mul(sdf.RotateZ(alpha)).
		Mul(sdf.RotateY(beta)).
		Mul(sdf.RotateZ(gamma))
	return wrap(sdf.Transform3D(unwrap(s), m)), nil
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	renderer := render.NewMarchingCubesUniform(k.cells())
	triangles := render.ToTriangles(unwrap(s), renderer)
	if len(triangles) == 0 {
		return nil, errors.New("marching cubes produced no triangles")
	}

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// WriteSTL renders a solid to an STL file.
func (k *SdfxKernel) WriteSTL(s kernel.Solid, path string) error {
	render.ToSTL(unwrap(s), path, render.NewMarchingCubesUniform(k.cells()))
	// ToSTL reports failures on stdout only.
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if fi.Size() == 0 {
		return errors.Errorf("write %s: empty file", path)
	}
	return nil
}
