package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

// polyhedraSDF is a polygonal solid of revolution. Each of the sides is a
// flat face; inside a face the (rho, z) profile is evaluated with rho the
// distance along the face normal, so the faces meet continuously at the
// edges. A phi span below a full turn is cut with two half planes.
type polyhedraSDF struct {
	sides    int
	startPhi float64
	deltaPhi float64
	width    float64 // angular width of one side
	profile  sdf.SDF2
	bb       sdf.Box3
}

func newPolyhedra(sides int, startPhi, deltaPhi float64, z, rmin, rmax []float64) (*polyhedraSDF, error) {
	if sides < 1 {
		return nil, errors.Errorf("polyhedra: %d sides", sides)
	}
	if deltaPhi <= 0 {
		return nil, errors.Errorf("polyhedra: phi span %g", deltaPhi)
	}
	if len(z) < 2 || len(rmin) != len(z) || len(rmax) != len(z) {
		return nil, errors.Errorf("polyhedra: %d z, %d rmin, %d rmax", len(z), len(rmin), len(rmax))
	}
	if deltaPhi > 2*math.Pi {
		deltaPhi = 2 * math.Pi
	}

	profile, err := sdf.Polygon2D(profileVertices(z, rmin, rmax))
	if err != nil {
		return nil, errors.Wrap(err, "polyhedra profile")
	}

	width := deltaPhi / float64(sides)
	r := 0.0
	for _, v := range rmax {
		r = math.Max(r, v)
	}
	if width < math.Pi {
		r /= math.Cos(width / 2)
	}
	return &polyhedraSDF{
		sides:    sides,
		startPhi: startPhi,
		deltaPhi: deltaPhi,
		width:    width,
		profile:  profile,
		bb: sdf.Box3{
			Min: v3.Vec{X: -r, Y: -r, Z: z[0]},
			Max: v3.Vec{X: r, Y: r, Z: z[len(z)-1]},
		},
	}, nil
}

// profileVertices walks up the outer radii and back down the inner ones,
// dropping repeated points.
func profileVertices(z, rmin, rmax []float64) []v2.Vec {
	pts := make([]v2.Vec, 0, 2*len(z))
	add := func(p v2.Vec) {
		if len(pts) > 0 && pts[len(pts)-1] == p {
			return
		}
		pts = append(pts, p)
	}
	for i := range z {
		add(v2.Vec{X: rmax[i], Y: z[i]})
	}
	for i := len(z) - 1; i >= 0; i-- {
		add(v2.Vec{X: rmin[i], Y: z[i]})
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// side returns the index of the face whose sector holds phi. Points outside
// a partial span use the nearer end face.
func (p *polyhedraSDF) side(phi float64) int {
	rel := math.Mod(phi-p.startPhi, 2*math.Pi)
	if rel < 0 {
		rel += 2 * math.Pi
	}
	i := int(rel / p.width)
	if i < p.sides {
		return i
	}
	if rel-p.deltaPhi < 2*math.Pi-rel {
		return p.sides - 1
	}
	return 0
}

// Evaluate returns the signed distance estimate at v.
func (p *polyhedraSDF) Evaluate(v v3.Vec) float64 {
	c := p.startPhi + (float64(p.side(math.Atan2(v.Y, v.X)))+0.5)*p.width
	rho := v.X*math.Cos(c) + v.Y*math.Sin(c)
	d := p.profile.Evaluate(v2.Vec{X: rho, Y: v.Z})

	if p.deltaPhi >= 2*math.Pi {
		return d
	}
	a, b := p.startPhi, p.startPhi+p.deltaPhi
	d1 := v.X*math.Sin(a) - v.Y*math.Cos(a)
	d2 := -v.X*math.Sin(b) + v.Y*math.Cos(b)
	var dw float64
	if p.deltaPhi <= math.Pi {
		dw = math.Max(d1, d2)
	} else {
		dw = math.Min(d1, d2)
	}
	return math.Max(d, dw)
}

// BoundingBox returns the bounding box.
func (p *polyhedraSDF) BoundingBox() sdf.Box3 {
	return p.bb
}
