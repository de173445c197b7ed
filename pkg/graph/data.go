package graph

import "fmt"

// ---------------------------------------------------------------------------
// Material
// ---------------------------------------------------------------------------

// Material is a named material. Density is advisory (g/cm3).
type Material struct {
	Name    Name    `json:"name"`
	Density float64 `json:"density,omitempty"`
}

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

// SolidKind distinguishes between solid shapes.
type SolidKind int

const (
	SolidBox       SolidKind = iota // rectangular box, half lengths
	SolidTrap                       // general trapezoid
	SolidPolyhedra                  // polygonal solid of revolution
)

func (k SolidKind) String() string {
	switch k {
	case SolidBox:
		return "box"
	case SolidTrap:
		return "trap"
	case SolidPolyhedra:
		return "polyhedra"
	default:
		return "unknown"
	}
}

// Solid is a named geometric primitive.
type Solid interface {
	SolidName() Name
	Kind() SolidKind
}

// Box is centred on the origin with half lengths DX, DY, DZ.
type Box struct {
	Name       Name    `json:"name"`
	DX, DY, DZ float64
}

func (b *Box) SolidName() Name  { return b.Name }
func (b *Box) Kind() SolidKind { return SolidBox }

func (b *Box) String() string {
	return fmt.Sprintf("%s Box of dimension %g, %g, %g", b.Name, b.DX, b.DY, b.DZ)
}

// Trap is a general trapezoid. DZ is the half length along z; the -z face
// has half height H1, half widths BL1 (at -y) and TL1 (at +y) and tilt
// Alpha1, the +z face likewise with suffix 2. Theta and Phi give the polar
// direction of the line joining the face centres. Angles are in radians.
type Trap struct {
	Name               Name `json:"name"`
	DZ, Theta, Phi     float64
	H1, BL1, TL1, Alp1 float64
	H2, BL2, TL2, Alp2 float64
}

func (t *Trap) SolidName() Name  { return t.Name }
func (t *Trap) Kind() SolidKind { return SolidTrap }

// IsRightPrism reports whether the trapezoid has no shear, equal half
// heights on both faces and parallel sides of equal length on each face.
func (t *Trap) IsRightPrism() bool {
	return t.Theta == 0 && t.Phi == 0 && t.Alp1 == 0 && t.Alp2 == 0 &&
		t.H1 == t.H2 && t.BL1 == t.TL1 && t.BL2 == t.TL2
}

func (t *Trap) String() string {
	return fmt.Sprintf("%s Trap of dimensions %g, %g, %g, %g, %g, %g, %g, %g, %g, %g, %g",
		t.Name, t.DZ, t.Theta, t.Phi, t.H1, t.BL1, t.TL1, t.Alp1, t.H2, t.BL2, t.TL2, t.Alp2)
}

// Polyhedra is a polygonal solid of revolution with Sides faces covering
// DeltaPhi starting at StartPhi. Z, RMin and RMax describe the cross-section;
// radii are measured to the faces, not to the corners.
type Polyhedra struct {
	Name     Name      `json:"name"`
	Sides    int       `json:"sides"`
	StartPhi float64   `json:"start_phi"`
	DeltaPhi float64   `json:"delta_phi"`
	Z        []float64 `json:"z"`
	RMin     []float64 `json:"rmin"`
	RMax     []float64 `json:"rmax"`
}

func (p *Polyhedra) SolidName() Name  { return p.Name }
func (p *Polyhedra) Kind() SolidKind { return SolidPolyhedra }

func (p *Polyhedra) String() string {
	return fmt.Sprintf("%s Polyhedra with %d sectors from %g to %g rad and %d sections",
		p.Name, p.Sides, p.StartPhi, p.StartPhi+p.DeltaPhi, len(p.Z))
}

// ---------------------------------------------------------------------------
// Logical parts
// ---------------------------------------------------------------------------

// LogicalPart pairs a solid with a material. It is defined once and may be
// placed many times.
type LogicalPart struct {
	Name     Name `json:"name"`
	Solid    Name `json:"solid"`
	Material Name `json:"material"`
}
