package cable

import (
	"fmt"
	"math"
	"strconv"

	"github.com/golang/geo/r3"

	"github.com/chazu/ddcable/pkg/graph"
)

const deg = math.Pi / 180

// Step is one registry operation of a Plan.
type Step interface {
	fmt.Stringer
	apply(a *applier) error
}

// DefineSolid registers a solid.
type DefineSolid struct {
	Solid graph.Solid
}

func (s DefineSolid) String() string { return fmt.Sprint(s.Solid) }

// DefinePart registers a logical part.
type DefinePart struct {
	Part *graph.LogicalPart
}

func (s DefinePart) String() string {
	return fmt.Sprintf("%s of %s made of %s", s.Part.Name, s.Part.Solid, s.Part.Material)
}

// RotationRef says how a placement's rotation is obtained.
//
// With only Lookup set the rotation must already exist. With only Define
// set the rotation is always registered, replacing any rotation of that
// name. With both, Lookup is tried first and Define is registered only
// when the lookup fails. Lookup and Define.Name may be in different
// namespaces.
type RotationRef struct {
	Lookup graph.Name
	Define *graph.Rotation
}

func (r *RotationRef) String() string {
	switch {
	case r == nil:
		return "no rotation"
	case r.Define == nil:
		return r.Lookup.String()
	case r.Lookup.IsZero():
		return "new " + r.Define.String()
	default:
		return fmt.Sprintf("%s or new %s", r.Lookup, r.Define)
	}
}

// Place positions a copy of Child in Parent. A nil Rotation is the identity.
type Place struct {
	Child       graph.Name
	Parent      graph.Name
	Copy        int
	Translation r3.Vector
	Rotation    *RotationRef
}

func (s Place) String() string {
	t := s.Translation
	return fmt.Sprintf("%s number %d in %s at (%g,%g,%g) with %s",
		s.Child, s.Copy, s.Parent, t.X, t.Y, t.Z, s.Rotation)
}

// Plan is the full list of registry operations for one invocation, in the
// order they must be applied.
type Plan struct {
	Config  Config
	Naming  Naming
	Profile Profile
	Steps   []Step
}

// Placements returns the placement steps of the plan.
func (p *Plan) Placements() []Place {
	var out []Place
	for _, s := range p.Steps {
		if pl, ok := s.(Place); ok {
			out = append(out, pl)
		}
	}
	return out
}

// PlacementsOf returns the placement steps whose child is name.
func (p *Plan) PlacementsOf(name graph.Name) []Place {
	var out []Place
	for _, pl := range p.Placements() {
		if pl.Child == name {
			out = append(out, pl)
		}
	}
	return out
}

// Names of the entities a plan creates, by role.
func (n Naming) Envelope() graph.Name { return n.local("") }
func (n Naming) Sector() graph.Name   { return n.local("Module") }
func (n Naming) Trap() graph.Name     { return n.local("Trap") }
func (n Naming) Cable1() graph.Name   { return n.local("Cable1") }
func (n Naming) Cable2() graph.Name   { return n.local("Cable2") }

// SectorRotationName names the rotation of a sector at phiDeg degrees:
// "R" then a leading zero below 100 degrees, then phiDeg with up to six
// significant digits. 20 gives R020, 5 gives R05 and 135 gives R135.
func SectorRotationName(phiDeg float64) string {
	prefix := "R"
	if phiDeg < 100 {
		prefix = "R0"
	}
	return prefix + strconv.FormatFloat(phiDeg, 'g', 6, 64)
}

// Build derives the complete construction plan. It does not touch any
// registry and returns the same plan for the same inputs.
func Build(cfg Config, n Naming) *Plan {
	prof := DeriveProfile(cfg)
	trap := deriveTrap(cfg, prof)
	alpha := prof.HalfSectorAngle

	genMat := n.material(cfg.GeneralMaterial)
	absMat := n.material(cfg.AbsorberMaterial)

	plan := &Plan{Config: cfg, Naming: n, Profile: prof}
	add := func(s Step) { plan.Steps = append(plan.Steps, s) }
	define := func(sol graph.Solid, material graph.Name) {
		add(DefineSolid{Solid: sol})
		add(DefinePart{Part: &graph.LogicalPart{Name: sol.SolidName(), Solid: sol.SolidName(), Material: material}})
	}

	// Envelope, mirrored into the second half when there is one.
	envelope := n.Envelope()
	define(&graph.Polyhedra{
		Name:     envelope,
		Sides:    cfg.TotalSectorCount,
		StartPhi: -alpha,
		DeltaPhi: prof.TotalAngularSpan,
		Z:        prof.Z,
		RMin:     prof.RMin,
		RMax:     prof.RMax,
	}, genMat)
	add(Place{Child: envelope, Parent: n.Parent, Copy: 1})
	if cfg.HalfCount != 1 {
		add(Place{
			Child: envelope, Parent: n.Parent, Copy: 2,
			Rotation: &RotationRef{Lookup: graph.NewName("180D", n.RotationNamespace)},
		})
	}

	// One sector, replicated around phi.
	sector := n.Sector()
	define(&graph.Polyhedra{
		Name:     sector,
		Sides:    1,
		StartPhi: -alpha,
		DeltaPhi: 2 * alpha,
		Z:        prof.Z,
		RMin:     prof.RMin,
		RMax:     prof.RMax,
	}, genMat)
	for i := 0; i < cfg.TotalSectorCount; i++ {
		phi := float64(i) * 2 * alpha
		phiDeg := phi / deg
		var ref *RotationRef
		if phiDeg != 0 {
			name := SectorRotationName(phiDeg)
			ref = &RotationRef{
				Lookup: graph.NewName(name, n.RotationNamespace),
				Define: graph.NewRotation(graph.NewName(name, n.Namespace),
					90*deg, phiDeg*deg, 90*deg, (90+phiDeg)*deg, 0, 0),
			}
		}
		add(Place{Child: sector, Parent: envelope, Copy: i + 1, Rotation: ref})
	}

	// Air trapezoid tilted to follow the sloped face of the envelope.
	th2 := cfg.Theta[2]
	trapName := n.Trap()
	define(&graph.Trap{
		Name: trapName,
		DZ:   trap.DZ,
		H1:   trap.DY, BL1: trap.DX1, TL1: trap.DX1,
		H2: trap.DY, BL2: trap.DX2, TL2: trap.DX2,
	}, genMat)
	add(Place{
		Child: trapName, Parent: sector, Copy: 1,
		Translation: r3.Vector{
			X: 0.5 * (trap.RInL + trap.ROutL),
			Z: 0.5 * (prof.Z[1] + prof.Z[2]),
		},
		Rotation: &RotationRef{Define: graph.NewRotation(trapName,
			90*deg, 270*deg, 180*deg-th2, 0, 90*deg-th2, 0)},
	})

	// Cable type 1 runs along both slanted sides of the trapezoid.
	phi := trap.cableTilt()
	xmid := 0.5 * (trap.DX1 + trap.DX2)
	x1 := xmid - 0.5*cfg.Width1*math.Cos(phi)
	cable1 := n.Cable1()
	define(&graph.Box{Name: cable1, DX: 0.5 * cfg.Width1, DY: 0.5 * cfg.Thickness, DZ: 0.5 * cfg.Length1}, absMat)
	add(Place{
		Child: cable1, Parent: trapName, Copy: 1,
		Translation: r3.Vector{X: x1},
		Rotation: &RotationRef{Define: graph.NewRotation(n.local("Left"),
			90*deg+phi, 0, 90*deg, 90*deg, phi, 0)},
	})
	add(Place{
		Child: cable1, Parent: trapName, Copy: 2,
		Translation: r3.Vector{X: -x1},
		Rotation: &RotationRef{Define: graph.NewRotation(n.local("Right"),
			90*deg-phi, 0, 90*deg, 90*deg, -phi, 0)},
	})

	// Cable type 2 is a pair either side of the axis.
	xpos := 0.5 * (cfg.Width2 + cfg.Gap2)
	cable2 := n.Cable2()
	define(&graph.Box{Name: cable2, DX: 0.5 * cfg.Width2, DY: 0.5 * cfg.Thickness, DZ: 0.5 * cfg.Length2}, absMat)
	add(Place{Child: cable2, Parent: trapName, Copy: 1, Translation: r3.Vector{X: xpos}})
	add(Place{Child: cable2, Parent: trapName, Copy: 2, Translation: r3.Vector{X: -xpos}})

	return plan
}
