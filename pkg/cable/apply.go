package cable

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/ddcable/pkg/graph"
)

// ErrMissingRotation is returned when a placement refers to a shared
// rotation that nobody defined.
var ErrMissingRotation = errors.New("rotation not defined")

// Stats counts what Apply did.
type Stats struct {
	Solids           int
	LogicalParts     int
	Placements       int
	RotationsReused  int
	RotationsCreated int
}

type applier struct {
	reg   graph.Registry
	log   *zap.SugaredLogger
	stats Stats
}

// Apply writes the plan into reg step by step. It stops at the first
// failing step; whatever was registered before stays registered.
func Apply(plan *Plan, reg graph.Registry, logger *zap.SugaredLogger) (Stats, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := &applier{reg: reg, log: logger}

	logger.Debugw("constructing cable mockup",
		"envelope", plan.Naming.Envelope(),
		"parent", plan.Naming.Parent,
		"rotation_namespace", plan.Naming.RotationNamespace,
		"sectors", plan.Config.SectorCount,
		"sectors_built", plan.Config.TotalSectorCount,
		"halves", plan.Config.HalfCount,
	)
	for i := range plan.Profile.Z {
		logger.Debugw("profile section",
			"z", plan.Profile.Z[i], "rmin", plan.Profile.RMin[i], "rmax", plan.Profile.RMax[i])
	}

	for _, s := range plan.Steps {
		if err := s.apply(a); err != nil {
			return a.stats, err
		}
	}
	logger.Debugw("cable mockup done",
		"placements", a.stats.Placements,
		"rotations_created", a.stats.RotationsCreated,
		"rotations_reused", a.stats.RotationsReused,
	)
	return a.stats, nil
}

func (s DefineSolid) apply(a *applier) error {
	if err := a.reg.AddSolid(s.Solid); err != nil {
		return errors.Wrapf(err, "define solid %s", s.Solid.SolidName())
	}
	a.stats.Solids++
	a.log.Debugw("solid", "def", s.String())
	return nil
}

func (s DefinePart) apply(a *applier) error {
	if err := a.reg.AddLogicalPart(s.Part); err != nil {
		return errors.Wrapf(err, "define logical part %s", s.Part.Name)
	}
	a.stats.LogicalParts++
	a.log.Debugw("logical part", "def", s.String())
	return nil
}

func (s Place) apply(a *applier) error {
	rot, err := a.resolve(s.Rotation)
	if err != nil {
		return errors.Wrapf(err, "position %s number %d", s.Child, s.Copy)
	}
	p := graph.Placement{
		Child:       s.Child,
		Parent:      s.Parent,
		Copy:        s.Copy,
		Translation: s.Translation,
		Rotation:    rot,
	}
	if err := a.reg.Position(p); err != nil {
		return err
	}
	a.stats.Placements++
	a.log.Debugw("positioned", "placement", p.String())
	return nil
}

// resolve returns the name of the rotation a placement uses, registering it
// first when the reference asks for that.
func (a *applier) resolve(ref *RotationRef) (graph.Name, error) {
	if ref == nil {
		return graph.Name{}, nil
	}
	if !ref.Lookup.IsZero() {
		if _, ok := a.reg.Rotation(ref.Lookup); ok {
			a.stats.RotationsReused++
			return ref.Lookup, nil
		}
		if ref.Define == nil {
			return graph.Name{}, errors.Wrapf(ErrMissingRotation, "%s", ref.Lookup)
		}
	}
	if err := a.reg.AddRotation(ref.Define); err != nil {
		return graph.Name{}, errors.Wrapf(err, "define rotation %s", ref.Define.Name)
	}
	a.stats.RotationsCreated++
	d := ref.Define.Degrees()
	a.log.Debugw("created rotation", "name", ref.Define.Name, "degrees", d[:])
	return ref.Define.Name, nil
}
