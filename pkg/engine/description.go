package engine

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/ddcable/pkg/algo"
	"github.com/chazu/ddcable/pkg/graph"
)

// Volume is a box logical part declared directly in the description,
// usually the world or a mother volume for algorithms to build into.
type Volume struct {
	Name       graph.Name
	Material   graph.Name
	DX, DY, DZ float64
}

// Invocation is one (algorithm ...) call.
type Invocation struct {
	Algorithm string
	Context   algo.Context
	Args      *algo.Arguments
}

// Description is everything a source file declares, in declaration order.
type Description struct {
	Materials  []*graph.Material
	Rotations  []*graph.Rotation
	Volumes    []Volume
	Placements []graph.Placement
	Algorithms []Invocation
}

// NewDescription returns an empty description.
func NewDescription() *Description {
	return &Description{}
}

// Populate registers the declared entities in s and then runs every
// algorithm invocation against it, in order. Algorithms run after all
// declarations so they can refer to any declared volume or rotation.
func (d *Description) Populate(s *graph.Store, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	for _, m := range d.Materials {
		if err := s.AddMaterial(m); err != nil {
			return err
		}
	}
	for _, r := range d.Rotations {
		if err := s.AddRotation(r); err != nil {
			return err
		}
	}
	for _, v := range d.Volumes {
		if _, err := graph.DefineBox(s, v.Name, v.Material, v.DX, v.DY, v.DZ); err != nil {
			return errors.Wrapf(err, "volume %s", v.Name)
		}
	}
	for _, p := range d.Placements {
		if err := s.Position(p); err != nil {
			return err
		}
	}
	for _, inv := range d.Algorithms {
		logger.Infow("running algorithm", "algorithm", inv.Algorithm, "parent", inv.Context.Parent)
		if err := algo.Run(inv.Algorithm, inv.Args, inv.Context, s, logger); err != nil {
			return err
		}
	}
	return nil
}

func vec(v []float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
