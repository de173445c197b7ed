package cable

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/ddcable/pkg/algo"
	"github.com/chazu/ddcable/pkg/graph"
)

func init() {
	algo.Register(AlgorithmName, NewAlgorithm)
}

// Algorithm adapts Build and Apply to algo.Algorithm.
type Algorithm struct {
	logger *zap.SugaredLogger
	cfg    Config
	naming Naming
	ready  bool

	// Stats of the last Execute.
	Stats Stats
}

// NewAlgorithm returns an uninitialized cable mockup algorithm.
func NewAlgorithm(logger *zap.SugaredLogger) algo.Algorithm {
	return &Algorithm{logger: logger}
}

// Initialize reads the configuration and naming context.
func (a *Algorithm) Initialize(args *algo.Arguments, ctx algo.Context) error {
	cfg, err := ConfigFromArguments(args)
	if err != nil {
		return err
	}
	naming, err := NamingFromArguments(args, ctx)
	if err != nil {
		return err
	}
	a.cfg, a.naming, a.ready = cfg, naming, true

	a.logger.Debugw("initialized",
		"material", cfg.GeneralMaterial,
		"sectors", cfg.SectorCount, "sectors_built", cfg.TotalSectorCount,
		"halves", cfg.HalfCount, "rin", cfg.InnerRadius,
		"theta", cfg.Theta, "rmax", cfg.RMax, "zoff", cfg.ZOffset,
		"absorber", cfg.AbsorberMaterial, "thickness", cfg.Thickness,
		"length1", cfg.Length1, "width1", cfg.Width1,
		"length2", cfg.Length2, "width2", cfg.Width2, "gap2", cfg.Gap2,
		"mother", naming.MotherName, "namespace", naming.Namespace,
		"rotation_namespace", naming.RotationNamespace, "parent", naming.Parent,
	)
	return nil
}

// Execute builds the plan and applies it to reg.
func (a *Algorithm) Execute(reg graph.Registry) error {
	if !a.ready {
		return errors.New("cable mockup executed before initialize")
	}
	stats, err := Apply(Build(a.cfg, a.naming), reg, a.logger)
	a.Stats = stats
	return err
}
