// Package cable builds the cable mockup that fills the gap between the
// HCAL barrel and endcap: a polygonal envelope of revolution split into
// phi sectors, each holding an air trapezoid that carries two pairs of
// absorber cable boxes.
//
// Construction is split in two. Build derives every solid, logical part
// and placement from a Config as a Plan without touching any registry;
// Apply then writes the plan into a graph.Registry. Algorithm wraps both
// for the host algorithm registry.
package cable

import (
	"github.com/pkg/errors"

	"github.com/chazu/ddcable/pkg/algo"
	"github.com/chazu/ddcable/pkg/graph"
)

// AlgorithmName is the name the builder is registered under.
const AlgorithmName = "hcal:DDHCalTBCableAlgo"

// Config is the geometry configuration of one invocation. Lengths are in
// millimetres and angles in radians. Theta, RMax and ZOffset are indexed
// by the four axial reference planes; only indices 1 to 3 are read.
type Config struct {
	GeneralMaterial  string // envelope, sector and trapezoid fill
	AbsorberMaterial string // cable boxes

	SectorCount      int // sectors in a full turn
	TotalSectorCount int // sectors actually built
	HalfCount        int // 1 builds one half, anything else mirrors it

	InnerRadius float64
	Thickness   float64
	Width1      float64
	Length1     float64
	Width2      float64
	Length2     float64
	Gap2        float64

	Theta   []float64
	RMax    []float64
	ZOffset []float64
}

// ConfigFromArguments reads a Config from the host argument bag. The first
// missing key is returned as is; errors.Is matches algo.ErrMissingKey.
func ConfigFromArguments(args *algo.Arguments) (Config, error) {
	var cfg Config
	r := argReader{args: args}

	cfg.GeneralMaterial = r.str("MaterialName")
	cfg.SectorCount = r.count("NSector")
	cfg.TotalSectorCount = r.count("NSectorTot")
	cfg.HalfCount = r.count("NHalf")
	cfg.InnerRadius = r.num("RIn")
	cfg.Theta = r.vec("Theta")
	cfg.RMax = r.vec("RMax")
	cfg.ZOffset = r.vec("ZOff")
	cfg.AbsorberMaterial = r.str("AbsMatName")
	cfg.Thickness = r.num("Thickness")
	cfg.Width1 = r.num("Width1")
	cfg.Length1 = r.num("Length1")
	cfg.Width2 = r.num("Width2")
	cfg.Length2 = r.num("Length2")
	cfg.Gap2 = r.num("Gap2")

	if r.err != nil {
		return Config{}, r.err
	}
	if cfg.SectorCount == 0 {
		return Config{}, errors.Wrap(algo.ErrMalformedKey, "NSector must not be zero")
	}
	return cfg, nil
}

// planes is the number of axial reference planes in Theta, RMax and ZOff.
const planes = 4

// argReader reads arguments until the first failure, then records that
// error and returns zero values.
type argReader struct {
	args *algo.Arguments
	err  error
}

func (r *argReader) num(key string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.args.Number(key)
	r.err = err
	return v
}

// count truncates toward zero like an integer conversion.
func (r *argReader) count(key string) int {
	return int(r.num(key))
}

func (r *argReader) str(key string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.args.Str(key)
	r.err = err
	return v
}

func (r *argReader) vec(key string) []float64 {
	if r.err != nil {
		return nil
	}
	v, err := r.args.Vec(key, planes)
	r.err = err
	return v
}

// Naming is where the builder puts the names it creates.
type Naming struct {
	MotherName        string     // prefix of every solid, part and local rotation
	Namespace         string     // namespace new entities are created in
	RotationNamespace string     // namespace shared rotations are looked up in
	Parent            graph.Name // logical part the envelope is placed in
}

// NamingFromArguments reads MotherName and RotNameSpace and combines them
// with the invocation context.
func NamingFromArguments(args *algo.Arguments, ctx algo.Context) (Naming, error) {
	r := argReader{args: args}
	n := Naming{
		MotherName:        r.str("MotherName"),
		RotationNamespace: r.str("RotNameSpace"),
		Namespace:         ctx.Namespace,
		Parent:            ctx.Parent,
	}
	if r.err != nil {
		return Naming{}, r.err
	}
	if n.MotherName == "" {
		return Naming{}, errors.Wrap(algo.ErrMalformedKey, "MotherName is empty")
	}
	if n.Parent.IsZero() {
		return Naming{}, errors.New("cable mockup invoked without a parent volume")
	}
	return n, nil
}

// local names an entity created by this invocation.
func (n Naming) local(suffix string) graph.Name {
	return graph.NewName(n.MotherName+suffix, n.Namespace)
}

// material resolves a material reference; a bare name is taken to be in
// the current namespace.
func (n Naming) material(ref string) graph.Name {
	return graph.ParseName(ref, n.Namespace)
}
