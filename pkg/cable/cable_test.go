package cable_test

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/ddcable/pkg/algo"
	"github.com/chazu/ddcable/pkg/cable"
	"github.com/chazu/ddcable/pkg/graph"
)

const (
	ns    = "hcal"
	rotNS = "hcalrotations"
)

var world = graph.NewName("World", ns)

// testArgs is a configuration whose envelope profile is valid:
// z strictly increasing and rmin <= rmax at every plane.
func testArgs(nsectors, nsectortot, nhalf float64) *algo.Arguments {
	args := algo.NewArguments()
	args.String["MaterialName"] = "materials:Air"
	args.String["AbsMatName"] = "materials:Copper"
	args.String["MotherName"] = "HBCable"
	args.String["RotNameSpace"] = rotNS
	args.Numeric["NSector"] = nsectors
	args.Numeric["NSectorTot"] = nsectortot
	args.Numeric["NHalf"] = nhalf
	args.Numeric["RIn"] = 1000
	args.Numeric["Thickness"] = 20
	args.Numeric["Width1"] = 30
	args.Numeric["Length1"] = 40
	args.Numeric["Width2"] = 20
	args.Numeric["Length2"] = 25
	args.Numeric["Gap2"] = 5
	args.Vector["Theta"] = []float64{0, 0.3, 0.8, 0}
	args.Vector["RMax"] = []float64{0, 1100, 1300, 0}
	args.Vector["ZOff"] = []float64{0, 500, 0, 1000}
	return args
}

func testContext() algo.Context {
	return algo.Context{Parent: world, Namespace: ns}
}

// newStore returns a store holding the world volume, the materials and the
// shared 180 degree flip.
func newStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	for _, m := range []string{"Air", "Copper"} {
		require.NoError(t, s.AddMaterial(&graph.Material{Name: graph.NewName(m, "materials")}))
	}
	_, err := graph.DefineBox(s, world, graph.NewName("Air", "materials"), 5000, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, s.AddRotation(graph.NewRotation(graph.NewName("180D", rotNS),
		math.Pi/2, math.Pi, math.Pi/2, math.Pi/2, math.Pi, 0)))
	return s
}

func buildPlan(t *testing.T, args *algo.Arguments) *cable.Plan {
	t.Helper()
	cfg, err := cable.ConfigFromArguments(args)
	require.NoError(t, err)
	naming, err := cable.NamingFromArguments(args, testContext())
	require.NoError(t, err)
	return cable.Build(cfg, naming)
}

func TestDeriveProfile(t *testing.T) {
	plan := buildPlan(t, testArgs(18, 18, 2))
	p := plan.Profile

	assert.InDelta(t, math.Pi/18, p.HalfSectorAngle, 1e-15)
	assert.InDelta(t, 2*math.Pi, p.TotalAngularSpan, 1e-12)

	want := []float64{737.3060188655492, 766.0125028589939, 1000, 1028.7064839934449}
	assert.InDeltaSlice(t, want, p.Z, 1e-9)
	assert.InDeltaSlice(t, []float64{1000, 1000, 1227.2520735930061, 1300}, p.RMin, 1e-9)
	assert.InDeltaSlice(t, []float64{1000, 1027.8801563877728, 1300, 1300}, p.RMax, 1e-9)
	assert.NoError(t, p.Check())
}

func TestProfileCheckReportsOverhang(t *testing.T) {
	args := testArgs(36, 36, 2)
	args.Vector["Theta"] = []float64{0, 0.2, 0.3, 0}
	args.Vector["ZOff"] = []float64{0, 500, 0, 900}

	p := buildPlan(t, args).Profile
	assert.InDelta(t, 1604.576909775927, p.RStep0, 1e-9)

	err := p.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rmin[2]")
}

func TestSectorRotationName(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{5, "R05"},
		{20, "R020"},
		{45, "R045"},
		{59.99999999999999, "R060"},
		{135, "R135"},
		{134.99999999999997, "R135"},
		{337.5, "R337.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cable.SectorRotationName(tt.deg), "deg=%v", tt.deg)
	}
}

func TestEnvelopeHalves(t *testing.T) {
	for _, tt := range []struct {
		nhalf float64
		want  int
	}{{2, 2}, {1, 1}, {0, 2}} {
		plan := buildPlan(t, testArgs(18, 18, tt.nhalf))
		env := plan.PlacementsOf(plan.Naming.Envelope())
		require.Len(t, env, tt.want, "nhalf=%v", tt.nhalf)

		assert.Nil(t, env[0].Rotation)
		assert.Equal(t, world, env[0].Parent)
		if tt.want == 2 {
			require.NotNil(t, env[1].Rotation)
			assert.Equal(t, graph.NewName("180D", rotNS), env[1].Rotation.Lookup)
			assert.Nil(t, env[1].Rotation.Define)
		}
	}
}

func TestSectorReplication(t *testing.T) {
	plan := buildPlan(t, testArgs(8, 8, 2))
	sectors := plan.PlacementsOf(plan.Naming.Sector())
	require.Len(t, sectors, 8)

	names := []string{"", "R045", "R090", "R135", "R180", "R225", "R270", "R315"}
	for i, p := range sectors {
		assert.Equal(t, i+1, p.Copy)
		assert.Equal(t, plan.Naming.Envelope(), p.Parent)
		assert.Equal(t, 0.0, p.Translation.Norm())
		if i == 0 {
			assert.Nil(t, p.Rotation)
			continue
		}
		require.NotNil(t, p.Rotation)
		assert.Equal(t, graph.NewName(names[i], rotNS), p.Rotation.Lookup)
		assert.Equal(t, graph.NewName(names[i], ns), p.Rotation.Define.Name)

		phi := float64(i) * 2 * math.Pi / 8
		assert.InDelta(t, phi, p.Rotation.Define.PhiX, 1e-12)
		assert.InDelta(t, phi+math.Pi/2, p.Rotation.Define.PhiY, 1e-12)
	}
}

func TestPartialRing(t *testing.T) {
	plan := buildPlan(t, testArgs(18, 4, 1))
	assert.InDelta(t, 4*2*math.Pi/18, plan.Profile.TotalAngularSpan, 1e-12)
	assert.Len(t, plan.PlacementsOf(plan.Naming.Sector()), 4)

	env, ok := plan.Steps[0].(cable.DefineSolid)
	require.True(t, ok)
	poly := env.Solid.(*graph.Polyhedra)
	assert.Equal(t, 4, poly.Sides)
	assert.InDelta(t, -math.Pi/18, poly.StartPhi, 1e-15)
}

func TestTrapPlacement(t *testing.T) {
	plan := buildPlan(t, testArgs(18, 18, 2))
	traps := plan.PlacementsOf(plan.Naming.Trap())
	require.Len(t, traps, 1)

	p := traps[0]
	assert.Equal(t, plan.Naming.Sector(), p.Parent)
	assert.InDelta(t, 0.5*(1014.3471218179905+1285.6528781820095), p.Translation.X, 1e-9)
	assert.Zero(t, p.Translation.Y)
	assert.InDelta(t, 0.5*(766.0125028589939+1000), p.Translation.Z, 1e-9)

	require.NotNil(t, p.Rotation)
	assert.True(t, p.Rotation.Lookup.IsZero())
	assert.Equal(t, graph.NewName("HBCableTrap", ns), p.Rotation.Define.Name)
	assert.InDelta(t, math.Pi-0.8, p.Rotation.Define.ThetaY, 1e-12)
	assert.InDelta(t, math.Pi/2-0.8, p.Rotation.Define.ThetaZ, 1e-12)
	assert.NoError(t, p.Rotation.Define.CheckProper())

	var trap *graph.Trap
	for _, s := range plan.Steps {
		if d, ok := s.(cable.DefineSolid); ok && d.Solid.SolidName() == plan.Naming.Trap() {
			trap = d.Solid.(*graph.Trap)
		}
	}
	require.NotNil(t, trap)
	assert.True(t, trap.IsRightPrism())
	assert.InDelta(t, 10, trap.H1, 1e-12)
	assert.InDelta(t, 178.8567653804878, trap.BL1, 1e-9)
	assert.InDelta(t, 204.0257612240835, trap.BL2, 1e-9)
	assert.InDelta(t, 135.65287818200954, trap.DZ, 1e-9)
}

func TestCableType1(t *testing.T) {
	plan := buildPlan(t, testArgs(18, 18, 2))
	cables := plan.PlacementsOf(plan.Naming.Cable1())
	require.Len(t, cables, 2)

	phi := 0.09250508805931147
	x := 176.50539648426235
	left, right := cables[0], cables[1]
	assert.Equal(t, plan.Naming.Trap(), left.Parent)
	assert.InDelta(t, x, left.Translation.X, 1e-9)
	assert.InDelta(t, -x, right.Translation.X, 1e-9)

	assert.Equal(t, graph.NewName("HBCableLeft", ns), left.Rotation.Define.Name)
	assert.InDelta(t, math.Pi/2+phi, left.Rotation.Define.ThetaX, 1e-12)
	assert.InDelta(t, phi, left.Rotation.Define.ThetaZ, 1e-12)
	assert.Equal(t, graph.NewName("HBCableRight", ns), right.Rotation.Define.Name)
	assert.InDelta(t, math.Pi/2-phi, right.Rotation.Define.ThetaX, 1e-12)
	assert.InDelta(t, -phi, right.Rotation.Define.ThetaZ, 1e-12)
}

func TestCableType2Symmetric(t *testing.T) {
	plan := buildPlan(t, testArgs(18, 18, 2))
	cables := plan.PlacementsOf(plan.Naming.Cable2())
	require.Len(t, cables, 2)

	assert.Equal(t, []int{1, 2}, []int{cables[0].Copy, cables[1].Copy})
	assert.InDelta(t, 12.5, cables[0].Translation.X, 1e-12)
	assert.Equal(t, -cables[0].Translation.X, cables[1].Translation.X)
	for _, c := range cables {
		assert.Nil(t, c.Rotation)
		assert.Zero(t, c.Translation.Y)
		assert.Zero(t, c.Translation.Z)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := buildPlan(t, testArgs(18, 18, 2))
	b := buildPlan(t, testArgs(18, 18, 2))
	assert.Equal(t, a, b)
}

func TestApplyEndToEnd(t *testing.T) {
	// Placement counts do not depend on whether the profile is valid.
	args := testArgs(36, 36, 2)
	args.Vector["Theta"] = []float64{0, 0.2, 0.3, 0}
	args.Vector["ZOff"] = []float64{0, 500, 0, 900}

	s := newStore(t)
	plan := buildPlan(t, args)
	stats, err := cable.Apply(plan, s, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	n := plan.Naming
	assert.Len(t, s.PlacementsOf(n.Envelope()), 2)
	assert.Len(t, s.PlacementsOf(n.Sector()), 36)
	assert.Len(t, s.PlacementsOf(n.Trap()), 1)
	assert.Len(t, s.PlacementsOf(n.Cable1()), 2)
	assert.Len(t, s.PlacementsOf(n.Cable2()), 2)

	assert.Equal(t, 43, stats.Placements)
	assert.Equal(t, 5, stats.Solids)
	assert.Equal(t, 5, stats.LogicalParts)
	assert.Equal(t, 1, stats.RotationsReused) // 180D
	assert.Equal(t, 35+3, stats.RotationsCreated)

	lp, ok := s.LogicalPart(n.Cable1())
	require.True(t, ok)
	assert.Equal(t, graph.NewName("Copper", "materials"), lp.Material)
}

func TestApplyValidStoreValidates(t *testing.T) {
	s := newStore(t)
	_, err := cable.Apply(buildPlan(t, testArgs(18, 18, 2)), s, nil)
	require.NoError(t, err)

	res := graph.ValidateAll(s)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestMissingFlipRotation(t *testing.T) {
	s := graph.NewStore()
	_, err := graph.DefineBox(s, world, graph.NewName("Air", "materials"), 5000, 5000, 5000)
	require.NoError(t, err)

	_, err = cable.Apply(buildPlan(t, testArgs(18, 18, 2)), s, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cable.ErrMissingRotation))
	assert.Contains(t, err.Error(), "hcalrotations:180D")
	assert.Len(t, s.PlacementsOf(graph.NewName("HBCable", ns)), 1)

	// A single half never needs the flip.
	s2 := graph.NewStore()
	_, err = graph.DefineBox(s2, world, graph.NewName("Air", "materials"), 5000, 5000, 5000)
	require.NoError(t, err)
	_, err = cable.Apply(buildPlan(t, testArgs(18, 18, 1)), s2, nil)
	assert.NoError(t, err)
}

func TestRotationsReusedAcrossRuns(t *testing.T) {
	s := newStore(t)

	// Rotations are looked up where they are created, so the second run
	// finds every sector rotation of the first.
	first := testArgs(18, 18, 2)
	first.String["RotNameSpace"] = ns
	require.NoError(t, s.AddRotation(graph.NewRotation(graph.NewName("180D", ns),
		math.Pi/2, math.Pi, math.Pi/2, math.Pi/2, math.Pi, 0)))

	stats, err := cable.Apply(buildPlan(t, first), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 17+3, stats.RotationsCreated)
	rotations := len(s.Rotations)

	second := testArgs(18, 18, 2)
	second.String["RotNameSpace"] = ns
	second.String["MotherName"] = "HECable"
	stats, err = cable.Apply(buildPlan(t, second), s, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.RotationsCreated)
	assert.Equal(t, 17+1, stats.RotationsReused)
	assert.Equal(t, rotations+3, len(s.Rotations))

	_, ok := s.Rotation(graph.NewName("R020", ns))
	assert.True(t, ok)
}

func TestSharedRotationNamespaceIsPreferred(t *testing.T) {
	s := newStore(t)
	shared := graph.NewRotation(graph.NewName("R045", rotNS), math.Pi/2, math.Pi/4, math.Pi/2, 3*math.Pi/4, 0, 0)
	require.NoError(t, s.AddRotation(shared))

	_, err := cable.Apply(buildPlan(t, testArgs(8, 8, 2)), s, nil)
	require.NoError(t, err)

	_, local := s.Rotation(graph.NewName("R045", ns))
	assert.False(t, local)
	_, local = s.Rotation(graph.NewName("R090", ns))
	assert.True(t, local)

	for _, p := range s.PlacementsOf(graph.NewName("HBCableModule", ns)) {
		if p.Copy == 2 {
			assert.Equal(t, shared.Name, p.Rotation)
		}
	}
}

func TestConfigMissingKey(t *testing.T) {
	for _, key := range []string{"Gap2", "NSector", "RIn", "Width1"} {
		args := testArgs(18, 18, 2)
		delete(args.Numeric, key)
		_, err := cable.ConfigFromArguments(args)
		require.Error(t, err, key)
		assert.True(t, errors.Is(err, algo.ErrMissingKey), key)
		assert.Contains(t, err.Error(), key)
	}

	args := testArgs(18, 18, 2)
	delete(args.String, "AbsMatName")
	_, err := cable.ConfigFromArguments(args)
	assert.True(t, errors.Is(err, algo.ErrMissingKey))

	args = testArgs(18, 18, 2)
	delete(args.String, "RotNameSpace")
	_, err = cable.NamingFromArguments(args, testContext())
	assert.True(t, errors.Is(err, algo.ErrMissingKey))
}

func TestConfigMalformed(t *testing.T) {
	args := testArgs(18, 18, 2)
	args.Vector["RMax"] = []float64{0, 1100, 1300}
	_, err := cable.ConfigFromArguments(args)
	assert.True(t, errors.Is(err, algo.ErrMalformedKey))

	args = testArgs(0, 18, 2)
	_, err = cable.ConfigFromArguments(args)
	assert.True(t, errors.Is(err, algo.ErrMalformedKey))
}

func TestConfigTruncatesCounts(t *testing.T) {
	cfg, err := cable.ConfigFromArguments(testArgs(18.9, 4.2, 1.7))
	require.NoError(t, err)
	assert.Equal(t, 18, cfg.SectorCount)
	assert.Equal(t, 4, cfg.TotalSectorCount)
	assert.Equal(t, 1, cfg.HalfCount)
}

func TestAlgorithmRegistered(t *testing.T) {
	assert.Contains(t, algo.Registered(), cable.AlgorithmName)

	s := newStore(t)
	err := algo.Run(cable.AlgorithmName, testArgs(18, 18, 2), testContext(), s, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Equal(t, 2+18+1+2+2, s.PlacementCount())
}

func TestAlgorithmMissingKeyPropagates(t *testing.T) {
	args := testArgs(18, 18, 2)
	delete(args.Vector, "Theta")
	err := algo.Run(cable.AlgorithmName, args, testContext(), newStore(t), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, algo.ErrMissingKey))
}

func TestExecuteBeforeInitialize(t *testing.T) {
	a := cable.NewAlgorithm(zap.NewNop().Sugar())
	assert.Error(t, a.Execute(graph.NewStore()))
}

func TestApplyNarratesAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := newStore(t)
	plan := buildPlan(t, testArgs(8, 8, 2))
	_, err := cable.Apply(plan, s, zap.New(core).Sugar())
	require.NoError(t, err)

	assert.Equal(t, 2+8+1+2+2, logs.FilterMessage("positioned").Len())
	assert.Equal(t, 5, logs.FilterMessage("solid").Len())
	assert.Equal(t, 7+3, logs.FilterMessage("created rotation").Len())
	for _, e := range logs.All() {
		assert.Equal(t, zapcore.DebugLevel, e.Level)
	}
}
