package tessellate_test

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/ddcable/pkg/algo"
	"github.com/chazu/ddcable/pkg/cable"
	"github.com/chazu/ddcable/pkg/graph"
	"github.com/chazu/ddcable/pkg/kernel"
	"github.com/chazu/ddcable/pkg/kernel/sdfx"
	"github.com/chazu/ddcable/pkg/tessellate"
)

// placedSolid remembers the pose it was given.
type placedSolid struct {
	kind string
	rot  mat.Matrix
	t    r3.Vector
}

func (s *placedSolid) BoundingBox() (min, max [3]float64) { return }

// recordingKernel counts primitive constructions and keeps poses.
type recordingKernel struct {
	built int
}

func (k *recordingKernel) Box(_, _, _ float64) (kernel.Solid, error) {
	k.built++
	return &placedSolid{kind: "box"}, nil
}

func (k *recordingKernel) Trap(_, _, _, _ float64) (kernel.Solid, error) {
	k.built++
	return &placedSolid{kind: "trap"}, nil
}

func (k *recordingKernel) Polyhedra(int, float64, float64, []float64, []float64, []float64) (kernel.Solid, error) {
	k.built++
	return &placedSolid{kind: "polyhedra"}, nil
}

func (k *recordingKernel) Union(a, _ kernel.Solid) kernel.Solid { return a }

func (k *recordingKernel) Transform(s kernel.Solid, rot mat.Matrix, t r3.Vector) (kernel.Solid, error) {
	return &placedSolid{kind: s.(*placedSolid).kind, rot: rot, t: t}, nil
}

func (k *recordingKernel) ToMesh(kernel.Solid) (*kernel.Mesh, error) {
	return &kernel.Mesh{Vertices: []float32{0, 0, 0}}, nil
}

func n(name string) graph.Name { return graph.NewName(name, "test") }

// buildNested makes World > Mother (turned 90 degrees about z, raised 10)
// > Brick copies 1 and 2 at x = +-20.
func buildNested(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	air := n("Air")
	require.NoError(t, s.AddMaterial(&graph.Material{Name: air}))
	for _, b := range []struct {
		name       string
		dx, dy, dz float64
	}{{"World", 100, 100, 100}, {"Mother", 50, 50, 50}, {"Brick", 1, 2, 3}} {
		_, err := graph.DefineBox(s, n(b.name), air, b.dx, b.dy, b.dz)
		require.NoError(t, err)
	}
	require.NoError(t, s.AddRotation(graph.NewRotation(n("R90"),
		math.Pi/2, math.Pi/2, math.Pi/2, math.Pi, 0, 0)))
	require.NoError(t, s.Position(graph.Placement{
		Child: n("Mother"), Parent: n("World"), Copy: 1,
		Translation: r3.Vector{Z: 10}, Rotation: n("R90"),
	}))
	for i, x := range []float64{20, -20} {
		require.NoError(t, s.Position(graph.Placement{
			Child: n("Brick"), Parent: n("Mother"), Copy: i + 1, Translation: r3.Vector{X: x},
		}))
	}
	return s
}

func paths(parts []tessellate.Part) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.Path
	}
	return out
}

func TestBuildNested(t *testing.T) {
	k := &recordingKernel{}
	parts, err := tessellate.Build(buildNested(t), n("World"), k, tessellate.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"test:World",
		"test:World/test:Mother#1",
		"test:World/test:Mother#1/test:Brick#1",
		"test:World/test:Mother#1/test:Brick#2",
	}, paths(parts))
	assert.Equal(t, 3, k.built, "each solid is built once")

	brick := parts[2].Solid.(*placedSolid)
	assert.InDelta(t, 0, brick.t.X, 1e-9)
	assert.InDelta(t, 20, brick.t.Y, 1e-9)
	assert.InDelta(t, 10, brick.t.Z, 1e-9)
	assert.InDelta(t, -1, brick.rot.At(0, 1), 1e-9)

	other := parts[3].Solid.(*placedSolid)
	assert.InDelta(t, -20, other.t.Y, 1e-9)
	assert.Equal(t, 2, parts[3].Depth)
	assert.Equal(t, n("Brick"), parts[3].Volume)
}

func TestBuildOptions(t *testing.T) {
	s := buildNested(t)

	parts, err := tessellate.Build(s, n("World"), &recordingKernel{}, tessellate.Options{LeavesOnly: true})
	require.NoError(t, err)
	assert.Len(t, parts, 2)

	parts, err = tessellate.Build(s, n("World"), &recordingKernel{}, tessellate.Options{MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"test:World", "test:World/test:Mother#1"}, paths(parts))

	// Leaves are volumes without children, not where the walk stops.
	parts, err = tessellate.Build(s, n("World"), &recordingKernel{}, tessellate.Options{MaxDepth: 1, LeavesOnly: true})
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestTessellateNamesMeshes(t *testing.T) {
	meshes, err := tessellate.Tessellate(buildNested(t), n("World"), &recordingKernel{}, tessellate.Options{LeavesOnly: true})
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "test:World/test:Mother#1/test:Brick#2", meshes[1].PartName)
}

func TestBuildErrors(t *testing.T) {
	t.Run("unknown root", func(t *testing.T) {
		_, err := tessellate.Build(buildNested(t), n("Nowhere"), &recordingKernel{}, tessellate.Options{})
		assert.Error(t, err)
	})

	t.Run("cycle", func(t *testing.T) {
		s := buildNested(t)
		require.NoError(t, s.Position(graph.Placement{Child: n("World"), Parent: n("Brick"), Copy: 1}))
		_, err := tessellate.Build(s, n("World"), &recordingKernel{}, tessellate.Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "placement cycle")
	})

	t.Run("sheared trap", func(t *testing.T) {
		s := buildNested(t)
		require.NoError(t, s.AddSolid(&graph.Trap{Name: n("Wedge"), DZ: 1, Theta: 0.2, H1: 1, BL1: 1, TL1: 1, H2: 1, BL2: 1, TL2: 1}))
		require.NoError(t, s.AddLogicalPart(&graph.LogicalPart{Name: n("Wedge"), Solid: n("Wedge"), Material: n("Air")}))
		require.NoError(t, s.Position(graph.Placement{Child: n("Wedge"), Parent: n("World"), Copy: 1}))
		_, err := tessellate.Build(s, n("World"), &recordingKernel{}, tessellate.Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, kernel.ErrUnsupportedSolid)
	})

	t.Run("nil store", func(t *testing.T) {
		parts, err := tessellate.Build(nil, n("World"), &recordingKernel{}, tessellate.Options{})
		assert.NoError(t, err)
		assert.Nil(t, parts)
	})
}

func TestUnion(t *testing.T) {
	k := &recordingKernel{}
	assert.Nil(t, tessellate.Union(k, nil))

	parts, err := tessellate.Build(buildNested(t), n("World"), k, tessellate.Options{})
	require.NoError(t, err)
	assert.NotNil(t, tessellate.Union(k, parts))
}

// cableStore runs the cable mockup into a fresh world.
func cableStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	for _, m := range []string{"Air", "Copper"} {
		require.NoError(t, s.AddMaterial(&graph.Material{Name: graph.NewName(m, "materials")}))
	}
	world := graph.NewName("World", "hcal")
	_, err := graph.DefineBox(s, world, graph.NewName("Air", "materials"), 5000, 5000, 5000)
	require.NoError(t, err)
	require.NoError(t, s.AddRotation(graph.NewRotation(graph.NewName("180D", "hcalrotations"),
		math.Pi/2, math.Pi, math.Pi/2, math.Pi/2, math.Pi, 0)))

	args := algo.NewArguments()
	args.String["MaterialName"] = "materials:Air"
	args.String["AbsMatName"] = "materials:Copper"
	args.String["MotherName"] = "HBCable"
	args.String["RotNameSpace"] = "hcalrotations"
	for k, v := range map[string]float64{
		"NSector": 18, "NSectorTot": 18, "NHalf": 2, "RIn": 1000, "Thickness": 20,
		"Width1": 30, "Length1": 40, "Width2": 20, "Length2": 25, "Gap2": 5,
	} {
		args.Numeric[k] = v
	}
	args.Vector["Theta"] = []float64{0, 0.3, 0.8, 0}
	args.Vector["RMax"] = []float64{0, 1100, 1300, 0}
	args.Vector["ZOff"] = []float64{0, 500, 0, 1000}

	require.NoError(t, algo.Run(cable.AlgorithmName, args, algo.Context{Parent: world, Namespace: "hcal"}, s, nil))
	return s
}

func TestCableMockupPoses(t *testing.T) {
	s := cableStore(t)
	world := graph.NewName("World", "hcal")

	parts, err := tessellate.Build(s, world, &recordingKernel{}, tessellate.Options{})
	require.NoError(t, err)
	// world, 2 envelopes, 36 sectors, 36 traps, 72 of each cable
	assert.Len(t, parts, 1+2+36+36+72+72)

	const path = "hcal:World/hcal:HBCable#1/hcal:HBCableModule#1/hcal:HBCableTrap#1/hcal:HBCableCable2#1"
	var found *placedSolid
	for _, p := range parts {
		if p.Path == path {
			found = p.Solid.(*placedSolid)
		}
	}
	require.NotNil(t, found, "no part at %s", path)
	assert.Equal(t, "box", found.kind)
	// Trap centre at r = (rinl+routl)/2, its local x axis points along -y.
	assert.InDelta(t, 1150, found.t.X, 1e-6)
	assert.InDelta(t, -12.5, found.t.Y, 1e-6)
	assert.InDelta(t, 0.5*(766.0125028589939+1000), found.t.Z, 1e-6)

	leaves, err := tessellate.Build(s, world, &recordingKernel{}, tessellate.Options{LeavesOnly: true})
	require.NoError(t, err)
	assert.Len(t, leaves, 144)
}

func TestCableMockupWithSdfx(t *testing.T) {
	s := cableStore(t)
	parts, err := tessellate.Build(s, graph.NewName("World", "hcal"), sdfx.New(), tessellate.Options{LeavesOnly: true})
	require.NoError(t, err)
	require.Len(t, parts, 144)

	// Every cable sits between the envelope radii.
	for _, p := range parts {
		min, max := p.Solid.BoundingBox()
		for i := 0; i < 3; i++ {
			assert.Less(t, min[i], max[i], p.Path)
		}
		r := math.Hypot((min[0]+max[0])/2, (min[1]+max[1])/2)
		assert.Greater(t, r, 1000.0, p.Path)
		assert.Less(t, r, 1300.0, p.Path)
	}
}
