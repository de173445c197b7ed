package engine

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chazu/ddcable/pkg/algo"
	"github.com/chazu/ddcable/pkg/cable"
	"github.com/chazu/ddcable/pkg/graph"
)

// cableSource declares a world, the shared flip rotation and one cable
// mockup invocation.
const cableSource = `
;; HCAL barrel/endcap cable mockup
(namespace "hcal")

(material "materials:Air" :density 0.0012)
(material "materials:Copper" :density 8.96)
(rotation "hcalrotations:180D" 90 180 90 90 180 0)

(def world (box "World" :material "materials:Air" :dx (m 5) :dy (m 5) :dz (m 5)))

(algorithm "hcal:DDHCalTBCableAlgo" :parent world
  :MotherName "HBCable"
  :RotNameSpace "hcalrotations"
  :MaterialName "materials:Air"
  :AbsMatName "materials:Copper"
  :NSector 18 :NSectorTot 18 :NHalf 2
  :RIn (mm 1000) :Thickness (cm 2)
  :Width1 30 :Length1 40 :Width2 20 :Length2 25 :Gap2 5
  :Theta [0 0.3 0.8 0]
  :RMax [0 1100 1300 0]
  :ZOff [0 500 0 1000])
`

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(material "Air" :density 1)`, `(material "Air" "__kw_density" 1)`},
		{"case kept", `:MotherName "HB"`, `"__kw_MotherName" "HB"`},
		{"colon in string preserved", `"hcal:World"`, `"hcal:World"`},
		{"escaped quote in string", `"a\":b" :x`, `"a\":b" "__kw_x"`},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(def end-cap 1)`, `(def end_cap 1)`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative number preserved", `[0 -5]`, `[0 -5]`},
		{"comment converted", `;; comment with :keyword`, `// comment with :keyword`},
		{"hyphen in keyword preserved", `:rot-ns`, `"__kw_rot-ns"`},
		{"backtick literal preserved", "`:raw`", "`:raw`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, preprocessSource(tt.input))
		})
	}
}

func TestCableDescription(t *testing.T) {
	d, evalErrs, err := NewEngine().Evaluate(cableSource)
	require.NoError(t, err)
	require.Empty(t, evalErrs)

	require.Len(t, d.Materials, 2)
	assert.Equal(t, graph.NewName("Copper", "materials"), d.Materials[1].Name)
	assert.InDelta(t, 8.96, d.Materials[1].Density, 1e-12)

	require.Len(t, d.Rotations, 1)
	assert.InDelta(t, math.Pi, d.Rotations[0].PhiX, 1e-12)
	assert.NoError(t, d.Rotations[0].CheckProper())

	require.Len(t, d.Volumes, 1)
	assert.Equal(t, Volume{
		Name: graph.NewName("World", "hcal"), Material: graph.NewName("Air", "materials"),
		DX: 5000, DY: 5000, DZ: 5000,
	}, d.Volumes[0])

	require.Len(t, d.Algorithms, 1)
	inv := d.Algorithms[0]
	assert.Equal(t, cable.AlgorithmName, inv.Algorithm)
	assert.Equal(t, algo.Context{Parent: graph.NewName("World", "hcal"), Namespace: "hcal"}, inv.Context)

	n, err := inv.Args.Int("NSector")
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	th, err := inv.Args.Number("Thickness")
	require.NoError(t, err)
	assert.InDelta(t, 20, th, 1e-12)
	theta, err := inv.Args.Vec("Theta", 4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.3, 0.8, 0}, theta, 1e-12)
	s, err := inv.Args.Str("RotNameSpace")
	require.NoError(t, err)
	assert.Equal(t, "hcalrotations", s)
	assert.NotContains(t, inv.Args.Keys(), "parent")
}

func TestPopulateRunsAlgorithms(t *testing.T) {
	d, evalErrs, err := NewEngine().Evaluate(cableSource)
	require.NoError(t, err)
	require.Empty(t, evalErrs)

	s := graph.NewStore()
	require.NoError(t, d.Populate(s, zaptest.NewLogger(t).Sugar()))
	assert.Equal(t, 2+18+1+2+2, s.PlacementCount())
	assert.Equal(t, []graph.Name{graph.NewName("World", "hcal")}, s.Roots())

	res := graph.ValidateAll(s)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
}

func TestPositionBuiltin(t *testing.T) {
	src := `
(namespace "test")
(rotation "R90" 90 90 90 180 0 0)
(box "World" :dx 100 :dy 100 :dz 100)
(box "Brick" :dx 1 :dy 2 :dz 3)
(position "Brick" "World" :copy 2 :at [10 -5 (cm 1)] :rotation "R90")
(position "Brick" "World")
`
	d, evalErrs, err := NewEngine().Evaluate(src)
	require.NoError(t, err)
	require.Empty(t, evalErrs)
	require.Len(t, d.Placements, 2)

	p := d.Placements[0]
	assert.Equal(t, graph.NewName("Brick", "test"), p.Child)
	assert.Equal(t, graph.NewName("World", "test"), p.Parent)
	assert.Equal(t, 2, p.Copy)
	assert.Equal(t, r3.Vector{X: 10, Y: -5, Z: 10}, p.Translation)
	assert.Equal(t, graph.NewName("R90", "test"), p.Rotation)
	assert.Equal(t, 1, d.Placements[1].Copy)

	s := graph.NewStore()
	require.NoError(t, d.Populate(s, nil))
	assert.Len(t, s.Children(graph.NewName("World", "test")), 2)
}

func TestUnitHelpers(t *testing.T) {
	src := `(algorithm "x:Y" :parent "W" :a (deg 180) :b (mm 3) :c (cm 3) :d (m 3))`
	d, evalErrs, err := NewEngine().Evaluate(src)
	require.NoError(t, err)
	require.Empty(t, evalErrs)

	args := d.Algorithms[0].Args
	assert.InDelta(t, math.Pi, args.Numeric["a"], 1e-12)
	assert.InDelta(t, 3, args.Numeric["b"], 1e-12)
	assert.InDelta(t, 30, args.Numeric["c"], 1e-12)
	assert.InDelta(t, 3000, args.Numeric["d"], 1e-12)
}

func TestAlgorithmArgumentTypes(t *testing.T) {
	src := `(algorithm "x:Y" :parent "ns:W" :namespace "other"
  :num 1.5 :str "s" :vec [1 2 3] :list (list 4 5) :strs ["a" "b"])`
	d, evalErrs, err := NewEngine().Evaluate(src)
	require.NoError(t, err)
	require.Empty(t, evalErrs)

	inv := d.Algorithms[0]
	assert.Equal(t, algo.Context{Parent: graph.NewName("W", "ns"), Namespace: "other"}, inv.Context)
	assert.Equal(t, 1.5, inv.Args.Numeric["num"])
	assert.Equal(t, "s", inv.Args.String["str"])
	assert.Equal(t, []float64{1, 2, 3}, inv.Args.Vector["vec"])
	assert.Equal(t, []float64{4, 5}, inv.Args.Vector["list"])
	assert.Equal(t, []string{"a", "b"}, inv.Args.StringVector["strs"])
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"box without dims", `(box "B" :dx 1)`},
		{"box name not string", `(box 3 :dx 1 :dy 1 :dz 1)`},
		{"rotation short", `(rotation "R" 90 0 90 90 0)`},
		{"algorithm without parent", `(algorithm "x:Y" :a 1)`},
		{"mixed vector", `(algorithm "x:Y" :parent "W" :v [1 "a"])`},
		{"position at wrong length", `(position "A" "B" :at [1 2])`},
		{"unit wrong arity", `(deg 1 2)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, evalErrs, err := NewEngine().Evaluate(tt.src)
			require.NoError(t, err)
			assert.Nil(t, d)
			assert.NotEmpty(t, evalErrs)
		})
	}
}

func TestPopulateUnknownAlgorithm(t *testing.T) {
	d, evalErrs, err := NewEngine().Evaluate(`(box "W" :dx 1 :dy 1 :dz 1) (algorithm "nobody:Here" :parent "W")`)
	require.NoError(t, err)
	require.Empty(t, evalErrs)

	err = d.Populate(graph.NewStore(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, algo.ErrUnknownAlgorithm)
}
