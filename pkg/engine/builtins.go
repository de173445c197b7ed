package engine

import (
	"math"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/pkg/errors"

	"github.com/chazu/ddcable/pkg/algo"
	"github.com/chazu/ddcable/pkg/graph"
)

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a SexpInt or SexpFloat.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, errors.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a plain string. Keywords are rejected.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		if _, kw := isKW(s); !kw {
			return str.S, nil
		}
	}
	return "", errors.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, errors.Errorf("expected list or array, got %T", s)
}

func toFloats(s zygo.Sexp) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(items))
	for i, it := range items {
		f, err := toFloat64(it)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, f)
	}
	return out, nil
}

func toVec3(s zygo.Sexp) ([]float64, error) {
	v, err := toFloats(s)
	if err != nil {
		return nil, err
	}
	if len(v) != 3 {
		return nil, errors.Errorf("expected 3 coordinates, got %d", len(v))
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// loader accumulates a Description while user code runs.
type loader struct {
	desc *Description
	ns   string // namespace for names written without one
}

func (l *loader) name(s zygo.Sexp) (graph.Name, error) {
	str, err := toString(s)
	if err != nil {
		return graph.Name{}, err
	}
	if str == "" {
		return graph.Name{}, errors.New("empty name")
	}
	return graph.ParseName(str, l.ns), nil
}

func nameSexp(n graph.Name) zygo.Sexp {
	return &zygo.SexpStr{S: n.String()}
}

func floatSexp(v float64) zygo.Sexp {
	return &zygo.SexpFloat{Val: v}
}

// dims reads the keyword arguments in keys as numbers.
func dims(pa kwArgs, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, ok := pa.kw[k]
		if !ok {
			return nil, errors.Errorf("missing :%s", k)
		}
		f, err := toFloat64(v)
		if err != nil {
			return nil, errors.Wrapf(err, ":%s", k)
		}
		out[i] = f
	}
	return out, nil
}

// registerBuiltins installs the description builtins into env. Source must
// go through preprocessSource first so keywords are recognizable.
func registerBuiltins(env *zygo.Zlisp, l *loader) {
	// (namespace "hcal")
	env.AddFunction("namespace", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, errors.New("namespace requires exactly one argument")
		}
		ns, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "namespace")
		}
		l.ns = ns
		return args[0], nil
	})

	// (material "materials:Air" :density 0.0012)
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, errors.New("material requires a name")
		}
		n, err := l.name(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "material: name")
		}
		m := &graph.Material{Name: n}
		if v, ok := pa.kw["density"]; ok {
			if m.Density, err = toFloat64(v); err != nil {
				return zygo.SexpNull, errors.Wrap(err, "material: density")
			}
		}
		l.desc.Materials = append(l.desc.Materials, m)
		return nameSexp(n), nil
	})

	// (rotation "hcalrotations:180D" 90 180 90 90 180 0), angles in degrees
	env.AddFunction("rotation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 7 {
			return zygo.SexpNull, errors.Errorf("rotation requires a name and 6 angles, got %d arguments", len(args))
		}
		n, err := l.name(args[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "rotation: name")
		}
		var a [6]float64
		for i := range a {
			d, err := toFloat64(args[i+1])
			if err != nil {
				return zygo.SexpNull, errors.Wrapf(err, "rotation: angle %d", i+1)
			}
			a[i] = d * math.Pi / 180
		}
		l.desc.Rotations = append(l.desc.Rotations, graph.NewRotation(n, a[0], a[1], a[2], a[3], a[4], a[5]))
		return nameSexp(n), nil
	})

	// (box "World" :material "materials:Air" :dx 5000 :dy 5000 :dz 5000)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, errors.New("box requires a name")
		}
		n, err := l.name(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "box: name")
		}
		v := Volume{Name: n}
		if m, ok := pa.kw["material"]; ok {
			if v.Material, err = l.name(m); err != nil {
				return zygo.SexpNull, errors.Wrap(err, "box: material")
			}
		}
		d, err := dims(pa, "dx", "dy", "dz")
		if err != nil {
			return zygo.SexpNull, errors.Wrapf(err, "box %s", n)
		}
		v.DX, v.DY, v.DZ = d[0], d[1], d[2]
		l.desc.Volumes = append(l.desc.Volumes, v)
		return nameSexp(n), nil
	})

	// (position "child" "parent" :copy 1 :at [0 0 0] :rotation "r")
	env.AddFunction("position", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, errors.New("position requires a child and a parent")
		}
		child, err := l.name(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "position: child")
		}
		parent, err := l.name(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "position: parent")
		}
		p := graph.Placement{Child: child, Parent: parent, Copy: 1}
		if v, ok := pa.kw["copy"]; ok {
			c, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, errors.Wrap(err, "position: copy")
			}
			p.Copy = int(c)
		}
		if v, ok := pa.kw["at"]; ok {
			t, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, errors.Wrap(err, "position: at")
			}
			p.Translation = vec(t)
		}
		if v, ok := pa.kw["rotation"]; ok {
			if p.Rotation, err = l.name(v); err != nil {
				return zygo.SexpNull, errors.Wrap(err, "position: rotation")
			}
		}
		l.desc.Placements = append(l.desc.Placements, p)
		return nameSexp(child), nil
	})

	// (algorithm "hcal:DDHCalTBCableAlgo" :parent "World" :namespace "hcal"
	//            :MotherName "HBCable" :NSector 18 :Theta [0 0.3 0.8 0] ...)
	//
	// :parent and :namespace set the invocation context; every other keyword
	// becomes an algorithm argument typed by its value.
	env.AddFunction("algorithm", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, errors.New("algorithm requires a name")
		}
		algoName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "algorithm: name")
		}
		inv := Invocation{
			Algorithm: algoName,
			Context:   algo.Context{Namespace: l.ns},
			Args:      algo.NewArguments(),
		}
		if v, ok := pa.kw["namespace"]; ok {
			if inv.Context.Namespace, err = toString(v); err != nil {
				return zygo.SexpNull, errors.Wrap(err, "algorithm: namespace")
			}
		}
		v, ok := pa.kw["parent"]
		if !ok {
			return zygo.SexpNull, errors.Errorf("algorithm %s: missing :parent", algoName)
		}
		parent, err := toString(v)
		if err != nil {
			return zygo.SexpNull, errors.Wrap(err, "algorithm: parent")
		}
		inv.Context.Parent = graph.ParseName(parent, inv.Context.Namespace)

		for _, key := range pa.order {
			if key == "parent" || key == "namespace" {
				continue
			}
			if err := addArgument(inv.Args, key, pa.kw[key]); err != nil {
				return zygo.SexpNull, errors.Wrapf(err, "algorithm %s: %s", algoName, key)
			}
		}
		l.desc.Algorithms = append(l.desc.Algorithms, inv)
		return pa.positional[0], nil
	})

	// Unit helpers. Lengths are millimetres, angles radians.
	unit := func(fname string, scale float64) {
		env.AddFunction(fname, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, errors.Errorf("%s requires exactly one argument", fname)
			}
			f, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, errors.Wrap(err, fname)
			}
			return floatSexp(f * scale), nil
		})
	}
	unit("deg", math.Pi/180)
	unit("mm", 1)
	unit("cm", 10)
	unit("m", 1000)
}

// addArgument stores value under key in the bucket matching its type:
// numbers are numeric, strings are strings, sequences of numbers are
// vectors and sequences of strings are string vectors.
func addArgument(args *algo.Arguments, key string, value zygo.Sexp) error {
	switch v := value.(type) {
	case *zygo.SexpInt, *zygo.SexpFloat:
		f, _ := toFloat64(v)
		args.Numeric[key] = f
		return nil
	case *zygo.SexpStr:
		s, err := toString(v)
		if err != nil {
			return err
		}
		args.String[key] = s
		return nil
	}

	items, err := sexpListToSlice(value)
	if err != nil {
		return errors.Errorf("unsupported value %s", value.SexpString(nil))
	}
	if len(items) > 0 {
		if _, isStr := items[0].(*zygo.SexpStr); isStr {
			strs := make([]string, 0, len(items))
			for i, it := range items {
				s, err := toString(it)
				if err != nil {
					return errors.Wrapf(err, "element %d", i)
				}
				strs = append(strs, s)
			}
			args.StringVector[key] = strs
			return nil
		}
	}
	f, err := toFloats(value)
	if err != nil {
		return err
	}
	args.Vector[key] = f
	return nil
}
