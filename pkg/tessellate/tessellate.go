// Package tessellate walks the placement tree of a geometry store and
// produces positioned kernel solids and triangle meshes, one per placed
// volume.
package tessellate

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/ddcable/pkg/graph"
	"github.com/chazu/ddcable/pkg/kernel"
)

// Options controls which volumes are produced.
type Options struct {
	// MaxDepth stops the walk below this many placement levels. The root
	// is depth 0; zero means no limit.
	MaxDepth int
	// LeavesOnly skips volumes that have children of their own.
	LeavesOnly bool
}

// Part is one placed volume in global coordinates.
type Part struct {
	// Path is the chain of placements from the root, e.g.
	// "hcal:World/hcal:HBCable#1/hcal:HBCableModule#3".
	Path   string
	Volume graph.Name
	Depth  int
	Solid  kernel.Solid
}

// frame is the global pose of a volume being walked.
type frame struct {
	rot   mat.Matrix
	t     r3.Vector
	path  string
	depth int
}

type walker struct {
	store  *graph.Store
	kernel kernel.Kernel
	opts   Options
	solids map[graph.Name]kernel.Solid
	onPath map[graph.Name]bool
	parts  []Part
}

// Build positions every volume reachable from root. The store is read
// only; each solid is built once and reused for every copy.
func Build(s *graph.Store, root graph.Name, k kernel.Kernel, opts Options) ([]Part, error) {
	if s == nil {
		return nil, nil
	}
	w := &walker{
		store:  s,
		kernel: k,
		opts:   opts,
		solids: make(map[graph.Name]kernel.Solid),
		onPath: make(map[graph.Name]bool),
	}
	err := w.walk(root, frame{rot: graph.Identity(), path: root.String()})
	if err != nil {
		return nil, errors.Wrapf(err, "tessellate: walking %s", root)
	}
	return w.parts, nil
}

// Tessellate builds the parts under root and meshes each one. The mesh
// PartName is the part path.
func Tessellate(s *graph.Store, root graph.Name, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	parts, err := Build(s, root, k, opts)
	if err != nil {
		return nil, err
	}
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		m, err := k.ToMesh(p.Solid)
		if err != nil {
			return nil, errors.Wrapf(err, "tessellate: meshing %s", p.Path)
		}
		m.PartName = p.Path
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Union merges parts into a single solid, or returns nil for none.
func Union(k kernel.Kernel, parts []Part) kernel.Solid {
	var out kernel.Solid
	for _, p := range parts {
		if out == nil {
			out = p.Solid
			continue
		}
		out = k.Union(out, p.Solid)
	}
	return out
}

func (w *walker) walk(name graph.Name, f frame) error {
	if w.onPath[name] {
		return errors.Errorf("placement cycle at %s", name)
	}
	w.onPath[name] = true
	defer delete(w.onPath, name)

	children := w.store.Children(name)
	if !w.opts.LeavesOnly || len(children) == 0 {
		if err := w.emit(name, f); err != nil {
			return err
		}
	}
	if w.opts.MaxDepth > 0 && f.depth >= w.opts.MaxDepth {
		return nil
	}

	for _, p := range children {
		rot := mat.Matrix(graph.Identity())
		if !p.Rotation.IsZero() {
			r, ok := w.store.Rotation(p.Rotation)
			if !ok {
				return errors.Errorf("%s: rotation %s is not defined", p, p.Rotation)
			}
			rot = r.Matrix()
		}
		grot, gt := kernel.Compose(f.rot, f.t, rot, p.Translation)
		child := frame{
			rot:   grot,
			t:     gt,
			path:  fmt.Sprintf("%s/%s#%d", f.path, p.Child, p.Copy),
			depth: f.depth + 1,
		}
		if err := w.walk(p.Child, child); err != nil {
			return err
		}
	}
	return nil
}

// emit positions the solid of one volume.
func (w *walker) emit(name graph.Name, f frame) error {
	sol, err := w.solid(name)
	if err != nil {
		return err
	}
	placed, err := w.kernel.Transform(sol, f.rot, f.t)
	if err != nil {
		return errors.Wrapf(err, "positioning %s", f.path)
	}
	w.parts = append(w.parts, Part{Path: f.path, Volume: name, Depth: f.depth, Solid: placed})
	return nil
}

func (w *walker) solid(name graph.Name) (kernel.Solid, error) {
	if s, ok := w.solids[name]; ok {
		return s, nil
	}
	lp, ok := w.store.LogicalPart(name)
	if !ok {
		return nil, errors.Errorf("logical part %s is not defined", name)
	}
	def, ok := w.store.Solid(lp.Solid)
	if !ok {
		return nil, errors.Errorf("solid %s of %s is not defined", lp.Solid, name)
	}
	s, err := kernel.FromGraph(w.kernel, def)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s", lp.Solid)
	}
	w.solids[name] = s
	return s, nil
}
