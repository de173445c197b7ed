package main

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/ddcable/pkg/engine"
	"github.com/chazu/ddcable/pkg/graph"
	"github.com/chazu/ddcable/pkg/kernel/sdfx"
	"github.com/chazu/ddcable/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to volumes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs a description through the whole pipeline: evaluate the source,
// populate a geometry store, run the algorithms, validate and tessellate.
type App struct {
	engine  *engine.Engine
	kernel  *sdfx.SdfxKernel
	logger  *zap.SugaredLogger
	options tessellate.Options
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of running a description.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// Model is a loaded description and the store built from it.
type Model struct {
	Description *engine.Description
	Store       *graph.Store
}

// NewApp creates an App with the sdfx kernel. Only leaf volumes are meshed
// unless the options say otherwise.
func NewApp(logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{
		engine:  engine.NewEngine(),
		kernel:  sdfx.New(),
		logger:  logger,
		options: tessellate.Options{LeavesOnly: true},
	}
}

func newResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

func (r *EvalResult) fail(msg string) {
	r.Errors = append(r.Errors, EvalErrorData{Message: msg})
}

// Load evaluates source, populates a store and validates it. Model is nil
// when result carries errors.
func (a *App) Load(source string) (*Model, EvalResult) {
	result := newResult()

	desc, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Errorw("evaluation failed", "error", err)
		result.fail(err.Error())
		return nil, result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return nil, result
	}

	store := graph.NewStore()
	if err := desc.Populate(store, a.logger); err != nil {
		a.logger.Errorw("populating store failed", "error", err)
		result.fail(err.Error())
		return nil, result
	}

	v := graph.ValidateAll(store)
	for _, w := range v.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Error()})
	}
	if !v.OK() {
		for _, e := range v.Errors {
			result.fail(e.Error())
		}
		return nil, result
	}

	a.logger.Infow("description loaded",
		"materials", len(store.Materials),
		"solids", len(store.Solids),
		"logical_parts", len(store.LogicalParts),
		"placements", store.PlacementCount(),
		"warnings", len(v.Warnings),
	)
	return &Model{Description: desc, Store: store}, result
}

// Evaluate runs source and returns meshes of every root's volumes.
func (a *App) Evaluate(source string) EvalResult {
	model, result := a.Load(source)
	if model == nil {
		return result
	}

	colors := make(map[string]string)
	for _, root := range model.Store.Roots() {
		meshes, err := tessellate.Tessellate(model.Store, root, a.kernel, a.options)
		if err != nil {
			a.logger.Errorw("tessellation failed", "root", root, "error", err)
			result.fail("tessellation failed: " + err.Error())
			return result
		}
		for _, m := range meshes {
			vol := volumeOf(m.PartName)
			color, ok := colors[vol]
			if !ok {
				color = colorPalette[len(colors)%len(colorPalette)]
				colors[vol] = color
			}
			result.Meshes = append(result.Meshes, MeshData{
				Vertices: m.Vertices,
				Normals:  m.Normals,
				Indices:  m.Indices,
				PartName: m.PartName,
				Color:    color,
			})
		}
	}
	return result
}

// Export writes the union of every root's volumes to an STL file and
// returns the number of volumes written.
func (a *App) Export(source, path string) (int, error) {
	model, result := a.Load(source)
	if model == nil {
		return 0, resultError(result)
	}

	var parts []tessellate.Part
	for _, root := range model.Store.Roots() {
		p, err := tessellate.Build(model.Store, root, a.kernel, a.options)
		if err != nil {
			return 0, err
		}
		parts = append(parts, p...)
	}
	solid := tessellate.Union(a.kernel, parts)
	if solid == nil {
		return 0, errors.New("export: nothing to write")
	}
	a.logger.Infow("writing stl", "path", path, "volumes", len(parts), "cells", a.kernel.MeshCells)
	if err := a.kernel.WriteSTL(solid, path); err != nil {
		return 0, err
	}
	return len(parts), nil
}

// volumeOf returns the volume name at the end of a part path.
func volumeOf(path string) string {
	last := path[strings.LastIndex(path, "/")+1:]
	if i := strings.LastIndex(last, "#"); i >= 0 {
		last = last[:i]
	}
	return last
}

// resultError folds the errors of a result into one error.
func resultError(r EvalResult) error {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.Line > 0 {
			msgs = append(msgs, engine.EvalError{Line: e.Line, Col: e.Col, Message: e.Message}.Error())
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return errors.New(strings.Join(msgs, "; "))
}
