package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/chazu/ddcable/pkg/cable"
	"github.com/chazu/ddcable/pkg/engine"
	"github.com/chazu/ddcable/pkg/graph"
)

// partsTable lists every logical part with its solid, material and how
// often it is placed.
func partsTable(s *graph.Store) string {
	copies := make(map[graph.Name]int)
	for _, p := range s.Placements {
		copies[p.Child]++
	}
	names := make([]graph.Name, 0, len(s.LogicalParts))
	for name := range s.LogicalParts {
		names = append(names, name)
	}
	graph.SortNames(names)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Logical part", "Solid", "Material", "Placed"})
	for i, name := range names {
		lp := s.LogicalParts[name]
		kind := "?"
		if sol, ok := s.Solid(lp.Solid); ok {
			kind = sol.Kind().String()
		}
		t.AppendRow(table.Row{i + 1, name, kind, lp.Material, copies[name]})
	}
	t.AppendFooter(table.Row{"", "", "", "placements", s.PlacementCount()})
	return t.Render()
}

// warningsTable lists validation warnings, or returns "" for none.
func warningsTable(r EvalResult) string {
	if len(r.Warnings) == 0 {
		return ""
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Warning"})
	for _, w := range r.Warnings {
		t.AppendRow(table.Row{w.Message})
	}
	return t.Render()
}

// meshTable summarises tessellated meshes by part.
func meshTable(r EvalResult) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Part", "Color", "Triangles"})
	total := 0
	for _, m := range r.Meshes {
		n := len(m.Indices) / 3
		total += n
		t.AppendRow(table.Row{m.PartName, m.Color, n})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d parts", len(r.Meshes)), "", total})
	return t.Render()
}

// cablePlans rebuilds the plan of every cable mockup invocation in d.
func cablePlans(d *engine.Description) ([]*cable.Plan, error) {
	var plans []*cable.Plan
	for _, inv := range d.Algorithms {
		if inv.Algorithm != cable.AlgorithmName {
			continue
		}
		cfg, err := cable.ConfigFromArguments(inv.Args)
		if err != nil {
			return nil, errors.Wrapf(err, "%s in %s", inv.Algorithm, inv.Context.Parent)
		}
		naming, err := cable.NamingFromArguments(inv.Args, inv.Context)
		if err != nil {
			return nil, errors.Wrapf(err, "%s in %s", inv.Algorithm, inv.Context.Parent)
		}
		plans = append(plans, cable.Build(cfg, naming))
	}
	return plans, nil
}

// profileTable shows the envelope cross-section and the derived solids of
// one cable mockup plan.
func profileTable(p *cable.Plan) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s in %s", p.Naming.Envelope(), p.Naming.Parent))
	t.AppendHeader(table.Row{"Plane", "z", "rmin", "rmax"})
	for i := range p.Profile.Z {
		t.AppendRow(table.Row{i, ff(p.Profile.Z[i]), ff(p.Profile.RMin[i]), ff(p.Profile.RMax[i])})
	}
	status := "ok"
	if err := p.Profile.Check(); err != nil {
		status = err.Error()
	}
	t.AppendFooter(table.Row{"check", status, "", ""})
	out := t.Render() + "\n"

	s := table.NewWriter()
	s.AppendHeader(table.Row{"Solid", "Dimensions"})
	for _, step := range p.Steps {
		if d, ok := step.(cable.DefineSolid); ok {
			s.AppendRow(table.Row{d.Solid.SolidName(), fmt.Sprint(d.Solid)})
		}
	}
	s.AppendFooter(table.Row{"placements", len(p.Placements())})
	return out + s.Render()
}

func ff(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
