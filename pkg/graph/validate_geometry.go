package graph

import "fmt"

// ---------------------------------------------------------------------------
// Geometric validation
// ---------------------------------------------------------------------------

// validateGeometry runs the shape and rotation checks.
func validateGeometry(s *Store) []ValidationError {
	var errs []ValidationError
	for _, name := range sortedKeys(s.Solids) {
		switch sol := s.Solids[name].(type) {
		case *Box:
			errs = append(errs, validateBox(sol)...)
		case *Trap:
			errs = append(errs, validateTrap(sol)...)
		case *Polyhedra:
			errs = append(errs, validatePolyhedra(sol)...)
		}
	}
	errs = append(errs, validateRotations(s)...)
	return errs
}

func positive(subject Name, what string, v float64) []ValidationError {
	if v > 0 {
		return nil
	}
	return []ValidationError{{
		Subject:  subject,
		Message:  fmt.Sprintf("%s is %.4f, must be positive", what, v),
		Severity: SeverityError,
	}}
}

// validateBox checks that every half length is positive.
func validateBox(b *Box) []ValidationError {
	var errs []ValidationError
	errs = append(errs, positive(b.Name, "box half length x", b.DX)...)
	errs = append(errs, positive(b.Name, "box half length y", b.DY)...)
	errs = append(errs, positive(b.Name, "box half length z", b.DZ)...)
	return errs
}

// validateTrap checks the half length and half heights. A half width may be
// zero (a triangular face) but not negative.
func validateTrap(t *Trap) []ValidationError {
	var errs []ValidationError
	errs = append(errs, positive(t.Name, "trap half length z", t.DZ)...)
	errs = append(errs, positive(t.Name, "trap half height of -z face", t.H1)...)
	errs = append(errs, positive(t.Name, "trap half height of +z face", t.H2)...)

	widths := []struct {
		what string
		v    float64
	}{
		{"bl1", t.BL1}, {"tl1", t.TL1}, {"bl2", t.BL2}, {"tl2", t.TL2},
	}
	for _, w := range widths {
		if w.v < 0 {
			errs = append(errs, ValidationError{
				Subject:  t.Name,
				Message:  fmt.Sprintf("trap half width %s is %.4f, must not be negative", w.what, w.v),
				Severity: SeverityError,
			})
		}
	}
	if t.BL1+t.TL1 <= 0 && t.BL2+t.TL2 <= 0 {
		errs = append(errs, ValidationError{
			Subject:  t.Name,
			Message:  "trap has zero width on both faces",
			Severity: SeverityError,
		})
	}
	return errs
}

// validatePolyhedra checks the section arrays: equal lengths, at least two
// planes, z non-decreasing and rmin <= rmax at every plane.
func validatePolyhedra(p *Polyhedra) []ValidationError {
	var errs []ValidationError
	if p.Sides < 1 {
		errs = append(errs, ValidationError{
			Subject:  p.Name,
			Message:  fmt.Sprintf("polyhedra has %d sides, must be at least 1", p.Sides),
			Severity: SeverityError,
		})
	}
	errs = append(errs, positive(p.Name, "polyhedra phi span", p.DeltaPhi)...)

	if len(p.Z) != len(p.RMin) || len(p.Z) != len(p.RMax) {
		errs = append(errs, ValidationError{
			Subject: p.Name,
			Message: fmt.Sprintf("polyhedra section arrays differ in length (z %d, rmin %d, rmax %d)",
				len(p.Z), len(p.RMin), len(p.RMax)),
			Severity: SeverityError,
		})
		return errs
	}
	if len(p.Z) < 2 {
		errs = append(errs, ValidationError{
			Subject:  p.Name,
			Message:  fmt.Sprintf("polyhedra has %d z planes, need at least 2", len(p.Z)),
			Severity: SeverityError,
		})
		return errs
	}

	for i := range p.Z {
		if i > 0 && p.Z[i] < p.Z[i-1] {
			errs = append(errs, ValidationError{
				Subject:  p.Name,
				Message:  fmt.Sprintf("polyhedra z[%d]=%.4f is below z[%d]=%.4f", i, p.Z[i], i-1, p.Z[i-1]),
				Severity: SeverityError,
			})
		}
		if p.RMin[i] < 0 {
			errs = append(errs, ValidationError{
				Subject:  p.Name,
				Message:  fmt.Sprintf("polyhedra rmin[%d]=%.4f is negative", i, p.RMin[i]),
				Severity: SeverityError,
			})
		}
		if p.RMin[i] > p.RMax[i] {
			errs = append(errs, ValidationError{
				Subject:  p.Name,
				Message:  fmt.Sprintf("polyhedra rmin[%d]=%.4f exceeds rmax[%d]=%.4f", i, p.RMin[i], i, p.RMax[i]),
				Severity: SeverityError,
			})
		}
	}
	if p.Z[0] == p.Z[len(p.Z)-1] {
		errs = append(errs, ValidationError{
			Subject:  p.Name,
			Message:  "polyhedra has zero extent in z",
			Severity: SeverityError,
		})
	}
	return errs
}

// validateRotations checks every registered rotation is a proper rotation.
func validateRotations(s *Store) []ValidationError {
	var errs []ValidationError
	for _, name := range sortedKeys(s.Rotations) {
		if err := s.Rotations[name].CheckProper(); err != nil {
			errs = append(errs, ValidationError{
				Subject:  name,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// ---------------------------------------------------------------------------
// Material checks
// ---------------------------------------------------------------------------

// validateMaterials warns about logical parts whose material is not
// registered. Materials are carried through by name only, so a missing
// definition does not prevent construction.
func validateMaterials(s *Store) []ValidationError {
	var errs []ValidationError
	for _, name := range sortedKeys(s.LogicalParts) {
		lp := s.LogicalParts[name]
		if lp.Material.IsZero() {
			errs = append(errs, ValidationError{
				Subject:  name,
				Message:  "logical part has no material",
				Severity: SeverityWarning,
			})
			continue
		}
		if _, ok := s.Materials[lp.Material]; !ok {
			errs = append(errs, ValidationError{
				Subject:  name,
				Message:  fmt.Sprintf("material %s is not defined", lp.Material),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
