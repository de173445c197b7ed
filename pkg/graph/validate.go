package graph

import (
	"fmt"

	"go.uber.org/multierr"
)

// ValidationSeverity indicates whether a validation finding makes the
// description unusable or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // description is unusable
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Subject  Name               // which entity has the problem (zero if store-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Subject.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Subject, e.Message)
}

// ValidationResult bundles errors and warnings from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no error-severity findings were produced.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err combines all error-severity findings into one error, or nil.
func (r ValidationResult) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

// Validate runs the structural checks on the store and returns every
// finding. It never mutates the store.
func Validate(s *Store) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(s)...)
	errs = append(errs, validateCopyNumbers(s)...)
	errs = append(errs, validateDAG(s)...)
	errs = append(errs, validateUnplaced(s)...)
	return errs
}

// ValidateAll runs structural, geometric and material checks and separates
// errors from warnings.
func ValidateAll(s *Store) ValidationResult {
	var all []ValidationError
	all = append(all, Validate(s)...)
	all = append(all, validateGeometry(s)...)
	all = append(all, validateMaterials(s)...)
	all = append(all, validateRedefinitions(s)...)

	var result ValidationResult
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

// sortedKeys returns the keys of a name-keyed map in a stable order.
func sortedKeys[V any](m map[Name]V) []Name {
	names := make([]Name, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	SortNames(names)
	return names
}

// validateReferences checks that every name referenced by a logical part or
// a placement resolves.
func validateReferences(s *Store) []ValidationError {
	var errs []ValidationError

	for _, name := range sortedKeys(s.LogicalParts) {
		lp := s.LogicalParts[name]
		if _, ok := s.Solids[lp.Solid]; !ok {
			errs = append(errs, ValidationError{
				Subject:  name,
				Message:  fmt.Sprintf("solid %s does not exist", lp.Solid),
				Severity: SeverityError,
			})
		}
	}

	for _, p := range s.Placements {
		if _, ok := s.LogicalParts[p.Child]; !ok {
			errs = append(errs, ValidationError{
				Subject:  p.Parent,
				Message:  fmt.Sprintf("placed child %s does not exist", p.Child),
				Severity: SeverityError,
			})
		}
		if _, ok := s.LogicalParts[p.Parent]; !ok {
			errs = append(errs, ValidationError{
				Subject:  p.Child,
				Message:  fmt.Sprintf("parent %s does not exist", p.Parent),
				Severity: SeverityError,
			})
		}
		if !p.Rotation.IsZero() {
			if _, ok := s.Rotations[p.Rotation]; !ok {
				errs = append(errs, ValidationError{
					Subject:  p.Child,
					Message:  fmt.Sprintf("copy %d in %s uses undefined rotation %s", p.Copy, p.Parent, p.Rotation),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateCopyNumbers checks that copy numbers start at 1 and are distinct
// per child under one parent.
func validateCopyNumbers(s *Store) []ValidationError {
	var errs []ValidationError
	seen := make(map[placementKey]bool)

	for _, p := range s.Placements {
		if p.Copy < 1 {
			errs = append(errs, ValidationError{
				Subject:  p.Child,
				Message:  fmt.Sprintf("copy number %d in %s is not positive", p.Copy, p.Parent),
				Severity: SeverityError,
			})
		}
		k := p.key()
		if seen[k] {
			errs = append(errs, ValidationError{
				Subject:  p.Child,
				Message:  fmt.Sprintf("copy number %d placed twice in %s", p.Copy, p.Parent),
				Severity: SeverityError,
			})
		}
		seen[k] = true
	}

	return errs
}

// validateDAG checks the placement graph for cycles using DFS with 3-color
// marking. White (0) = unvisited, gray (1) = on the current path,
// black (2) = fully explored.
func validateDAG(s *Store) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[Name]int)
	var errs []ValidationError

	var visit func(n Name) bool // returns true if cycle found
	visit = func(n Name) bool {
		switch color[n] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				Subject:  n,
				Message:  "placement cycle: volume contains itself",
				Severity: SeverityError,
			})
			return true
		}

		color[n] = gray
		for _, p := range s.Children(n) {
			if visit(p.Child) {
				return true
			}
		}
		color[n] = black
		return false
	}

	for _, name := range sortedKeys(s.LogicalParts) {
		if color[name] == white {
			if visit(name) {
				// One cycle error is sufficient.
				break
			}
		}
	}

	return errs
}

// validateUnplaced warns about logical parts that are neither placed nor
// used as a parent. A single root volume is expected and not reported.
func validateUnplaced(s *Store) []ValidationError {
	used := make(map[Name]bool)
	for _, p := range s.Placements {
		used[p.Child] = true
		used[p.Parent] = true
	}

	var errs []ValidationError
	for _, name := range sortedKeys(s.LogicalParts) {
		if !used[name] && len(s.LogicalParts) > 1 {
			errs = append(errs, ValidationError{
				Subject:  name,
				Message:  "logical part is never placed",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateRedefinitions reports names registered more than once with a
// different definition. Rotations redefined with the same angles are benign.
func validateRedefinitions(s *Store) []ValidationError {
	var errs []ValidationError
	for _, r := range s.Redefined {
		if !r.Changed {
			continue
		}
		errs = append(errs, ValidationError{
			Subject:  r.Name,
			Message:  fmt.Sprintf("%s redefined with a different definition; earlier placements now use the new one", r.Kind),
			Severity: SeverityWarning,
		})
	}
	return errs
}
