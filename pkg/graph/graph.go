package graph

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

// Store is the in-memory geometry description. Entities are registered by
// name; registering a name twice replaces the previous definition and is
// recorded in Redefined. Store is not safe for concurrent use; geometry
// construction is single-threaded.
type Store struct {
	Materials    map[Name]*Material    `json:"materials"`
	Solids       map[Name]Solid        `json:"-"`
	LogicalParts map[Name]*LogicalPart `json:"logical_parts"`
	Rotations    map[Name]*Rotation    `json:"rotations"`
	Placements   []Placement           `json:"placements"`
	Redefined    []Redefinition        `json:"redefined,omitempty"`

	children map[Name][]int // parent -> indices into Placements
	placed   map[placementKey]int
}

// RedefinitionKind says which table a redefinition happened in.
type RedefinitionKind int

const (
	RedefinedRotation RedefinitionKind = iota
	RedefinedSolid
	RedefinedLogicalPart
	RedefinedMaterial
)

func (k RedefinitionKind) String() string {
	switch k {
	case RedefinedRotation:
		return "rotation"
	case RedefinedSolid:
		return "solid"
	case RedefinedLogicalPart:
		return "logical part"
	case RedefinedMaterial:
		return "material"
	default:
		return "unknown"
	}
}

// Redefinition records that a name was registered more than once.
// Changed is set when the new definition differs from the old one.
type Redefinition struct {
	Kind    RedefinitionKind `json:"kind"`
	Name    Name             `json:"name"`
	Changed bool             `json:"changed"`
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		Materials:    make(map[Name]*Material),
		Solids:       make(map[Name]Solid),
		LogicalParts: make(map[Name]*LogicalPart),
		Rotations:    make(map[Name]*Rotation),
		children:     make(map[Name][]int),
		placed:       make(map[placementKey]int),
	}
}

// Compile-time interface check.
var _ Registry = (*Store)(nil)

// AddMaterial registers a material.
func (s *Store) AddMaterial(m *Material) error {
	if m == nil || m.Name.Name == "" {
		return errors.New("material must have a name")
	}
	if old, ok := s.Materials[m.Name]; ok {
		s.redefine(RedefinedMaterial, m.Name, *old != *m)
	}
	s.Materials[m.Name] = m
	return nil
}

// Material returns the material with the given name.
func (s *Store) Material(name Name) (*Material, bool) {
	m, ok := s.Materials[name]
	return m, ok
}

// AddSolid registers a solid.
func (s *Store) AddSolid(sol Solid) error {
	if sol == nil || sol.SolidName().Name == "" {
		return errors.New("solid must have a name")
	}
	name := sol.SolidName()
	if old, ok := s.Solids[name]; ok {
		s.redefine(RedefinedSolid, name, !reflect.DeepEqual(old, sol))
	}
	s.Solids[name] = sol
	return nil
}

// Solid returns the solid with the given name.
func (s *Store) Solid(name Name) (Solid, bool) {
	sol, ok := s.Solids[name]
	return sol, ok
}

// AddLogicalPart registers a logical part. The solid must already exist.
func (s *Store) AddLogicalPart(lp *LogicalPart) error {
	if lp == nil || lp.Name.Name == "" {
		return errors.New("logical part must have a name")
	}
	if _, ok := s.Solids[lp.Solid]; !ok {
		return errors.Errorf("logical part %s: solid %s is not defined", lp.Name, lp.Solid)
	}
	if old, ok := s.LogicalParts[lp.Name]; ok {
		s.redefine(RedefinedLogicalPart, lp.Name, *old != *lp)
	}
	s.LogicalParts[lp.Name] = lp
	return nil
}

// LogicalPart returns the logical part with the given name.
func (s *Store) LogicalPart(name Name) (*LogicalPart, bool) {
	lp, ok := s.LogicalParts[name]
	return lp, ok
}

// AddRotation registers a rotation, replacing any rotation of the same name.
func (s *Store) AddRotation(r *Rotation) error {
	if r == nil || r.Name.Name == "" {
		return errors.New("rotation must have a name")
	}
	if old, ok := s.Rotations[r.Name]; ok {
		s.redefine(RedefinedRotation, r.Name, !old.SameAngles(r, orthonormalTolerance))
	}
	s.Rotations[r.Name] = r
	return nil
}

// Rotation returns the rotation with the given name.
func (s *Store) Rotation(name Name) (*Rotation, bool) {
	r, ok := s.Rotations[name]
	return r, ok
}

// Position records a placement. Child and parent must be defined logical
// parts, the rotation (if any) must be defined, and the copy number must be
// positive and not yet used for this child under this parent.
func (s *Store) Position(p Placement) error {
	if _, ok := s.LogicalParts[p.Child]; !ok {
		return errors.Errorf("position: child %s is not defined", p.Child)
	}
	if _, ok := s.LogicalParts[p.Parent]; !ok {
		return errors.Errorf("position: parent %s is not defined", p.Parent)
	}
	if !p.Rotation.IsZero() {
		if _, ok := s.Rotations[p.Rotation]; !ok {
			return errors.Errorf("position: rotation %s is not defined", p.Rotation)
		}
	}
	if p.Copy < 1 {
		return errors.Errorf("position: %s in %s has copy number %d, want >= 1", p.Child, p.Parent, p.Copy)
	}
	k := p.key()
	if _, dup := s.placed[k]; dup {
		return errors.Errorf("position: %s number %d already placed in %s", p.Child, p.Copy, p.Parent)
	}
	s.placed[k] = len(s.Placements)
	s.children[p.Parent] = append(s.children[p.Parent], len(s.Placements))
	s.Placements = append(s.Placements, p)
	return nil
}

// Children returns the placements whose parent is the given logical part,
// in registration order.
func (s *Store) Children(parent Name) []Placement {
	idx := s.children[parent]
	out := make([]Placement, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.Placements[i])
	}
	return out
}

// PlacementsOf returns every placement of the given child, in registration order.
func (s *Store) PlacementsOf(child Name) []Placement {
	var out []Placement
	for _, p := range s.Placements {
		if p.Child == child {
			out = append(out, p)
		}
	}
	return out
}

// Roots returns the logical parts that are never placed as a child,
// sorted by name.
func (s *Store) Roots() []Name {
	placedAsChild := make(map[Name]bool)
	for _, p := range s.Placements {
		placedAsChild[p.Child] = true
	}
	var roots []Name
	for name := range s.LogicalParts {
		if !placedAsChild[name] {
			roots = append(roots, name)
		}
	}
	SortNames(roots)
	return roots
}

// PlacementCount returns the number of placements.
func (s *Store) PlacementCount() int {
	return len(s.Placements)
}

func (s *Store) redefine(kind RedefinitionKind, name Name, changed bool) {
	s.Redefined = append(s.Redefined, Redefinition{Kind: kind, Name: name, Changed: changed})
}

// SortNames sorts names by namespace, then name.
func SortNames(names []Name) {
	sort.Slice(names, func(i, j int) bool {
		if names[i].Namespace != names[j].Namespace {
			return names[i].Namespace < names[j].Namespace
		}
		return names[i].Name < names[j].Name
	})
}
