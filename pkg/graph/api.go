package graph

// Registry is the host geometry registry that construction algorithms write
// into. Lookups are by exact name. Add methods replace existing entries of
// the same name; Position fails on dangling references or duplicate copies.
type Registry interface {
	Material(name Name) (*Material, bool)

	AddSolid(s Solid) error
	Solid(name Name) (Solid, bool)

	AddLogicalPart(lp *LogicalPart) error
	LogicalPart(name Name) (*LogicalPart, bool)

	AddRotation(r *Rotation) error
	Rotation(name Name) (*Rotation, bool)

	Position(p Placement) error
}

// DefineBox registers a box solid and a logical part of the same name made
// of material. It is the usual way to create a world or mother volume.
func DefineBox(reg Registry, name, material Name, dx, dy, dz float64) (*LogicalPart, error) {
	if err := reg.AddSolid(&Box{Name: name, DX: dx, DY: dy, DZ: dz}); err != nil {
		return nil, err
	}
	lp := &LogicalPart{Name: name, Solid: name, Material: material}
	if err := reg.AddLogicalPart(lp); err != nil {
		return nil, err
	}
	return lp, nil
}
