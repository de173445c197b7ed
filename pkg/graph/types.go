package graph

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
)

// Name identifies an entity in the geometry description. Names are unique
// within a namespace; the same name may appear in different namespaces.
type Name struct {
	Namespace string
	Name      string
}

// NewName builds a Name from its parts.
func NewName(name, namespace string) Name {
	return Name{Namespace: namespace, Name: name}
}

// ParseName splits "ns:name" at the first colon. Without a colon the whole
// string is the name and defaultNS is used as the namespace.
func ParseName(s, defaultNS string) Name {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return Name{Namespace: s[:i], Name: s[i+1:]}
	}
	return Name{Namespace: defaultNS, Name: s}
}

// IsZero reports whether the name is unset.
func (n Name) IsZero() bool {
	return n.Name == "" && n.Namespace == ""
}

func (n Name) String() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + ":" + n.Name
}

// MarshalText encodes the name as "ns:name".
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText decodes "ns:name" or a bare name with an empty namespace.
func (n *Name) UnmarshalText(b []byte) error {
	*n = ParseName(string(b), "")
	return nil
}

// Placement positions a copy of a child logical part inside a parent.
// A zero Rotation name means the identity rotation.
type Placement struct {
	Child       Name      `json:"child"`
	Parent      Name      `json:"parent"`
	Copy        int       `json:"copy"`
	Translation r3.Vector `json:"translation"`
	Rotation    Name      `json:"rotation"`
}

func (p Placement) String() string {
	rot := "no rotation"
	if !p.Rotation.IsZero() {
		rot = p.Rotation.String()
	}
	return fmt.Sprintf("%s number %d in %s at (%g,%g,%g) with %s",
		p.Child, p.Copy, p.Parent, p.Translation.X, p.Translation.Y, p.Translation.Z, rot)
}

// placementKey identifies a sibling instance under a parent.
type placementKey struct {
	parent Name
	child  Name
	copy   int
}

func (p Placement) key() placementKey {
	return placementKey{parent: p.Parent, child: p.Child, copy: p.Copy}
}
