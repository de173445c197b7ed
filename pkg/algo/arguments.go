// Package algo is the host side of geometry construction algorithms: the
// typed argument bag an algorithm reads its configuration from, the context
// it is invoked in, and the registry algorithms are looked up by name.
package algo

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrMissingKey is returned when a required argument is absent.
	ErrMissingKey = errors.New("missing argument")
	// ErrMalformedKey is returned when an argument is present but unusable,
	// e.g. a vector of the wrong length or a non-integral count.
	ErrMalformedKey = errors.New("malformed argument")
)

// Arguments holds the named arguments an algorithm is invoked with, split
// by type.
type Arguments struct {
	Numeric      map[string]float64
	Vector       map[string][]float64
	String       map[string]string
	StringVector map[string][]string
}

// NewArguments returns an empty argument bag.
func NewArguments() *Arguments {
	return &Arguments{
		Numeric:      make(map[string]float64),
		Vector:       make(map[string][]float64),
		String:       make(map[string]string),
		StringVector: make(map[string][]string),
	}
}

// Number returns a numeric argument.
func (a *Arguments) Number(key string) (float64, error) {
	v, ok := a.Numeric[key]
	if !ok {
		return 0, errors.Wrapf(ErrMissingKey, "numeric %q", key)
	}
	return v, nil
}

// Int returns a numeric argument that must hold an integral value.
func (a *Arguments) Int(key string) (int, error) {
	v, err := a.Number(key)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrMalformedKey, "numeric %q = %g is not an integer", key, v)
	}
	return int(v), nil
}

// Vec returns a vector argument. When n > 0 the vector must have at least
// n entries.
func (a *Arguments) Vec(key string, n int) ([]float64, error) {
	v, ok := a.Vector[key]
	if !ok {
		return nil, errors.Wrapf(ErrMissingKey, "vector %q", key)
	}
	if n > 0 && len(v) < n {
		return nil, errors.Wrapf(ErrMalformedKey, "vector %q has %d entries, need %d", key, len(v), n)
	}
	return v, nil
}

// Str returns a string argument.
func (a *Arguments) Str(key string) (string, error) {
	v, ok := a.String[key]
	if !ok {
		return "", errors.Wrapf(ErrMissingKey, "string %q", key)
	}
	return v, nil
}

// Strs returns a string vector argument.
func (a *Arguments) Strs(key string) ([]string, error) {
	v, ok := a.StringVector[key]
	if !ok {
		return nil, errors.Wrapf(ErrMissingKey, "string vector %q", key)
	}
	return v, nil
}

// Keys lists every argument name, sorted.
func (a *Arguments) Keys() []string {
	var keys []string
	for k := range a.Numeric {
		keys = append(keys, k)
	}
	for k := range a.Vector {
		keys = append(keys, k)
	}
	for k := range a.String {
		keys = append(keys, k)
	}
	for k := range a.StringVector {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
