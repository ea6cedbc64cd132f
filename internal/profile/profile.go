// Package profile provides the ordered spoofing policy table: named identity
// profiles and the package predicates that select them.
package profile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/propguard/propguard/internal/identity"
)

// ErrUnknownProfile is returned when a rule references an undefined profile.
var ErrUnknownProfile = errors.New("unknown profile")

// Attr is one attribute value of a profile.
type Attr struct {
	Key   identity.Key
	Value string
}

// Profile is an immutable named attribute bundle
type Profile struct {
	Name  string
	attrs []Attr
}

// NewProfile builds a profile from raw attribute names.
func NewProfile(name string, raw map[string]string) (Profile, error) {
	p := Profile{Name: name}
	for rawKey, value := range raw {
		k, err := identity.ParseKey(rawKey)
		if err != nil {
			return Profile{}, fmt.Errorf("profile %q: %w", name, err)
		}
		p.attrs = append(p.attrs, Attr{Key: k, Value: value})
	}
	// stable apply order
	sort.Slice(p.attrs, func(i, j int) bool { return p.attrs[i].Key < p.attrs[j].Key })
	return p, nil
}

// Attrs returns a copy of the attributes in key order.
func (p Profile) Attrs() []Attr {
	out := make([]Attr, len(p.attrs))
	copy(out, p.attrs)
	return out
}

// Value of key k, if the profile sets it
func (p Profile) Value(k identity.Key) (string, bool) {
	for _, a := range p.attrs {
		if a.Key == k {
			return a.Value, true
		}
	}
	return "", false
}
