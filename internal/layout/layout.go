// Package layout decides which assets reference a layout being replaced and
// rewrites those references.
package layout

import (
	"maps"
	"slices"

	"git.home.luguber.info/inful/layoutswap/internal/content"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/reference"
)

// Mapping maps version-less layout references to their version-less replacements.
type Mapping map[string]string

// NewMapping validates entries and returns a Mapping.
// Keys and values must be well-formed, unversioned references; a value may
// not itself be a key, so applying the mapping twice changes nothing.
func NewMapping(entries map[string]string) (Mapping, error) {
	if len(entries) == 0 {
		return nil, errors.ConfigError("layout mapping is empty").Build()
	}

	m := make(Mapping, len(entries))
	for from, to := range entries {
		for _, ref := range []string{from, to} {
			if err := reference.Validate(ref); err != nil {
				return nil, err
			}
			if reference.VersionOf(ref) != reference.Draft {
				return nil, errors.ConfigError("layout mapping entries must not carry a version").
					WithContext("reference", ref).
					Build()
			}
		}
		if from == to {
			return nil, errors.ConfigError("layout mapping entry maps a layout to itself").
				WithContext("reference", from).
				Build()
		}
		m[from] = to
	}

	for from, to := range m {
		if _, chained := m[to]; chained {
			return nil, errors.ConfigError("layout mapping target is also a source").
				WithContext("from", from).
				WithContext("to", to).
				Build()
		}
	}
	return m, nil
}

// Sources returns the mapping keys in sorted order.
func (m Mapping) Sources() []string {
	return slices.Sorted(maps.Keys(m))
}

// Target returns the replacement for layout, preserving layout's version.
func (m Mapping) Target(layout string) (string, bool) {
	to, ok := m[reference.StripVersion(layout)]
	if !ok {
		return "", false
	}
	return reference.WithVersion(to, reference.VersionOf(layout)), true
}

// Matches reports whether the asset's layout, ignoring version, is a mapping key.
func Matches(asset *content.Asset, m Mapping) bool {
	if asset == nil || asset.Document == nil {
		return false
	}
	layout, ok := asset.Document.Layout()
	if !ok {
		return false
	}
	_, ok = m[reference.StripVersion(layout)]
	return ok
}

// Rewrite replaces a matching asset's layout in place and reports whether it did.
// A draft layout is rewritten to a draft reference, a published one to a published reference.
func Rewrite(asset *content.Asset, m Mapping) bool {
	if !Matches(asset, m) {
		return false
	}
	layout, _ := asset.Document.Layout()
	target, _ := m.Target(layout)
	asset.Document.SetLayout(target)
	return true
}
