// Package reference maps content references between their draft and
// versioned forms.
//
// A reference has the shape {site}/{collection}/{identity}[@{version}].
// The draft form carries no version; the published form carries the
// literal tag "published"; other tags are numeric or timestamps.
package reference

import (
	"strings"

	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
)

const (
	// Draft is the version of a reference without an explicit tag.
	Draft = ""
	// Published is the tag of the publicly served version.
	Published = "published"

	// PagesCollection is the collection page references are listed under.
	PagesCollection = "_pages"

	versionSep = "@"
)

// versionIndex returns the index of the version separator, or -1.
// Only an '@' after the final '/' separates a version.
func versionIndex(ref string) int {
	i := strings.LastIndex(ref, versionSep)
	if i < 0 || i < strings.LastIndex(ref, "/") {
		return -1
	}
	return i
}

// StripVersion returns ref without its version suffix.
func StripVersion(ref string) string {
	if i := versionIndex(ref); i >= 0 {
		return ref[:i]
	}
	return ref
}

// WithVersion returns the base of ref tagged with version. Draft yields the bare base.
func WithVersion(ref, version string) string {
	base := StripVersion(ref)
	if version == Draft {
		return base
	}
	return base + versionSep + version
}

// VersionOf returns the version tag of ref, or Draft when there is none.
func VersionOf(ref string) string {
	if i := versionIndex(ref); i >= 0 {
		return ref[i+len(versionSep):]
	}
	return Draft
}

// IsPublished reports whether ref addresses the published version.
func IsPublished(ref string) bool {
	return VersionOf(ref) == Published
}

// Validate checks that ref is a well-formed content reference.
func Validate(ref string) error {
	invalid := func(reason string) error {
		return errors.ConfigError("malformed content reference").
			WithContext("reference", ref).
			WithContext("reason", reason).
			Build()
	}

	if ref == "" {
		return invalid("empty")
	}
	if strings.Contains(ref, "://") {
		return invalid("must not carry a protocol")
	}
	if i := versionIndex(ref); i >= 0 && i == len(ref)-1 {
		return invalid("empty version tag")
	}

	base := StripVersion(ref)
	site, rest, ok := strings.Cut(base, "/_")
	if !ok || site == "" {
		return invalid("missing site or collection")
	}
	collection, identity, ok := strings.Cut(rest, "/")
	if !ok || collection == "" {
		return invalid("missing collection")
	}
	if identity == "" || strings.HasSuffix(identity, "/") {
		return invalid("missing identity")
	}
	return nil
}
