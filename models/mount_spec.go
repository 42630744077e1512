package models

import "strings"

// MountSpec is the short-syntax volume entry of a compose service,
// e.g. "./src:/app/src" or "./src:/app/src:cached".
type MountSpec string

// Quoted reports whether the spec ends in a quote character.
func (s MountSpec) Quoted() bool {
	return strings.HasSuffix(string(s), `"`) || strings.HasSuffix(string(s), `'`)
}

// Separators counts the ':' characters in the spec.
func (s MountSpec) Separators() int {
	return strings.Count(string(s), ":")
}

// Mode returns the trailing consistency mode, if there is one.
func (s MountSpec) Mode() (ConsistencyMode, bool) {
	i := strings.LastIndex(string(s), ":")
	if i < 0 {
		return "", false
	}
	m := ConsistencyMode(s[i+1:])
	return m, m.Valid()
}

// Annotatable reports whether a consistency mode may be appended: exactly one
// host:container separator, no mode suffix and no closing quote.
func (s MountSpec) Annotatable() bool {
	if s.Quoted() || s.Separators() != 1 {
		return false
	}
	_, has := s.Mode()
	return !has
}

// WithMode appends mode when the spec is annotatable and returns the spec
// unchanged otherwise.
func (s MountSpec) WithMode(mode ConsistencyMode) (MountSpec, bool) {
	if !s.Annotatable() {
		return s, false
	}
	return s + MountSpec(":"+string(mode)), true
}
