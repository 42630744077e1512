package models

import (
	"sort"
	"strings"
)

// TargetSet holds the names of the services whose volumes are kept.
type TargetSet map[string]struct{}

func NewTargetSet(names ...string) TargetSet {
	set := make(TargetSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

func (s TargetSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in stable order.
func (s TargetSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
