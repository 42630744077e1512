package models

import (
	"fmt"
	"strings"
)

// ConsistencyMode is the bind-mount consistency attribute understood by
// Docker Desktop on virtualized hosts.
type ConsistencyMode string

const (
	ConsistencyCached     ConsistencyMode = "cached"
	ConsistencyDelegated  ConsistencyMode = "delegated"
	ConsistencyConsistent ConsistencyMode = "consistent"
)

var consistencyModes = []ConsistencyMode{
	ConsistencyCached,
	ConsistencyDelegated,
	ConsistencyConsistent,
}

func ConsistencyModes() []ConsistencyMode {
	out := make([]ConsistencyMode, len(consistencyModes))
	copy(out, consistencyModes)
	return out
}

func (m ConsistencyMode) Valid() bool {
	for _, known := range consistencyModes {
		if m == known {
			return true
		}
	}
	return false
}

func (m ConsistencyMode) String() string {
	return string(m)
}

func ParseConsistencyMode(s string) (ConsistencyMode, error) {
	m := ConsistencyMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%q is not a valid consistency mode (use cached, delegated or consistent)", s)
	}
	return m, nil
}
