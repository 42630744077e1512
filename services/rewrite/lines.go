package rewrite

import (
	"regexp"
	"strings"

	"github.com/ezenkico/deploy-commander/devmount/models"
)

var (
	servicesMarker = regexp.MustCompile(`^services:\s*(#.*)?$`)
	keyLine        = regexp.MustCompile(`^(\s*)([A-Za-z0-9._-]+):\s*(#.*)?$`)
	listItem       = regexp.MustCompile(`^\s*-(\s|$)`)
	listEntry      = regexp.MustCompile(`^(\s*-\s+)(\S.*?)(\s+#.*)?\s*$`)
	commentLine    = regexp.MustCompile(`^\s*#`)
)

// Top-level compose keys. A header with one of these names at column zero
// closes the current service block instead of opening a new one.
var topLevelKeys = map[string]struct{}{
	"version":  {},
	"name":     {},
	"services": {},
	"volumes":  {},
	"networks": {},
	"configs":  {},
	"secrets":  {},
	"include":  {},
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isComment(line string) bool {
	return commentLine.MatchString(line)
}

func isListItem(line string) bool {
	return listItem.MatchString(line)
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// parseKey matches a "name:" line with no inline value. A trailing comment is
// allowed.
func parseKey(line string) (name string, indent int, ok bool) {
	m := keyLine.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}
	return m[2], len(m[1]), true
}

func isTopLevelKey(name string, indent int) bool {
	if indent != 0 {
		return false
	}
	if strings.HasPrefix(name, "x-") {
		return true
	}
	_, ok := topLevelKeys[name]
	return ok
}

// parseMountEntry matches a short-syntax list entry "- <spec> [# comment]".
// Long-form entries ("- type: bind") are mappings and are not mount specs.
func parseMountEntry(line string) (prefix string, spec models.MountSpec, comment string, ok bool) {
	m := listEntry.FindStringSubmatch(line)
	if m == nil {
		return "", "", "", false
	}
	body := m[2]
	if strings.Contains(body, ": ") || strings.HasSuffix(body, ":") {
		return "", "", "", false
	}
	return m[1], models.MountSpec(body), m[3], true
}

// annotateEntry appends mode to a short-syntax entry; any other line is
// returned unchanged.
func annotateEntry(line string, mode models.ConsistencyMode) string {
	prefix, spec, comment, ok := parseMountEntry(line)
	if !ok {
		return line
	}
	out, changed := spec.WithMode(mode)
	if !changed {
		return line
	}
	return prefix + string(out) + comment
}
