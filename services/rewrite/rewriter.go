// Package rewrite restricts the volume mounts of a compose document to a set
// of target services and tags the kept bind mounts with a consistency mode.
package rewrite

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ezenkico/deploy-commander/devmount/models"
)

type blockState int

const (
	outside blockState = iota
	inTarget
	inOther
)

func (s blockState) String() string {
	switch s {
	case inTarget:
		return "in-target-service"
	case inOther:
		return "in-other-service"
	default:
		return "outside"
	}
}

// Filter is the per-line state machine behind Rewrite. The first service block
// starts at a "name:" line following a blank line, the services marker or the
// start of the document; its column is then the header column.
type Filter struct {
	targets models.TargetSet
	mode    models.ConsistencyMode

	block     blockState
	inVolumes bool
	atBreak   bool

	// column of the first service header; -1 until one is seen
	headerIndent int
	// set by a top-level key other than services
	closed bool

	volumesIndent int
	itemIndent    int // column of the list items; -1 until the first one
}

func NewFilter(targets models.TargetSet, mode models.ConsistencyMode) *Filter {
	if mode == "" {
		mode = models.ConsistencyDelegated
	}
	return &Filter{
		targets:      targets,
		mode:         mode,
		atBreak:      true,
		headerIndent: -1,
		itemIndent:   -1,
	}
}

// Line feeds one input line and returns the output line, or keep=false when
// the line is dropped.
func (f *Filter) Line(line string) (out string, keep bool) {
	atBreak := f.atBreak
	f.atBreak = false

	if f.inVolumes {
		if out, keep, handled := f.volumeLine(line); handled {
			return out, keep
		}
		f.inVolumes = false
	}

	if isBlank(line) {
		f.atBreak = true
		return line, true
	}

	if servicesMarker.MatchString(line) {
		f.block = outside
		f.closed = false
		f.atBreak = true
		return line, true
	}

	name, indent, ok := parseKey(line)
	if !ok {
		return line, true
	}

	if isTopLevelKey(name, indent) {
		f.block = outside
		f.closed = true
		return line, true
	}

	if name == "volumes" && f.block != outside {
		f.inVolumes = true
		f.volumesIndent = indent
		f.itemIndent = -1
		return line, f.block != inOther
	}

	if f.closed {
		return line, true
	}

	// Once the header column is known, a key at that column is a sibling
	// service even without a preceding blank line.
	if (atBreak && f.headerIndent < 0) || (f.headerIndent >= 0 && indent == f.headerIndent) {
		f.headerIndent = indent
		if f.targets.Has(name) {
			f.block = inTarget
		} else {
			f.block = inOther
		}
	}

	return line, true
}

// volumeLine handles a line while inside a volumes list. Items sit at one
// column at or right of the volumes key; deeper lines continue the current
// item (long-form mappings) and share its fate. handled is false once the
// line is past the end of the list.
func (f *Filter) volumeLine(line string) (out string, keep, handled bool) {
	if isComment(line) {
		return line, true, true
	}
	if isBlank(line) {
		return "", false, false
	}

	indent := indentOf(line)
	if isListItem(line) && indent >= f.volumesIndent && (f.itemIndent < 0 || indent == f.itemIndent) {
		f.itemIndent = indent
		switch f.block {
		case inOther:
			return "", false, true
		case inTarget:
			return annotateEntry(line, f.mode), true, true
		default:
			return line, true, true
		}
	}

	if f.itemIndent >= 0 && indent > f.itemIndent {
		return line, f.block != inOther, true
	}

	return "", false, false
}

// Rewrite applies a fresh Filter to every line of a document. It never fails;
// input that does not follow the blank-line-before-service convention gets a
// best-effort result.
func Rewrite(lines []string, targets models.TargetSet, mode models.ConsistencyMode) []string {
	f := NewFilter(targets, mode)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if o, keep := f.Line(l); keep {
			out = append(out, o)
		}
	}
	return out
}

// RewriteReader streams r through a Filter into w, one line at a time. Line
// endings are carried over as read, so CRLF input stays CRLF and a missing
// final newline stays missing.
func RewriteReader(r io.Reader, w io.Writer, targets models.TargetSet, mode models.ConsistencyMode) error {
	f := NewFilter(targets, mode)
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for {
		raw, err := br.ReadString('\n')
		if len(raw) > 0 {
			line, eol := splitEOL(raw)
			if o, keep := f.Line(line); keep {
				if _, werr := bw.WriteString(o + eol); werr != nil {
					return fmt.Errorf("write rewritten line: %w", werr)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read compose document: %w", err)
		}
	}

	return bw.Flush()
}

func splitEOL(raw string) (line, eol string) {
	switch {
	case strings.HasSuffix(raw, "\r\n"):
		return raw[:len(raw)-2], "\r\n"
	case strings.HasSuffix(raw, "\n"):
		return raw[:len(raw)-1], "\n"
	default:
		return raw, ""
	}
}
