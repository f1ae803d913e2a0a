// Package complete implements tab completion and the inline hint shown
// while typing.
package complete

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/termfolio/termfolio/internal/command"
	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/mount"
	"github.com/termfolio/termfolio/internal/route"
)

// Kind says how many candidates a completion found.
type Kind int

const (
	None Kind = iota
	Single
	Multiple
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	default:
		return "none"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{None, Single, Multiple} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown completion kind %q", b)
}

// Result is the outcome of one completion request.
//
// For Single, Completion is the full new input. For Multiple it is the
// input extended by the common prefix of all candidates, and Candidates
// holds their display names; directories carry a trailing "/".
type Result struct {
	Kind       Kind     `json:"kind"`
	Completion string   `json:"completion,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

type mode int

const (
	modeNone mode = iota
	modeCommand
	modeDirs
	modeFiles
)

var (
	dirCommands  = []string{"cd", "ls"}
	fileCommands = []string{"cat", "less", "more"}
)

// split classifies the input by its first word. rest is everything after
// the first space.
func split(input string) (m mode, cmd, rest string) {
	cmd, rest, found := strings.Cut(input, " ")
	if !found {
		return modeCommand, cmd, ""
	}
	lower := strings.ToLower(cmd)
	for _, c := range dirCommands {
		if lower == c {
			return modeDirs, cmd, rest
		}
	}
	for _, c := range fileCommands {
		if lower == c {
			return modeFiles, cmd, rest
		}
	}
	return modeNone, cmd, rest
}

// Completer completes against one mount table as seen from one route.
type Completer struct {
	Mounts *mount.Table
	Route  route.Route
}

// Complete computes the Tab completion of input. Leading whitespace is
// ignored.
func (c Completer) Complete(input string) Result {
	input = strings.TrimLeft(input, " \t")
	if input == "" {
		return Result{}
	}

	var res Result
	switch m, cmd, rest := split(input); m {
	case modeCommand:
		res = completeCommand(cmd)
	case modeDirs, modeFiles:
		res = c.completePath(cmd, rest, m == modeDirs)
	}
	metrics.RecordCompletion(res.Kind.String())
	return res
}

// Hint returns the text that would complete the input: the remainder of
// the first candidate that extends it.
func (c Completer) Hint(input string) (string, bool) {
	input = strings.TrimLeft(input, " \t")
	if input == "" {
		return "", false
	}

	switch m, cmd, rest := split(input); m {
	case modeCommand:
		lower := strings.ToLower(cmd)
		for _, name := range command.Names() {
			if !strings.HasPrefix(name, lower) || name == lower {
				continue
			}
			if n := foldedPrefixLen(name, cmd); n < len(name) {
				return name[n:], true
			}
		}
	case modeDirs, modeFiles:
		matches, _, name, ok := c.matches(rest, m == modeDirs)
		if !ok {
			return "", false
		}
		lower := strings.ToLower(name)
		for _, e := range matches {
			if strings.ToLower(e.name) == lower {
				continue
			}
			// The typed text may differ in case and byte length from
			// the entry, so the hint starts where the folded match ends.
			n := foldedPrefixLen(e.name, name)
			if n >= len(e.name) {
				continue
			}
			hint := e.name[n:]
			if e.dir {
				hint += "/"
			}
			return hint, true
		}
	}
	return "", false
}

func completeCommand(partial string) Result {
	lower := strings.ToLower(partial)
	var matches []string
	for _, name := range command.Names() {
		if strings.HasPrefix(name, lower) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return Result{}
	case 1:
		return Result{Kind: Single, Completion: matches[0] + " "}
	}
	return Result{Kind: Multiple, Completion: commonPrefix(matches), Candidates: matches}
}

type match struct {
	name string
	dir  bool
}

// matches lists the entries of the directory named by the part of partial
// up to its last "/" whose names start with the rest, case-insensitively.
func (c Completer) matches(partial string, dirsOnly bool) (out []match, dirPart, namePart string, ok bool) {
	dirPart, namePart = "", partial
	if i := strings.LastIndexByte(partial, '/'); i >= 0 {
		dirPart, namePart = partial[:i+1], partial[i+1:]
	}

	target := "."
	if dirPart != "" {
		target = strings.TrimRight(dirPart, "/")
		if target == "" {
			target = "/"
		}
	}
	loc, found := c.Mounts.Resolve(c.Route, target)
	if !found {
		return nil, "", "", false
	}
	entries, found := c.Mounts.List(loc)
	if !found {
		return nil, "", "", false
	}

	lower := strings.ToLower(namePart)
	for _, e := range entries {
		if dirsOnly && !e.IsDir {
			continue
		}
		if strings.HasPrefix(strings.ToLower(e.Name), lower) {
			out = append(out, match{name: e.Name, dir: e.IsDir})
		}
	}
	return out, dirPart, namePart, true
}

func (c Completer) completePath(cmd, partial string, dirsOnly bool) Result {
	matches, dirPart, _, ok := c.matches(partial, dirsOnly)
	if !ok || len(matches) == 0 {
		return Result{}
	}

	if len(matches) == 1 {
		suffix := " "
		if matches[0].dir {
			suffix = "/"
		}
		return Result{Kind: Single, Completion: cmd + " " + dirPart + matches[0].name + suffix}
	}

	paths := make([]string, len(matches))
	names := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = dirPart + m.name
		names[i] = m.name
		if m.dir {
			names[i] += "/"
		}
	}
	return Result{Kind: Multiple, Completion: cmd + " " + commonPrefix(paths), Candidates: names}
}

// commonPrefix is the longest prefix shared by all strings, compared
// case-insensitively and taken from the first string.
func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	first := ss[0]
	n := len(first)
	for _, s := range ss[1:] {
		n = min(n, foldedPrefixLen(first[:n], s))
	}
	return first[:n]
}

func foldedPrefixLen(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ra, sa := utf8.DecodeRuneInString(a[i:])
		rb, sb := utf8.DecodeRuneInString(b[j:])
		if !strings.EqualFold(string(ra), string(rb)) {
			break
		}
		i += sa
		j += sb
	}
	return i
}
