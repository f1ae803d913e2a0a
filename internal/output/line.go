// Package output defines the typed lines a shell command produces.
//
// Lines carry display intent only. Renderers (the HTTP API and the terminal
// UI) decide how each kind looks.
package output

import (
	"fmt"
	"sync/atomic"
)

// Kind is the display intent of a line.
type Kind int

const (
	KindText Kind = iota
	KindError
	KindSuccess
	KindInfo
	KindAscii
	KindEmpty
	KindCommand
	KindListEntry
)

var kindNames = [...]string{"text", "error", "success", "info", "ascii", "empty", "command", "entry"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name for JSON clients.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown line kind %q", b)
}

// Style selects how a list entry name is highlighted.
type Style string

const (
	StyleDirectory Style = "directory"
	StyleFile      Style = "file"
	StyleHidden    Style = "hidden"
)

// LongFormat holds the extra columns of `ls -l`.
type LongFormat struct {
	Permissions string `json:"permissions"`
	Size        *int64 `json:"size,omitempty"`
	Modified    *int64 `json:"modified,omitempty"` // unix seconds
}

// ListEntry is one row of a directory listing.
type ListEntry struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Style       Style       `json:"style"`
	Encrypted   bool        `json:"encrypted,omitempty"`
	Long        *LongFormat `json:"long,omitempty"`
}

// Line is a single output line. Which fields are set depends on Kind.
type Line struct {
	ID     uint64     `json:"id"`
	Kind   Kind       `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Prompt string     `json:"prompt,omitempty"`
	Input  string     `json:"input,omitempty"`
	Entry  *ListEntry `json:"entry,omitempty"`
}

func Text(s string) Line    { return Line{Kind: KindText, Text: s} }
func Error(s string) Line   { return Line{Kind: KindError, Text: s} }
func Success(s string) Line { return Line{Kind: KindSuccess, Text: s} }
func Info(s string) Line    { return Line{Kind: KindInfo, Text: s} }
func Ascii(s string) Line   { return Line{Kind: KindAscii, Text: s} }
func Empty() Line           { return Line{Kind: KindEmpty} }

// Errorf is Error with formatting.
func Errorf(format string, args ...any) Line {
	return Error(fmt.Sprintf(format, args...))
}

// Command echoes a submitted input line next to its prompt.
func Command(prompt, input string) Line {
	return Line{Kind: KindCommand, Prompt: prompt, Input: input}
}

// Entry wraps a list entry.
func Entry(e ListEntry) Line {
	return Line{Kind: KindListEntry, Entry: &e}
}

// Content is the text a filter such as grep matches against.
// Empty lines have no content.
func (l Line) Content() (string, bool) {
	switch l.Kind {
	case KindEmpty:
		return "", false
	case KindCommand:
		return l.Input, true
	case KindListEntry:
		if l.Entry == nil {
			return "", false
		}
		return l.Entry.Name, true
	default:
		return l.Text, true
	}
}

// Sequence hands out monotonically increasing line ids. Each session owns
// one; there is no process-wide counter.
type Sequence struct {
	n atomic.Uint64
}

// Next returns the next id, starting at 1.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Stamp assigns fresh ids to lines in place and returns them.
func (s *Sequence) Stamp(lines []Line) []Line {
	for i := range lines {
		lines[i].ID = s.Next()
	}
	return lines
}
