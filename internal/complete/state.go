package complete

import "strings"

// Mode is the phase of the input line.
type Mode int

const (
	Idle Mode = iota
	Hinting
	Cycling
)

func (m Mode) String() string {
	switch m {
	case Hinting:
		return "hinting"
	case Cycling:
		return "cycling"
	default:
		return "idle"
	}
}

// Source is what the input state asks for completions and hints.
type Source interface {
	Complete(input string) Result
	Hint(input string) (string, bool)
}

// InputState tracks the hint shown after the cursor and the Tab cycle
// through several candidates. At most one of the two is active.
type InputState struct {
	mode Mode

	hint string

	base    string
	matches []string
	index   int
}

func (s *InputState) Mode() Mode { return s.mode }

// Hint is the text shown after the input while Hinting.
func (s *InputState) Hint() string {
	if s.mode != Hinting {
		return ""
	}
	return s.hint
}

// Matches returns the candidates and the selected index while Cycling.
func (s *InputState) Matches() ([]string, int) {
	if s.mode != Cycling {
		return nil, -1
	}
	return s.matches, s.index
}

// Reset returns to Idle. Enter, Escape, Ctrl-C and history navigation
// all do this.
func (s *InputState) Reset() { *s = InputState{} }

// Type records an edit of the input and refreshes the hint.
func (s *InputState) Type(input string, src Source) {
	s.Reset()
	if input == "" {
		return
	}
	if h, ok := src.Hint(input); ok && h != "" {
		s.mode, s.hint = Hinting, h
	}
}

// Other records a key press other than Tab that leaves the text alone,
// such as cursor movement. It ends a Tab cycle; a hint stays.
func (s *InputState) Other() {
	if s.mode == Cycling {
		s.Reset()
	}
}

// AcceptHint appends the hint to input. ok is false when there is no
// hint to accept, in which case it acts as Other.
func (s *InputState) AcceptHint(input string) (string, bool) {
	if s.mode != Hinting || s.hint == "" {
		s.Other()
		return input, false
	}
	out := input + s.hint
	s.Reset()
	return out, true
}

// Tab completes input. The first press asks src; with several candidates
// it starts a cycle, and each further press selects the next candidate,
// wrapping around. ok is false when the input is left unchanged.
func (s *InputState) Tab(input string, src Source) (string, bool) {
	if s.mode == Cycling {
		s.index = (s.index + 1) % len(s.matches)
		return s.selection(), true
	}
	if input == "" {
		return input, false
	}

	res := src.Complete(input)
	switch res.Kind {
	case Single:
		s.Reset()
		return res.Completion, true
	case Multiple:
		s.mode = Cycling
		s.hint = ""
		s.base, s.matches, s.index = res.Completion, res.Candidates, 0
		if len(res.Completion) > len(input) {
			return res.Completion, true
		}
		return s.selection(), true
	}
	return input, false
}

// selection builds the input for the current candidate. For paths the
// candidate replaces everything after the last "/" of the base, or after
// the command when there is no "/".
func (s *InputState) selection() string {
	sel := s.matches[s.index]
	if !strings.Contains(s.base, " ") {
		return sel
	}
	sel = strings.TrimSuffix(sel, "/")
	if i := strings.LastIndexByte(s.base, '/'); i >= 0 {
		return s.base[:i+1] + sel
	}
	cmd, _, _ := strings.Cut(s.base, " ")
	return cmd + " " + sel
}
