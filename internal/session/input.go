package session

import (
	"fmt"

	"github.com/termfolio/termfolio/internal/complete"
)

// Key is a key press that affects the input line. KeyType reports that
// the input text changed; KeyOther is any other key that left the text
// alone, such as Left, Home or End.
type Key string

const (
	KeyTab       Key = "tab"
	KeyRight     Key = "right"
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyEscape    Key = "escape"
	KeyInterrupt Key = "ctrl+c"
	KeyType      Key = "type"
	KeyOther     Key = "other"
)

// InputReply is the input line after a key press.
type InputReply struct {
	Input      string   `json:"input"`
	Mode       string   `json:"mode"`
	Hint       string   `json:"hint,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
	Index      int      `json:"index"`
}

// Key applies a key press to input and returns the new input line.
func (s *Session) Key(key Key, input string) (InputReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	src := s.completer()
	switch key {
	case KeyTab:
		if out, ok := s.input.Tab(input, src); ok {
			input = out
		}
	case KeyRight:
		if out, ok := s.input.AcceptHint(input); ok {
			input = out
		}
	case KeyUp:
		s.input.Reset()
		if line, ok := s.history.Prev(); ok {
			input = line
		}
	case KeyDown:
		s.input.Reset()
		line, ok := s.history.Next()
		if ok {
			input = line
		} else {
			input = ""
		}
	case KeyEscape:
		s.input.Reset()
	case KeyInterrupt:
		s.input.Reset()
		s.history.Reset()
		input = ""
	case KeyType:
		s.history.Reset()
		s.input.Type(input, src)
	case KeyOther:
		s.input.Other()
	default:
		return InputReply{}, fmt.Errorf("unknown key %q", key)
	}

	reply := InputReply{Input: input, Mode: s.input.Mode().String(), Hint: s.input.Hint()}
	reply.Candidates, reply.Index = s.input.Matches()
	return reply, nil
}

// Complete returns the Tab completion of input without touching the
// input state.
func (s *Session) Complete(input string) complete.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completer().Complete(input)
}

// Hint returns the inline hint for input.
func (s *Session) Hint(input string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completer().Hint(input)
}

func (s *Session) completer() complete.Completer {
	t := s.table()
	return complete.Completer{Mounts: t, Route: s.route}
}
