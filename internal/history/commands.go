package history

import "strings"

// Commands is the submitted-line history with up/down navigation.
type Commands struct {
	ring   *Ring[string]
	cursor int // -1 when not navigating
}

// NewCommands keeps at most size lines.
func NewCommands(size int) *Commands {
	return &Commands{ring: NewRing[string](size), cursor: -1}
}

// Add records a submitted line. Blank lines and immediate repeats are
// skipped. Navigation resets either way.
func (c *Commands) Add(line string) {
	c.cursor = -1
	if strings.TrimSpace(line) == "" {
		return
	}
	if last, ok := c.ring.Last(); ok && last == line {
		return
	}
	c.ring.Push(line)
}

// Lines returns the history, oldest first.
func (c *Commands) Lines() []string { return c.ring.Slice() }

// Len returns the number of stored lines.
func (c *Commands) Len() int { return c.ring.Len() }

// Prev moves one entry back (ArrowUp). It stays on the oldest entry once
// there, and reports false only when history is empty.
func (c *Commands) Prev() (string, bool) {
	n := c.ring.Len()
	if n == 0 {
		return "", false
	}
	switch {
	case c.cursor < 0:
		c.cursor = n - 1
	case c.cursor > 0:
		c.cursor--
	}
	return c.ring.Get(c.cursor)
}

// Next moves one entry forward (ArrowDown). Stepping past the newest
// entry leaves navigation and reports false, which clears the input.
func (c *Commands) Next() (string, bool) {
	if c.cursor < 0 {
		return "", false
	}
	if c.cursor >= c.ring.Len()-1 {
		c.cursor = -1
		return "", false
	}
	c.cursor++
	return c.ring.Get(c.cursor)
}

// Reset leaves navigation mode.
func (c *Commands) Reset() { c.cursor = -1 }
