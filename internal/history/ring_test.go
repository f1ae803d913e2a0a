package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Slice())

	v, ok := r.Get(0)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	last, _ := r.Last()
	assert.Equal(t, 5, last)

	_, ok = r.Get(3)
	assert.False(t, ok)
}

func TestRingClear(t *testing.T) {
	r := NewRing[string](2)
	r.Push("a")
	r.Clear()
	assert.Equal(t, 0, r.Len())
	_, ok := r.Last()
	assert.False(t, ok)
	r.Push("b")
	assert.Equal(t, []string{"b"}, r.Slice())
}

func TestRingMinimumCapacity(t *testing.T) {
	r := NewRing[int](0)
	r.Push(1)
	r.Push(2)
	assert.Equal(t, 1, r.Cap())
	assert.Equal(t, []int{2}, r.Slice())
}

func TestCommandsAddSkipsBlankAndRepeats(t *testing.T) {
	c := NewCommands(10)
	c.Add("ls")
	c.Add("ls")
	c.Add("   ")
	c.Add("pwd")
	c.Add("ls")
	assert.Equal(t, []string{"ls", "pwd", "ls"}, c.Lines())
}

func TestCommandsBounded(t *testing.T) {
	c := NewCommands(2)
	c.Add("a")
	c.Add("b")
	c.Add("c")
	assert.Equal(t, []string{"b", "c"}, c.Lines())
}

func TestCommandsNavigation(t *testing.T) {
	c := NewCommands(10)
	_, ok := c.Prev()
	assert.False(t, ok, "empty history")

	c.Add("one")
	c.Add("two")
	c.Add("three")

	steps := []struct {
		up     bool
		want   string
		wantOK bool
	}{
		{true, "three", true},
		{true, "two", true},
		{true, "one", true},
		{true, "one", true},
		{false, "two", true},
		{false, "three", true},
		{false, "", false},
		{false, "", false},
		{true, "three", true},
	}
	for i, s := range steps {
		var got string
		var ok bool
		if s.up {
			got, ok = c.Prev()
		} else {
			got, ok = c.Next()
		}
		assert.Equal(t, s.wantOK, ok, "step %d", i)
		assert.Equal(t, s.want, got, "step %d", i)
	}

	c.Add("four")
	got, _ := c.Prev()
	assert.Equal(t, "four", got, "adding resets navigation")
}
