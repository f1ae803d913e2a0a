package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfolio/termfolio/internal/manifest"
	"github.com/termfolio/termfolio/internal/mount"
	"github.com/termfolio/termfolio/internal/route"
	"github.com/termfolio/termfolio/internal/vfs"
)

func testCompleter(t *testing.T, r route.Route) Completer {
	t.Helper()
	home := vfs.Build(&manifest.Manifest{
		Files: []manifest.FileEntry{
			{Path: "about.md", Title: "About"},
			{Path: "blog/hello.md", Title: "Hello"},
			{Path: "blog/2024/recap.md", Title: "Recap"},
		},
		Directories: []manifest.DirectoryEntry{
			{Path: "alpha"}, {Path: "apple"}, {Path: "avocado"},
		},
	}, vfs.Options{Mount: "~", Profile: true})
	work := vfs.Build(&manifest.Manifest{
		Files: []manifest.FileEntry{{Path: "docs/readme.md", Title: "Readme"}},
	}, vfs.Options{Mount: "work"})

	table, err := mount.NewTable(
		[]mount.Mount{{Alias: "~"}, {Alias: "work"}},
		map[string]*vfs.FS{"~": home, "work": work},
		"~",
	)
	require.NoError(t, err)
	return Completer{Mounts: table, Route: r}
}

func TestCompleteCommands(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))

	assert.Equal(t, Result{Kind: Single, Completion: "clear "}, c.Complete("cle"))
	assert.Equal(t, Result{Kind: Single, Completion: "whoami "}, c.Complete("  WHO"))
	assert.Equal(t, Result{}, c.Complete("xyz"))
	assert.Equal(t, Result{}, c.Complete(""))
	assert.Equal(t, Result{}, c.Complete("echo a"))

	res := c.Complete("c")
	assert.Equal(t, Multiple, res.Kind)
	assert.Equal(t, "c", res.Completion)
	assert.Equal(t, []string{"cat", "cd", "clear", "cls"}, res.Candidates)

	assert.Equal(t, "he", c.Complete("he").Completion)
}

func TestCompletePaths(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))

	tests := []struct {
		input string
		want  Result
	}{
		{"cd bl", Result{Kind: Single, Completion: "cd blog/"}},
		{"cat ab", Result{Kind: Single, Completion: "cat about.md "}},
		{"cat AB", Result{Kind: Single, Completion: "cat about.md "}},
		{"ls blog/2", Result{Kind: Single, Completion: "ls blog/2024/"}},
		{"cd ab", Result{}},
		{"cat nope/x", Result{}},
		{"cd a", Result{Kind: Multiple, Completion: "cd a", Candidates: []string{"alpha/", "apple/", "avocado/"}}},
		{"cat blog/", Result{Kind: Multiple, Completion: "cat blog/", Candidates: []string{"2024/", "hello.md"}}},
		{"cat blog/2024/r", Result{Kind: Single, Completion: "cat blog/2024/recap.md "}},
		{"cd ../w", Result{Kind: Single, Completion: "cd ../work/"}},
		{"cd /w", Result{Kind: Single, Completion: "cd /work/"}},
		{"ls ~/bl", Result{Kind: Single, Completion: "ls ~/blog/"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Complete(tt.input))
		})
	}
}

func TestCompleteAtRootUsesAliases(t *testing.T) {
	c := testCompleter(t, route.Root())

	assert.Equal(t, Result{Kind: Single, Completion: "cd work/"}, c.Complete("cd w"))
	assert.Equal(t, Result{Kind: Multiple, Completion: "ls ", Candidates: []string{"work/", "~/"}}, c.Complete("ls "))
	assert.Equal(t, Result{Kind: Single, Completion: "ls work/docs/"}, c.Complete("ls work/d"))
}

func TestHint(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"", "", false},
		{"wh", "oami", true},
		{"l", "ogin", true},
		{"ls", "", false},
		{"cd bl", "og/", true},
		{"CD bl", "og/", true},
		{"cat ab", "out.md", true},
		{"cat blog/h", "ello.md", true},
		{"cat about.md", "", false},
		{"echo a", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Hint(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "hel", commonPrefix([]string{"hello", "help", "helicopter"}))
	assert.Equal(t, "Blo", commonPrefix([]string{"Blog", "blob"}))
	assert.Equal(t, "x", commonPrefix([]string{"x"}))
	assert.Equal(t, "", commonPrefix(nil))
}

func TestHintAfterCaseFolding(t *testing.T) {
	fs := vfs.Build(&manifest.Manifest{
		Files: []manifest.FileEntry{{Path: "ßeta.md"}, {Path: "Über.md"}},
	}, vfs.Options{Mount: "~"})
	c := Completer{Mounts: mount.Single("~", fs), Route: route.Browse("~", "/")}

	tests := []struct {
		input string
		want  string
	}{
		{"cat ẞ", "eta.md"},
		{"cat ß", "eta.md"},
		{"cat ü", "ber.md"},
		{"cat üB", "er.md"},
	}
	for _, tt := range tests {
		got, ok := c.Hint(tt.input)
		assert.True(t, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestTabCycle(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))
	var s InputState

	got, ok := s.Tab("cd a", c)
	require.True(t, ok)
	assert.Equal(t, "cd alpha", got)
	assert.Equal(t, Cycling, s.Mode())

	var indices []int
	_, idx := s.Matches()
	indices = append(indices, idx)
	for _, want := range []string{"cd apple", "cd avocado", "cd alpha"} {
		got, ok = s.Tab(got, c)
		require.True(t, ok)
		assert.Equal(t, want, got)
		_, idx = s.Matches()
		indices = append(indices, idx)
	}
	assert.Equal(t, []int{0, 1, 2, 0}, indices)

	s.Reset()
	assert.Equal(t, Idle, s.Mode())
}

func TestTabCycleWithDirectory(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))
	var s InputState

	got, _ := s.Tab("cat bl", c)
	assert.Equal(t, "cat blog/", got)
	assert.Equal(t, Idle, s.Mode())

	got, _ = s.Tab(got, c)
	assert.Equal(t, "cat blog/2024", got, "common prefix does not extend the input")
	assert.Equal(t, Cycling, s.Mode())
	m, idx := s.Matches()
	assert.Equal(t, []string{"2024/", "hello.md"}, m)
	assert.Equal(t, 0, idx)

	got, _ = s.Tab(got, c)
	assert.Equal(t, "cat blog/hello.md", got)
}

func TestTabExtendsToCommonPrefix(t *testing.T) {
	var s InputState
	src := fixedSource{res: Result{Kind: Multiple, Completion: "cd proj", Candidates: []string{"projects/", "proj2/"}}}

	got, ok := s.Tab("cd p", src)
	require.True(t, ok)
	assert.Equal(t, "cd proj", got)
	got, _ = s.Tab(got, src)
	assert.Equal(t, "cd proj2", got)
}

func TestHintingAndCyclingExclusive(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))
	var s InputState

	s.Type("wh", c)
	assert.Equal(t, Hinting, s.Mode())
	assert.Equal(t, "oami", s.Hint())

	got, ok := s.AcceptHint("wh")
	require.True(t, ok)
	assert.Equal(t, "whoami", got)
	assert.Equal(t, Idle, s.Mode())
	_, ok = s.AcceptHint("whoami")
	assert.False(t, ok)

	s.Type("c", c)
	require.Equal(t, Hinting, s.Mode())
	s.Tab("c", c)
	assert.Equal(t, Cycling, s.Mode())
	assert.Empty(t, s.Hint())

	s.Type("ca", c)
	assert.Equal(t, Hinting, s.Mode())
	m, idx := s.Matches()
	assert.Nil(t, m)
	assert.Equal(t, -1, idx)

	s.Type("", c)
	assert.Equal(t, Idle, s.Mode())
}

func TestCycleEndsOnOtherKeys(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))

	tests := []struct {
		name  string
		press func(s *InputState, input string)
	}{
		{"right", func(s *InputState, input string) { s.AcceptHint(input) }},
		{"left", func(s *InputState, _ string) { s.Other() }},
		{"home", func(s *InputState, _ string) { s.Other() }},
		{"history", func(s *InputState, _ string) { s.Reset() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s InputState
			got, _ := s.Tab("cd a", c)
			require.Equal(t, "cd alpha", got)
			require.Equal(t, Cycling, s.Mode())

			tt.press(&s, got)
			assert.Equal(t, Idle, s.Mode())
			m, idx := s.Matches()
			assert.Nil(t, m)
			assert.Equal(t, -1, idx)

			got, _ = s.Tab(got, c)
			assert.Equal(t, "cd alpha/", got, "a new completion starts from the current text")
		})
	}
}

func TestOtherKeepsHint(t *testing.T) {
	c := testCompleter(t, route.Browse("~", "/"))
	var s InputState

	s.Type("wh", c)
	s.Other()
	assert.Equal(t, Hinting, s.Mode())
	assert.Equal(t, "oami", s.Hint())
}

type fixedSource struct{ res Result }

func (f fixedSource) Complete(string) Result     { return f.res }
func (f fixedSource) Hint(string) (string, bool) { return "", false }
