package env

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, InitDefaults(ctx, m))
	require.NoError(t, m.Set(ctx, "THEME", "light"))
	require.NoError(t, InitDefaults(ctx, m))

	v, ok, err := m.Get(ctx, "THEME")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", v, "defaults never overwrite")

	assert.ErrorIs(t, m.Set(ctx, "9LIVES", "x"), ErrInvalidName)
	assert.ErrorIs(t, m.Set(ctx, "A-B", "x"), ErrInvalidName)

	require.NoError(t, m.Unset(ctx, "MISSING"))
	require.NoError(t, m.Unset(ctx, "LANG"))

	vars, err := m.List(ctx)
	require.NoError(t, err)
	want := []Var{{"EDITOR", "vim"}, {"THEME", "light"}}
	if diff := cmp.Diff(want, vars); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in         string
		key, value string
		ok         bool
	}{
		{"FOO=bar", "FOO", "bar", true},
		{" FOO = bar ", "FOO", "bar", true},
		{`FOO="hello world"`, "FOO", "hello world", true},
		{"FOO='x'", "FOO", "x", true},
		{`FOO="`, "FOO", `"`, true},
		{"FOO=", "FOO", "", true},
		{"FOO=a=b", "FOO", "a=b", true},
		{"FOO", "FOO", "", false},
	}
	for _, tt := range tests {
		k, v, ok := ParseAssignment(tt.in)
		assert.Equal(t, tt.key, k, tt.in)
		assert.Equal(t, tt.value, v, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestGenerateProfile(t *testing.T) {
	empty := GenerateProfile(nil, nil)
	assert.Equal(t, []string{"# ~/.profile", "", "# No variables set", "# Use 'export KEY=value' to set variables"}, empty)

	long := strings.Repeat("x", 61)
	got := GenerateProfile(
		[]Var{{"SESSION", long}, {"USER", "guest"}},
		[]Var{{"FOO", "bar"}},
	)
	want := []string{
		"# ~/.profile",
		"",
		"# System variables (read-only)",
		`SESSION="` + strings.Repeat("x", 57) + `..."`,
		`USER="guest"`,
		"",
		"# User variables",
		`export FOO="bar"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}

	exact := GenerateProfile([]Var{{"K", strings.Repeat("y", 60)}}, nil)
	assert.Equal(t, `K="`+strings.Repeat("y", 60)+`"`, exact[3])

	accented := strings.Repeat("a", 56) + "é" + strings.Repeat("z", 10)
	got = GenerateProfile([]Var{{"K", accented}}, nil)
	assert.Equal(t, `K="`+strings.Repeat("a", 56)+`é..."`, got[3])
	assert.True(t, utf8.ValidString(got[3]))

	wide := strings.Repeat("ü", 60)
	got = GenerateProfile([]Var{{"K", wide}}, nil)
	assert.Equal(t, `K="`+wide+`"`, got[3], "60 characters fit even when they take 120 bytes")
}

func TestFormatExport(t *testing.T) {
	assert.Equal(t, []string{"# No user variables set"}, FormatExport(nil))
	assert.Equal(t, []string{`declare -x A="1"`, `declare -x B="two words"`},
		FormatExport([]Var{{"A", "1"}, {"B", "two words"}}))
}

func TestMemorySessions(t *testing.T) {
	ctx := context.Background()
	ss := NewMemorySessions()

	a := ss.Session("a")
	require.NoError(t, a.Set(ctx, "FOO", "1"))
	assert.Same(t, a, ss.Session("a"))

	_, ok, err := ss.Session("b").Get(ctx, "FOO")
	require.NoError(t, err)
	assert.False(t, ok, "sessions do not share variables")

	require.NoError(t, ss.DeleteSession(ctx, "a"))
	_, ok, _ = ss.Session("a").Get(ctx, "FOO")
	assert.False(t, ok)
}
