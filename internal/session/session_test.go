package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/events"
	"github.com/termfolio/termfolio/internal/manifest"
	"github.com/termfolio/termfolio/internal/mount"
	"github.com/termfolio/termfolio/internal/output"
	"github.com/termfolio/termfolio/internal/route"
	"github.com/termfolio/termfolio/internal/vfs"
	"github.com/termfolio/termfolio/internal/wallet"
)

const alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func testTable(t *testing.T, files ...string) *mount.Table {
	t.Helper()
	m := &manifest.Manifest{}
	for _, f := range files {
		m.Files = append(m.Files, manifest.FileEntry{Path: f, Title: f})
	}
	home := vfs.Build(m, vfs.Options{Mount: "~", Profile: true})
	table, err := mount.NewTable([]mount.Mount{{Alias: "~", Kind: mount.KindLocal, Path: "/srv/manifest.json"}},
		map[string]*vfs.FS{"~": home}, "~")
	require.NoError(t, err)
	return table
}

func newManager(t *testing.T) (*Manager, *events.Broadcaster) {
	t.Helper()
	bus := events.NewBroadcaster()
	m := NewManager(testTable(t, "blog/hello.md", "about.md"), env.NewMemorySessions(), Options{Hostname: "host"}, bus)
	return m, bus
}

func newSession(t *testing.T) *Session {
	t.Helper()
	m, _ := newManager(t)
	s, err := m.Create(context.Background(), "test-agent")
	require.NoError(t, err)
	return s
}

func contents(ls []output.Line) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		s, _ := l.Content()
		out = append(out, s)
	}
	return out
}

func TestSubmitEchoesAndNavigates(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	r := s.Submit(ctx, "cd blog")
	require.Len(t, r.Lines, 1)
	assert.Equal(t, output.KindCommand, r.Lines[0].Kind)
	assert.Equal(t, "guest@host:~", r.Lines[0].Prompt)
	assert.Equal(t, "cd blog", r.Lines[0].Input)
	assert.Equal(t, route.Browse("~", "/blog"), r.Route)
	assert.Equal(t, "guest@host:~/blog", r.Prompt)

	r = s.Submit(ctx, "cat hello.md")
	assert.Equal(t, route.Read("~", "/blog/hello.md"), r.Route)
	assert.Equal(t, "/srv/blog/hello.md", r.ContentURL)

	r = s.Submit(ctx, "pwd")
	assert.Equal(t, []string{"pwd", "~/blog"}, contents(r.Lines))
	assert.Less(t, r.Lines[0].ID, r.Lines[1].ID)
}

func TestSubmitEmptyLineNotEchoed(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	before := len(s.Snapshot().Output)

	r := s.Submit(ctx, "")
	assert.Empty(t, r.Lines)
	assert.Equal(t, "guest@host:~", r.Prompt)
	assert.Len(t, s.Snapshot().Output, before)
	assert.Empty(t, s.Snapshot().History)

	r = s.Submit(ctx, "  ")
	require.Len(t, r.Lines, 1, "whitespace is still echoed")
	assert.Equal(t, output.KindCommand, r.Lines[0].Kind)
}

func TestHistoryExpansionUsesPreviousLines(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	s.Submit(ctx, "echo one")
	r := s.Submit(ctx, "!!")
	assert.Equal(t, []string{"!!", "one"}, contents(r.Lines))

	r = s.Submit(ctx, "!0")
	assert.Equal(t, "one", r.Lines[1].Text)

	snap := s.Snapshot()
	assert.Equal(t, []string{"echo one", "!!", "!0"}, snap.History)
}

func TestVariablesAndSystemFallback(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	s.Submit(ctx, "export FOO=bar")
	assert.Equal(t, "bar", s.Submit(ctx, "echo $FOO").Lines[1].Text)
	assert.Equal(t, "guest", s.Submit(ctx, "echo $USER").Lines[1].Text)
	assert.Equal(t, "dark", s.Submit(ctx, "echo $THEME").Lines[1].Text)

	s.Submit(ctx, "export USER=mallory")
	assert.Equal(t, "mallory", s.Submit(ctx, "echo $USER").Lines[1].Text, "user variables win")
}

func TestLoginLogout(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	r := s.Submit(ctx, "login")
	assert.Equal(t, output.KindError, r.Lines[1].Kind)

	r = s.Submit(ctx, "login 0xnothex")
	assert.Equal(t, output.KindError, r.Lines[1].Kind)

	r = s.Submit(ctx, "login 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed 1 alice.eth")
	assert.Equal(t, []string{
		"login 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed 1 alice.eth",
		"Connected: " + alice,
		"Network: Ethereum (chain_id=1)",
		"ENS: alice.eth",
	}, contents(r.Lines))
	assert.Equal(t, "alice.eth@host:~", r.Prompt)
	assert.Equal(t, wallet.Connected, s.Snapshot().Wallet.Status)

	r = s.Submit(ctx, "logout")
	assert.Equal(t, "Disconnected from wallet.", r.Lines[1].Text)
	r = s.Submit(ctx, "logout")
	assert.Equal(t, "No wallet connected.", r.Lines[1].Text)
	assert.Equal(t, "guest@host:~", r.Prompt)
}

func TestExplorer(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	r := s.Submit(ctx, "explorer about.md")
	assert.Equal(t, "explorer: not a directory: about.md", r.Lines[1].Text)
	assert.Equal(t, ViewTerminal, r.View)

	r = s.Submit(ctx, "explorer nope")
	assert.Equal(t, "explorer: no such file or directory: nope", r.Lines[1].Text)

	r = s.Submit(ctx, "explorer blog")
	assert.Equal(t, ViewExplorer, r.View)
	assert.Equal(t, route.Browse("~", "/blog"), r.Route)
	assert.Len(t, r.Lines, 1)

	s.SetView(ViewTerminal)
	assert.Equal(t, ViewTerminal, s.Snapshot().View)
}

func TestClearEmptiesOutput(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	s.Submit(ctx, "ls")
	require.NotEmpty(t, s.Snapshot().Output)

	r := s.Submit(ctx, "clear")
	assert.True(t, r.Cleared)
	assert.Empty(t, r.Lines)
	assert.Empty(t, s.Snapshot().Output)
}

func TestSyntaxError(t *testing.T) {
	s := newSession(t)
	r := s.Submit(context.Background(), "ls |")
	require.Len(t, r.Lines, 2)
	assert.Equal(t, output.KindError, r.Lines[1].Kind)
}

func TestKeys(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()

	r, err := s.Key(KeyType, "wh")
	require.NoError(t, err)
	assert.Equal(t, "hinting", r.Mode)
	assert.Equal(t, "oami", r.Hint)

	r, err = s.Key(KeyRight, "wh")
	require.NoError(t, err)
	assert.Equal(t, "whoami", r.Input)
	assert.Equal(t, "idle", r.Mode)

	r, _ = s.Key(KeyTab, "c")
	assert.Equal(t, "cycling", r.Mode)
	assert.Equal(t, "cat", r.Input)
	assert.Equal(t, 0, r.Index)
	r, _ = s.Key(KeyTab, r.Input)
	assert.Equal(t, "cd", r.Input)
	assert.Equal(t, 1, r.Index)

	r, _ = s.Key(KeyEscape, r.Input)
	assert.Equal(t, "idle", r.Mode)
	assert.Equal(t, "cd", r.Input)

	s.Submit(ctx, "pwd")
	s.Submit(ctx, "ls")
	r, _ = s.Key(KeyUp, "")
	assert.Equal(t, "ls", r.Input)
	r, _ = s.Key(KeyUp, r.Input)
	assert.Equal(t, "pwd", r.Input)
	r, _ = s.Key(KeyDown, r.Input)
	assert.Equal(t, "ls", r.Input)
	r, _ = s.Key(KeyDown, r.Input)
	assert.Equal(t, "", r.Input)

	r, _ = s.Key(KeyInterrupt, "partial")
	assert.Equal(t, "", r.Input)

	_, err = s.Key("f13", "")
	assert.Error(t, err)
}

func TestKeysEndCycle(t *testing.T) {
	for _, key := range []Key{KeyRight, KeyOther, KeyUp, KeyDown, KeyEscape} {
		t.Run(string(key), func(t *testing.T) {
			s := newSession(t)

			r, err := s.Key(KeyTab, "c")
			require.NoError(t, err)
			require.Equal(t, "cycling", r.Mode)
			require.Equal(t, "cat", r.Input)

			r, err = s.Key(key, r.Input)
			require.NoError(t, err)
			assert.Equal(t, "idle", r.Mode)
			assert.Nil(t, r.Candidates)
			assert.Equal(t, -1, r.Index)

			r, _ = s.Key(KeyTab, "cat")
			assert.Equal(t, "cat ", r.Input, "Tab completes afresh instead of advancing")
			assert.Equal(t, "idle", r.Mode)
		})
	}
}

func TestOtherKeyKeepsHint(t *testing.T) {
	s := newSession(t)
	_, err := s.Key(KeyType, "wh")
	require.NoError(t, err)

	r, err := s.Key(KeyOther, "wh")
	require.NoError(t, err)
	assert.Equal(t, "hinting", r.Mode)
	assert.Equal(t, "oami", r.Hint)
}

func TestBanner(t *testing.T) {
	s := newSession(t)
	lines := s.Banner(context.Background())
	require.Len(t, lines, 2)
	assert.Equal(t, output.KindAscii, lines[0].Kind)
	assert.Equal(t, "Type 'help' for available commands.", lines[1].Text)
}

func TestManagerLifecycle(t *testing.T) {
	m, bus := newManager(t)
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	ctx := context.Background()

	s, err := m.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, events.EventSessionCreated, (<-ch).Type)

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Count())

	assert.Equal(t, 0, m.Expire(ctx, time.Hour))
	assert.Equal(t, 1, m.Expire(ctx, -time.Second))
	assert.Equal(t, events.EventSessionEnded, (<-ch).Type)
	_, ok = m.Get(s.ID())
	assert.False(t, ok)

	require.NoError(t, m.End(ctx, "missing"))
}

func TestRemountSwapsTableForAllSessions(t *testing.T) {
	m, bus := newManager(t)
	ctx := context.Background()
	s, err := m.Create(ctx, "")
	require.NoError(t, err)
	s.Submit(ctx, "cd blog")

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	require.NoError(t, m.Remount(ctx, func(context.Context) (*mount.Table, error) {
		return testTable(t, "projects/termfolio.md"), nil
	}))
	e := <-ch
	assert.Equal(t, events.EventRemounted, e.Type)
	assert.Equal(t, 3, e.Mounts["~"])

	r := s.Submit(ctx, "ls")
	assert.Equal(t, []string{"ls", "projects", ".profile"}, contents(r.Lines))
	assert.Equal(t, route.Browse("~", "/"), r.Route, "a route the remount removed falls back to the mount root")

	err = m.Remount(ctx, func(context.Context) (*mount.Table, error) {
		return nil, errors.New("manifest unreadable")
	})
	assert.Error(t, err)
	assert.Equal(t, events.EventRemountFailed, (<-ch).Type)
	assert.True(t, m.Mounts().HomeFS().IsDirectory("/projects"), "failed remount keeps the old table")
}
