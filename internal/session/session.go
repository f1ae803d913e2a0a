// Package session holds the state of one visitor's terminal: route,
// wallet, history, output and the input line, and turns submitted lines
// into output the way a terminal UI would.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/termfolio/termfolio/internal/command"
	"github.com/termfolio/termfolio/internal/complete"
	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/history"
	"github.com/termfolio/termfolio/internal/mount"
	"github.com/termfolio/termfolio/internal/output"
	"github.com/termfolio/termfolio/internal/route"
	"github.com/termfolio/termfolio/internal/shell"
	"github.com/termfolio/termfolio/internal/wallet"
)

// View is the way the session is presented.
type View int

const (
	ViewTerminal View = iota
	ViewExplorer
)

func (v View) String() string {
	if v == ViewExplorer {
		return "explorer"
	}
	return "terminal"
}

func (v View) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// ParseView maps "terminal" or "explorer" to a View.
func ParseView(s string) (View, error) {
	switch s {
	case "terminal":
		return ViewTerminal, nil
	case "explorer":
		return ViewExplorer, nil
	}
	return ViewTerminal, fmt.Errorf("unknown view: %s", s)
}

func (v *View) UnmarshalText(b []byte) error {
	parsed, err := ParseView(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Options are the per-session settings.
type Options struct {
	Hostname   string
	MaxHistory int
	MaxOutput  int
	UserAgent  string
}

func (o Options) withDefaults() Options {
	if o.Hostname == "" {
		o.Hostname = "termfolio"
	}
	if o.MaxHistory <= 0 {
		o.MaxHistory = 100
	}
	if o.MaxOutput <= 0 {
		o.MaxOutput = 1000
	}
	return o
}

// Session is one terminal. All methods are safe for concurrent use; calls
// are serialized.
type Session struct {
	id      string
	created time.Time
	opts    Options
	mounts  *atomic.Pointer[mount.Table]
	env     env.Store

	mu       sync.Mutex
	lastSeen time.Time
	route    route.Route
	view     View
	wallet   wallet.State
	history  *history.Commands
	output   *history.Ring[output.Line]
	seq      output.Sequence
	input    complete.InputState
}

// New creates a session at the home mount root. mounts is shared with the
// manager so a remount is seen by every session.
func New(id string, mounts *atomic.Pointer[mount.Table], store env.Store, opts Options) *Session {
	opts = opts.withDefaults()
	now := time.Now()
	return &Session{
		id:       id,
		created:  now,
		opts:     opts,
		mounts:   mounts,
		env:      store,
		lastSeen: now,
		route:    route.Browse(mounts.Load().Home(), "/"),
		history:  history.NewCommands(opts.MaxHistory),
		output:   history.NewRing[output.Line](opts.MaxOutput),
	}
}

func (s *Session) ID() string { return s.id }

// Reply is what a submitted line produced. Lines starts with the echoed
// command unless the line cleared the screen, in which case Cleared is
// set. ContentURL locates the file of a Read route.
type Reply struct {
	Lines      []output.Line `json:"lines"`
	Cleared    bool          `json:"cleared,omitempty"`
	Route      route.Route   `json:"route"`
	Prompt     string        `json:"prompt"`
	View       View          `json:"view"`
	ContentURL string        `json:"content_url,omitempty"`
}

// screen lets clear empty the output ring while Submit holds the lock.
type screen struct {
	ring    *history.Ring[output.Line]
	cleared bool
}

func (sc *screen) ClearHistory() {
	sc.ring.Clear()
	sc.cleared = true
}

// Submit runs one input line: it echoes the line, expands history against
// the lines entered before it, records it, and executes it. An empty line
// is not echoed.
func (s *Session) Submit(ctx context.Context, line string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.input.Reset()

	table := s.table()
	var echo []output.Line
	if line != "" {
		echo = s.seq.Stamp([]output.Line{output.Command(s.prompt(), line)})
		s.output.Push(echo[0])
	}

	p, err := shell.Parse(line, s.lookup(ctx), s.history.Lines())
	s.history.Add(line)

	sc := &screen{ring: s.output}
	var res command.Result
	switch {
	case err != nil:
		res.Output = s.seq.Stamp([]output.Line{output.Error(err.Error())})
	case p.Empty():
	default:
		x := &command.Context{
			Ctx:       ctx,
			Terminal:  sc,
			Wallet:    s.wallet,
			Mounts:    table,
			Route:     s.route,
			Env:       s.env,
			System:    s.systemVars(),
			Seq:       &s.seq,
			Uptime:    time.Since(s.created),
			UserAgent: s.opts.UserAgent,
		}
		if len(p.Stages) == 1 {
			if out, handled := s.ui(command.Parse(p.Head()), table); handled {
				res.Output = s.seq.Stamp(out)
				break
			}
		}
		res = command.ExecutePipeline(p, x)
	}

	if res.Navigate != nil {
		s.route = *res.Navigate
	}
	for _, l := range res.Output {
		s.output.Push(l)
	}

	reply := Reply{Cleared: sc.cleared, Route: s.route, Prompt: s.prompt(), View: s.view}
	if !sc.cleared {
		reply.Lines = append(echo, res.Output...)
	} else {
		reply.Lines = res.Output
	}
	if s.route.IsFile() {
		reply.ContentURL = contentURL(table, s.route)
	}
	return reply
}

// ui carries out the verbs that change session state rather than print.
func (s *Session) ui(cmd command.Command, table *mount.Table) ([]output.Line, bool) {
	switch c := cmd.(type) {
	case command.Login:
		return s.login(c.Args), true
	case command.Logout:
		if s.wallet.Status != wallet.Connected {
			return []output.Line{output.Info("No wallet connected.")}, true
		}
		s.wallet = wallet.Guest()
		return []output.Line{output.Success("Disconnected from wallet.")}, true
	case command.Explorer:
		if c.Path != "" {
			loc, ok := table.Resolve(s.route, c.Path)
			if !ok {
				return []output.Line{output.Errorf("explorer: no such file or directory: %s", c.Path)}, true
			}
			if loc.Root {
				s.route = route.Root()
			} else {
				e, ok := loc.FS.GetEntry(loc.Path)
				if !ok {
					return []output.Line{output.Errorf("explorer: no such file or directory: %s", c.Path)}, true
				}
				if !e.Dir {
					return []output.Line{output.Errorf("explorer: not a directory: %s", c.Path)}, true
				}
				s.route = route.Browse(loc.Alias, loc.Path)
			}
		}
		s.view = ViewExplorer
		return nil, true
	}
	return nil, false
}

// login connects a wallet: login <address> [chain_id] [ens].
func (s *Session) login(args []string) []output.Line {
	if len(args) == 0 {
		return []output.Line{output.Error("login: usage: login <address> [chain_id] [ens]")}
	}
	if s.wallet.Status == wallet.Connected {
		return []output.Line{output.Info("Already connected: " + s.wallet.Address)}
	}

	var chainID uint64
	if len(args) > 1 {
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return []output.Line{output.Errorf("login: invalid chain id: %s", args[1])}
		}
		chainID = id
	}
	var ens string
	if len(args) > 2 {
		ens = args[2]
	}

	w, err := wallet.Connect(args[0], ens, chainID)
	if err != nil {
		return []output.Line{output.Errorf("Connection failed: %v", err)}
	}
	s.wallet = w

	out := []output.Line{output.Success("Connected: " + w.Address)}
	if id, ok := w.Chain(); ok {
		out = append(out, output.Info(fmt.Sprintf("Network: %s (chain_id=%d)", wallet.ChainName(id), id)))
	}
	if ens != "" {
		out = append(out, output.Success("ENS: "+ens))
	}
	return out
}

func (s *Session) touch() { s.lastSeen = time.Now() }

// table returns the current mount table and moves the route back home if
// a remount removed what it pointed at.
func (s *Session) table() *mount.Table {
	t := s.mounts.Load()
	if s.route.IsRoot() {
		return t
	}
	fs, ok := t.FS(s.route.Mount)
	if !ok {
		s.route = route.Browse(t.Home(), "/")
		return t
	}
	if _, ok := fs.GetEntry(s.route.FSPath()); !ok {
		s.route = route.Browse(s.route.Mount, "/")
	}
	return t
}

func (s *Session) prompt() string {
	return s.wallet.DisplayName() + "@" + s.opts.Hostname + ":" + s.route.DisplayPath()
}

// lookup resolves $NAME against the user's variables, then the system
// variables.
func (s *Session) lookup(ctx context.Context) shell.Lookup {
	system := s.systemVars()
	return func(name string) (string, bool) {
		if s.env != nil {
			if v, ok, err := s.env.Get(ctx, name); err == nil && ok {
				return v, true
			}
		}
		for _, v := range system {
			if v.Key == name {
				return v.Value, true
			}
		}
		return "", false
	}
}

// systemVars are the read-only variables describing the session.
func (s *Session) systemVars() []env.Var {
	return []env.Var{
		{Key: "HOME", Value: "~"},
		{Key: "HOSTNAME", Value: s.opts.Hostname},
		{Key: "PWD", Value: s.route.DisplayPath()},
		{Key: "SESSION", Value: s.id},
		{Key: "SHELL", Value: "/bin/termfolio"},
		{Key: "USER", Value: s.wallet.DisplayName()},
	}
}

func contentURL(t *mount.Table, r route.Route) string {
	m, ok := t.Mount(r.Mount)
	if !ok {
		return ""
	}
	fs, ok := t.FS(r.Mount)
	if !ok {
		return ""
	}
	cp, ok := fs.ContentPath(r.Path)
	if !ok {
		return ""
	}
	return m.ContentURL(cp)
}

// Snapshot is a read-only view of the session for clients.
type Snapshot struct {
	ID      string        `json:"id"`
	Route   route.Route   `json:"route"`
	Prompt  string        `json:"prompt"`
	View    View          `json:"view"`
	Wallet  wallet.State  `json:"wallet"`
	History []string      `json:"history"`
	Output  []output.Line `json:"output"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table()
	return Snapshot{
		ID:      s.id,
		Route:   s.route,
		Prompt:  s.prompt(),
		View:    s.view,
		Wallet:  s.wallet,
		History: s.history.Lines(),
		Output:  s.output.Slice(),
	}
}

// Banner is the greeting shown when a terminal opens.
func (s *Session) Banner(ctx context.Context) []output.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	x := &command.Context{Ctx: ctx, Mounts: s.table(), Route: s.route, Seq: &s.seq}
	res := command.Execute(command.Whoami{}, x)
	lines := s.seq.Stamp(append(res.Output, output.Info("Type 'help' for available commands.")))
	for _, l := range lines {
		s.output.Push(l)
	}
	return lines
}

// SetView switches between the terminal and the explorer.
func (s *Session) SetView(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// SetWallet replaces the wallet state, for clients that connect a wallet
// themselves.
func (s *Session) SetWallet(w wallet.State) {
	s.mu.Lock()
	s.wallet = w
	s.mu.Unlock()
}

// LastSeen is the time of the last Submit or Key.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
