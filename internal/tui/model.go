package tui

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/termfolio/termfolio/internal/output"
	"github.com/termfolio/termfolio/internal/session"
)

// maxLines bounds the scrollback, like the session output ring.
const maxLines = 1000

// KeyMap lists the keys the terminal handles itself.
type KeyMap struct {
	Submit    key.Binding
	Complete  key.Binding
	Accept    key.Binding
	Prev      key.Binding
	Next      key.Binding
	Cancel    key.Binding
	Interrupt key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit:    key.NewBinding(key.WithKeys("enter")),
		Complete:  key.NewBinding(key.WithKeys("tab")),
		Accept:    key.NewBinding(key.WithKeys("right")),
		Prev:      key.NewBinding(key.WithKeys("up")),
		Next:      key.NewBinding(key.WithKeys("down")),
		Cancel:    key.NewBinding(key.WithKeys("esc")),
		Interrupt: key.NewBinding(key.WithKeys("ctrl+c")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+d")),
	}
}

// Model is the bubbletea model of an interactive shell on one session.
type Model struct {
	ctx  context.Context
	sess *session.Session
	keys KeyMap

	width  int
	height int

	input      textinput.Model
	prompt     string
	lines      []string
	hint       string
	candidates []string
	index      int
}

// NewModel starts the model with the session banner already shown.
func NewModel(ctx context.Context, sess *session.Session) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()

	m := Model{
		ctx:    ctx,
		sess:   sess,
		keys:   DefaultKeyMap(),
		input:  ti,
		prompt: sess.Snapshot().Prompt,
		index:  -1,
	}
	m.appendLines(sess.Banner(ctx))
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-len(m.prompt)-2, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Interrupt):
		if m.input.Value() == "" {
			return m, tea.Quit
		}
		m.key(session.KeyInterrupt)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		m.key(session.KeyTab)
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		if m.hint != "" && m.input.Position() == utf8.RuneCountInString(m.input.Value()) {
			m.key(session.KeyRight)
			return m, nil
		}

	case key.Matches(msg, m.keys.Prev):
		m.key(session.KeyUp)
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.key(session.KeyDown)
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.key(session.KeyEscape)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.key(session.KeyType)
	} else {
		m.key(session.KeyOther)
	}
	return m, cmd
}

// key forwards a key press to the session and adopts the resulting input.
func (m *Model) key(k session.Key) {
	reply, err := m.sess.Key(k, m.input.Value())
	if err != nil {
		return
	}
	if reply.Input != m.input.Value() {
		m.input.SetValue(reply.Input)
		m.input.CursorEnd()
	}
	m.hint = reply.Hint
	m.candidates = reply.Candidates
	m.index = reply.Index
}

func (m *Model) submit() {
	reply := m.sess.Submit(m.ctx, m.input.Value())
	if reply.Cleared {
		m.lines = nil
	}
	m.appendLines(reply.Lines)
	m.prompt = reply.Prompt
	m.input.Reset()
	m.hint = ""
	m.candidates = nil
	m.index = -1
}

func (m *Model) appendLines(lines []output.Line) {
	for _, l := range lines {
		m.lines = append(m.lines, RenderLine(l))
	}
	if over := len(m.lines) - maxLines; over > 0 {
		m.lines = m.lines[over:]
	}
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	lines := m.lines
	if m.height > 0 {
		room := m.height - 2
		if len(m.candidates) > 0 {
			room--
		}
		if room > 0 && len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	b.WriteString(PromptStyle.Render(m.prompt + "$"))
	b.WriteByte(' ')
	b.WriteString(m.input.View())
	if m.hint != "" {
		b.WriteString(HintStyle.Render(m.hint))
	}

	if len(m.candidates) > 0 {
		b.WriteByte('\n')
		for i, c := range m.candidates {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == m.index {
				b.WriteString(SelectedStyle.Render(c))
			} else {
				b.WriteString(c)
			}
		}
	}
	return b.String()
}
