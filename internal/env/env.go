// Package env holds shell environment variables: a per-session store of
// user variables and the formatting used by export and ~/.profile.
package env

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/termfolio/termfolio/internal/shell"
)

var (
	// ErrInvalidName is returned for names that are not shell identifiers.
	ErrInvalidName = errors.New("invalid variable name (use letters, numbers, underscores)")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("environment store unavailable")
)

// Var is one variable.
type Var struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store persists the user variables of one session.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Unset removes key; removing a missing key is not an error.
	Unset(ctx context.Context, key string) error
	// List returns all variables sorted by key.
	List(ctx context.Context) ([]Var, error)
}

// Defaults are set on new sessions unless already present.
var Defaults = []Var{
	{Key: "THEME", Value: "dark"},
	{Key: "LANG", Value: "en"},
	{Key: "EDITOR", Value: "vim"},
}

// InitDefaults stores the default variables that are not set yet.
func InitDefaults(ctx context.Context, s Store) error {
	for _, v := range Defaults {
		_, ok, err := s.Get(ctx, v.Key)
		if err != nil {
			return err
		}
		if !ok {
			if err := s.Set(ctx, v.Key, v.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks a variable name.
func Validate(key string) error {
	if !shell.IsValidName(key) {
		return ErrInvalidName
	}
	return nil
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{vars: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if err := Validate(key); err != nil {
		return err
	}
	m.mu.Lock()
	m.vars[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Unset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.vars, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context) ([]Var, error) {
	m.mu.RLock()
	out := make([]Var, 0, len(m.vars))
	for k, v := range m.vars {
		out = append(out, Var{Key: k, Value: v})
	}
	m.mu.RUnlock()
	SortVars(out)
	return out, nil
}

// Sessions hands out the Store of each session. The Postgres store and
// MemorySessions implement it.
type Sessions interface {
	Session(id string) Store
	DeleteSession(ctx context.Context, id string) error
}

// MemorySessions keeps one Memory per session id.
type MemorySessions struct {
	mu     sync.Mutex
	stores map[string]*Memory
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{stores: make(map[string]*Memory)}
}

func (m *MemorySessions) Session(id string) Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[id]
	if !ok {
		s = NewMemory()
		m.stores[id] = s
	}
	return s
}

func (m *MemorySessions) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.stores, id)
	m.mu.Unlock()
	return nil
}

// SortVars orders variables by key.
func SortVars(vars []Var) {
	slices.SortFunc(vars, func(a, b Var) int { return strings.Compare(a.Key, b.Key) })
}

const (
	maxDisplayLen  = 60
	previewDisplay = 57
)

// preview shortens values longer than maxDisplayLen characters. It cuts
// on a rune boundary.
func preview(value string) string {
	if utf8.RuneCountInString(value) <= maxDisplayLen {
		return value
	}
	runes := 0
	for i := range value {
		if runes == previewDisplay {
			return value[:i] + "..."
		}
		runes++
	}
	return value
}

// GenerateProfile renders ~/.profile from the session's read-only system
// variables and the user's exported variables.
func GenerateProfile(system, user []Var) []string {
	lines := []string{"# ~/.profile", ""}
	if len(system) == 0 && len(user) == 0 {
		return append(lines,
			"# No variables set",
			"# Use 'export KEY=value' to set variables")
	}

	if len(system) > 0 {
		lines = append(lines, "# System variables (read-only)")
		for _, v := range system {
			value := preview(v.Value)
			lines = append(lines, fmt.Sprintf("%s=\"%s\"", v.Key, value))
		}
		lines = append(lines, "")
	}
	if len(user) > 0 {
		lines = append(lines, "# User variables")
		for _, v := range user {
			lines = append(lines, fmt.Sprintf("export %s=\"%s\"", v.Key, v.Value))
		}
	}
	return lines
}

// FormatExport renders the variable listing of a bare export.
func FormatExport(user []Var) []string {
	if len(user) == 0 {
		return []string{"# No user variables set"}
	}
	lines := make([]string, 0, len(user))
	for _, v := range user {
		lines = append(lines, fmt.Sprintf("declare -x %s=\"%s\"", v.Key, v.Value))
	}
	return lines
}

// ParseAssignment splits "KEY=VALUE". The key is trimmed; the value is
// trimmed and one pair of surrounding quotes is removed.
func ParseAssignment(arg string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(arg, "=")
	if !ok {
		return strings.TrimSpace(arg), "", false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}
