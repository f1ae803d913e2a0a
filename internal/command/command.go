// Package command turns parsed pipelines into output lines and navigation.
//
// Parse maps a pipeline head onto the closed set of Command types, Execute
// runs one command and ExecutePipeline runs the head and feeds its output
// through the filter stages. Execution never fails: every problem the user
// can cause becomes an Error line.
package command

import (
	"strings"

	"github.com/termfolio/termfolio/internal/shell"
)

// Command is one parsed verb with its operands.
type Command interface {
	// Verb is the canonical verb name, used for metrics.
	Verb() string
	isCommand()
}

// Ls lists a directory. An empty Path means the current directory.
type Ls struct {
	Path string
	Long bool
}

type Cd struct{ Path string }

type Pwd struct{}

type Cat struct{ Path string }

type Whoami struct{}

type Id struct{}

type Help struct{}

type Clear struct{}

type Echo struct{ Text string }

// Export lists variables when Arg is empty, otherwise sets KEY=VALUE or
// shows KEY.
type Export struct{ Arg string }

type Unset struct{ Key string }

// Login, Logout and Explorer change session state and are carried out by
// the session, not by Execute.
type Login struct{ Args []string }

type Logout struct{}

type Explorer struct{ Path string }

// Unknown is anything else. A known verb missing its operand is also
// Unknown, with Message explaining what is missing.
type Unknown struct {
	Name    string
	Message string
}

func (Ls) Verb() string       { return "ls" }
func (Cd) Verb() string       { return "cd" }
func (Pwd) Verb() string      { return "pwd" }
func (Cat) Verb() string      { return "cat" }
func (Whoami) Verb() string   { return "whoami" }
func (Id) Verb() string       { return "id" }
func (Help) Verb() string     { return "help" }
func (Clear) Verb() string    { return "clear" }
func (Echo) Verb() string     { return "echo" }
func (Export) Verb() string   { return "export" }
func (Unset) Verb() string    { return "unset" }
func (Login) Verb() string    { return "login" }
func (Logout) Verb() string   { return "logout" }
func (Explorer) Verb() string { return "explorer" }
func (Unknown) Verb() string  { return "unknown" }

func (Ls) isCommand()       {}
func (Cd) isCommand()       {}
func (Pwd) isCommand()      {}
func (Cat) isCommand()      {}
func (Whoami) isCommand()   {}
func (Id) isCommand()       {}
func (Help) isCommand()     {}
func (Clear) isCommand()    {}
func (Echo) isCommand()     {}
func (Export) isCommand()   {}
func (Unset) isCommand()    {}
func (Login) isCommand()    {}
func (Logout) isCommand()   {}
func (Explorer) isCommand() {}
func (Unknown) isCommand()  {}

// names is what command-name completion offers: every verb and alias plus
// the pipe filters.
var names = []string{
	"cat", "cd", "clear", "cls", "echo", "explorer", "export", "grep", "head", "help",
	"id", "login", "logout", "ls", "pwd", "tail", "unset", "wc", "whoami",
}

// Names returns the completable command names, sorted.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Parse maps a stage onto a Command. Verb names are case-sensitive.
func Parse(st shell.Stage) Command {
	args := st.Args
	switch st.Name {
	case "ls":
		var c Ls
		havePath := false
		for _, a := range args {
			if a == "-l" {
				c.Long = true
			} else if !havePath {
				c.Path, havePath = a, true
			}
		}
		return c
	case "cd":
		if len(args) == 0 {
			return Cd{Path: "~"}
		}
		return Cd{Path: args[0]}
	case "pwd":
		return Pwd{}
	case "cat":
		if len(args) == 0 {
			return Unknown{Name: "cat", Message: "cat: missing file operand"}
		}
		return Cat{Path: args[0]}
	case "whoami":
		return Whoami{}
	case "id":
		return Id{}
	case "help", "?":
		return Help{}
	case "clear", "cls":
		return Clear{}
	case "echo":
		return Echo{Text: strings.Join(args, " ")}
	case "export":
		return Export{Arg: strings.Join(args, " ")}
	case "unset":
		if len(args) == 0 {
			return Unknown{Name: "unset", Message: "unset: missing variable name"}
		}
		return Unset{Key: args[0]}
	case "login":
		return Login{Args: args}
	case "logout":
		return Logout{}
	case "explorer":
		if len(args) == 0 {
			return Explorer{}
		}
		return Explorer{Path: args[0]}
	}
	return Unknown{Name: st.Name}
}

