package tui

import (
	"fmt"

	"github.com/termfolio/termfolio/internal/output"
)

// RenderLine styles one output line for a terminal. Styles degrade to
// plain text when the output is not a TTY.
func RenderLine(l output.Line) string {
	switch l.Kind {
	case output.KindEmpty:
		return ""
	case output.KindCommand:
		return PromptStyle.Render(l.Prompt+"$") + " " + l.Input
	case output.KindError:
		return ErrorStyle.Render(l.Text)
	case output.KindSuccess:
		return SuccessStyle.Render(l.Text)
	case output.KindInfo:
		return InfoStyle.Render(l.Text)
	case output.KindAscii:
		return AsciiStyle.Render(l.Text)
	case output.KindListEntry:
		return renderEntry(l.Entry)
	default:
		return l.Text
	}
}

func renderEntry(e *output.ListEntry) string {
	if e == nil {
		return ""
	}
	name := e.Name
	switch {
	case e.Encrypted:
		name = EncryptedStyle.Render(name)
	case e.Style == output.StyleDirectory:
		name = DirectoryStyle.Render(name + "/")
	case e.Style == output.StyleHidden:
		name = HiddenStyle.Render(name)
	}

	if e.Long != nil {
		return fmt.Sprintf("%s %6s %s %s",
			e.Long.Permissions,
			output.FormatSize(e.Long.Size),
			output.FormatDateShort(e.Long.Modified),
			name)
	}
	if e.Description != "" {
		return name + "  " + DescStyle.Render(e.Description)
	}
	return name
}
