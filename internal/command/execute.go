package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/output"
	"github.com/termfolio/termfolio/internal/route"
	"github.com/termfolio/termfolio/internal/shell"
	"github.com/termfolio/termfolio/internal/vfs"
	"github.com/termfolio/termfolio/internal/wallet"
)

// ExecutePipeline runs the head command and pipes its output through the
// filter stages. Navigation is dropped when there are filters. The result
// is stamped with fresh line ids when x.Seq is set.
func ExecutePipeline(p shell.Pipeline, x *Context) Result {
	if p.Empty() {
		return Result{}
	}
	res := Execute(Parse(p.Head()), x)

	if filters := p.Filters(); len(filters) > 0 {
		res.Navigate = nil
		for _, st := range filters {
			res.Output = ApplyFilter(st.Name, st.Args, res.Output)
		}
	}
	if x.Seq != nil {
		res.Output = x.Seq.Stamp(res.Output)
	}
	return res
}

// Execute runs a single command.
func Execute(cmd Command, x *Context) Result {
	metrics.RecordCommand(cmd.Verb())

	switch c := cmd.(type) {
	case Ls:
		return execLs(c, x)
	case Cd:
		return execCd(c, x)
	case Pwd:
		return lines(output.Text(x.Route.DisplayPath()))
	case Cat:
		return execCat(c, x)
	case Whoami:
		return lines(output.Ascii(banner))
	case Id:
		return execID(x)
	case Help:
		return execHelp()
	case Clear:
		if x.Terminal != nil {
			x.Terminal.ClearHistory()
		}
		return Result{}
	case Echo:
		return lines(output.Text(c.Text))
	case Export:
		return execExport(c, x)
	case Unset:
		return execUnset(c, x)
	case Login, Logout, Explorer:
		return Result{}
	case Unknown:
		// A missing operand is reported through the same line as an
		// unknown command, with the message in place of the name.
		name := c.Name
		if c.Message != "" {
			name = c.Message
		}
		return lines(output.Errorf("Command not found: %s. Type 'help' for available commands.", name))
	}
	return lines(output.Errorf("Command not found: %s. Type 'help' for available commands.", cmd.Verb()))
}

func execLs(c Ls, x *Context) Result {
	target := c.Path
	if target == "" {
		target = "."
	}
	loc, ok := x.locate(target)
	if !ok {
		return lines(output.Errorf("ls: cannot access '%s': No such file or directory", target))
	}

	if loc.Root {
		items := x.Mounts.Entries()
		out := make([]output.Line, 0, len(items))
		for _, it := range items {
			le := output.ListEntry{Name: it.Name, Description: it.Title, Style: output.StyleDirectory}
			if c.Long {
				le.Long = &output.LongFormat{Permissions: vfs.Permissions{Dir: true, Read: true, Exec: true}.String()}
			}
			out = append(out, output.Entry(le))
		}
		return Result{Output: out}
	}

	e, ok := loc.FS.GetEntry(loc.Path)
	if !ok {
		return lines(output.Errorf("ls: cannot access '%s': No such file or directory", target))
	}
	if !e.Dir {
		return lines(output.Errorf("ls: cannot access '%s': Not a directory", target))
	}

	items, _ := loc.FS.ListDir(loc.Path)
	out := make([]output.Line, 0, len(items))
	for _, it := range items {
		out = append(out, output.Entry(listEntry(it, c.Long, x.Wallet)))
	}
	return Result{Output: out}
}

func listEntry(it vfs.DirEntry, long bool, w wallet.State) output.ListEntry {
	le := output.ListEntry{Name: it.Name, Description: it.Title, Style: output.StyleFile}
	switch {
	case it.IsDir:
		le.Style = output.StyleDirectory
	case strings.HasPrefix(it.Name, "."):
		le.Style = output.StyleHidden
	}
	if it.Entry != nil {
		le.Encrypted = it.Entry.Meta.Encrypted
		if long {
			le.Long = &output.LongFormat{
				Permissions: vfs.PermissionsFor(it.Entry, w).String(),
				Size:        it.Entry.Meta.Size,
				Modified:    it.Entry.Meta.Modified,
			}
		}
	}
	return le
}

func execCd(c Cd, x *Context) Result {
	loc, ok := x.locate(c.Path)
	if !ok {
		return lines(output.Errorf("cd: no such file or directory: %s", c.Path))
	}
	if loc.Root {
		return navigate(route.Root())
	}
	e, ok := loc.FS.GetEntry(loc.Path)
	if !ok {
		return lines(output.Errorf("cd: no such file or directory: %s", c.Path))
	}
	if !e.Dir {
		return lines(output.Errorf("cd: not a directory: %s", c.Path))
	}
	return navigate(route.Browse(loc.Alias, loc.Path))
}

func execCat(c Cat, x *Context) Result {
	loc, ok := x.locate(c.Path)
	if !ok || loc.Root {
		return lines(output.Errorf("cat: %s: No such file or directory", c.Path))
	}
	e, ok := loc.FS.GetEntry(loc.Path)
	if !ok {
		return lines(output.Errorf("cat: %s: No such file or directory", c.Path))
	}
	if e.Dir {
		return lines(output.Errorf("cat: %s: Is a directory", c.Path))
	}

	if loc.Alias == x.Mounts.Home() && loc.Path == "/"+vfs.ProfileName {
		return profile(x)
	}
	if e.ContentPath != "" {
		return navigate(route.Read(loc.Alias, loc.Path))
	}
	return lines(output.Errorf("cat: %s: No content available", c.Path))
}

func profile(x *Context) Result {
	var user []env.Var
	if x.Env != nil {
		vars, err := x.Env.List(x.ctx())
		if err != nil {
			logging.Warn("list env for profile", zap.Error(err))
			return lines(output.Errorf("cat: %s: %v", "~/"+vfs.ProfileName, err))
		}
		user = vars
	}

	out := []output.Line{output.Empty()}
	for _, l := range env.GenerateProfile(x.System, user) {
		out = append(out, output.Text(l))
	}
	return Result{Output: append(out, output.Empty())}
}

func execID(x *Context) Result {
	w := x.Wallet
	out := []output.Line{output.Empty()}

	switch w.Status {
	case wallet.Connected:
		uid := "uid=" + w.Address
		if w.ENS != "" {
			uid += " (" + w.ENS + ")"
		}
		out = append(out, output.Text(uid), output.Text("gid=visitor"), output.Text("status=connected"))
	case wallet.Connecting:
		out = append(out, output.Text("uid=..."), output.Text("status=connecting"))
	default:
		out = append(out, output.Text("uid=guest"), output.Text("gid=anonymous"), output.Text("status=disconnected"))
	}

	if id, ok := w.Chain(); ok {
		out = append(out,
			output.Text("network="+wallet.ChainName(id)),
			output.Text(fmt.Sprintf("chain_id=%d", id)))
	} else {
		out = append(out, output.Text("network=none"))
	}

	if x.Uptime > 0 {
		out = append(out, output.Text("uptime="+formatUptime(x.Uptime)))
	}
	if x.UserAgent != "" {
		out = append(out, output.Text("user_agent="+x.UserAgent))
	}
	return Result{Output: append(out, output.Empty())}
}

func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

func execHelp() Result {
	out := make([]output.Line, 0, len(helpLines)+2)
	out = append(out, output.Empty())
	for _, l := range helpLines {
		out = append(out, output.Text(l))
	}
	return Result{Output: append(out, output.Empty())}
}

func execExport(c Export, x *Context) Result {
	if x.Env == nil {
		return lines(output.Errorf("export: %v", env.ErrUnavailable))
	}
	ctx := x.ctx()

	if strings.TrimSpace(c.Arg) == "" {
		vars, err := x.Env.List(ctx)
		if err != nil {
			return lines(output.Errorf("export: %v", err))
		}
		out := []output.Line{output.Empty()}
		for _, l := range env.FormatExport(vars) {
			out = append(out, output.Text(l))
		}
		return Result{Output: append(out, output.Empty())}
	}

	key, value, ok := env.ParseAssignment(c.Arg)
	if !ok {
		v, found, err := x.Env.Get(ctx, key)
		if err != nil {
			return lines(output.Errorf("export: %v", err))
		}
		if !found {
			return Result{}
		}
		return lines(output.Text(key + "=" + v))
	}

	if err := x.Env.Set(ctx, key, value); err != nil {
		if !errors.Is(err, env.ErrInvalidName) {
			logging.Warn("export failed", zap.String("key", key), zap.Error(err))
		}
		return lines(output.Errorf("export: %v", err))
	}
	return Result{}
}

func execUnset(c Unset, x *Context) Result {
	if x.Env == nil {
		return lines(output.Errorf("unset: %v", env.ErrUnavailable))
	}
	ctx := x.ctx()
	_, found, err := x.Env.Get(ctx, c.Key)
	if err != nil {
		return lines(output.Errorf("unset: %v", err))
	}
	if !found {
		return Result{}
	}
	if err := x.Env.Unset(ctx, c.Key); err != nil {
		return lines(output.Errorf("unset: %v", err))
	}
	return Result{}
}
