package command

import (
	"context"
	"time"

	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/mount"
	"github.com/termfolio/termfolio/internal/output"
	"github.com/termfolio/termfolio/internal/route"
	"github.com/termfolio/termfolio/internal/wallet"
)

// Terminal is the part of the terminal UI a command may touch.
type Terminal interface {
	ClearHistory()
}

// Context is everything a command can read. Commands never modify it; a
// navigation is returned in the Result instead.
type Context struct {
	Ctx      context.Context
	Terminal Terminal
	Wallet   wallet.State
	Mounts   *mount.Table
	Route    route.Route
	Env      env.Store
	// System holds read-only variables shown in ~/.profile.
	System   []env.Var
	Seq      *output.Sequence

	// Uptime and UserAgent are reported by id when set.
	Uptime    time.Duration
	UserAgent string
}

func (x *Context) ctx() context.Context {
	if x.Ctx == nil {
		return context.Background()
	}
	return x.Ctx
}

// Result is what executing a line produces.
type Result struct {
	Output   []output.Line
	Navigate *route.Route
}

func lines(ls ...output.Line) Result { return Result{Output: ls} }

func navigate(r route.Route) Result { return Result{Navigate: &r} }

func (x *Context) locate(target string) (mount.Location, bool) {
	return x.Mounts.Resolve(x.Route, target)
}
