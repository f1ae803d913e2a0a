package mount

import (
	"strings"

	"github.com/termfolio/termfolio/internal/route"
	"github.com/termfolio/termfolio/internal/vfs"
)

// Location is a resolved operand: either the mount selection screen or a
// path inside one mount. The path is not checked for existence.
type Location struct {
	Root  bool
	Alias string
	FS    *vfs.FS
	Path  string
}

// Resolve interprets target relative to the route cur, in the combined
// namespace where every mount is a top-level directory named by its alias.
//
// "~" names the home mount. "/" and climbing above a mount root reach the
// mount selection screen. An absolute path whose first segment is not an
// alias stays inside the current mount. ok is false when the result names
// no mount.
func (t *Table) Resolve(cur route.Route, target string) (Location, bool) {
	var global string
	switch {
	case target == "~":
		global = "/" + t.home
	case strings.HasPrefix(target, "~/"):
		global = "/" + t.home + target[1:]
	case strings.HasPrefix(target, "/"):
		first, _, _ := strings.Cut(strings.TrimLeft(target, "/"), "/")
		if first == "" || t.Has(first) || cur.IsRoot() {
			global = target
		} else {
			global = "/" + cur.Mount + target
		}
	default:
		global = globalDir(cur) + "/" + target
	}

	global = vfs.Normalize(global)
	if global == vfs.Root {
		return Location{Root: true, Path: vfs.Root}, true
	}
	alias, rest, _ := strings.Cut(global[1:], "/")
	fs, ok := t.fs[alias]
	if !ok {
		return Location{}, false
	}
	return Location{Alias: alias, FS: fs, Path: vfs.Normalize(rest)}, true
}

func globalDir(cur route.Route) string {
	if cur.IsRoot() {
		return ""
	}
	if dir := cur.Dir(); dir != vfs.Root {
		return "/" + cur.Mount + dir
	}
	return "/" + cur.Mount
}

// List lists a resolved directory. The mount selection screen lists the
// mounts themselves.
func (t *Table) List(loc Location) ([]vfs.DirEntry, bool) {
	if loc.Root {
		return t.Entries(), true
	}
	return loc.FS.ListDir(loc.Path)
}
