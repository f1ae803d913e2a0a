// Package route models where the visitor is: the mount selection screen,
// a directory inside a mount, or a file being read.
package route

import (
	"strings"

	"github.com/termfolio/termfolio/internal/vfs"
)

// Kind distinguishes the three route shapes.
type Kind int

const (
	KindRoot Kind = iota
	KindBrowse
	KindRead
)

func (k Kind) String() string {
	switch k {
	case KindBrowse:
		return "browse"
	case KindRead:
		return "read"
	default:
		return "root"
	}
}

// Route is a navigation target. Path is an absolute path inside Mount and
// is always "/" for the root route.
type Route struct {
	Kind  Kind   `json:"kind"`
	Mount string `json:"mount,omitempty"`
	Path  string `json:"path"`
}

// Root is the mount selection screen.
func Root() Route { return Route{Kind: KindRoot, Path: vfs.Root} }

// Browse is a directory inside a mount.
func Browse(mount, path string) Route {
	return Route{Kind: KindBrowse, Mount: mount, Path: vfs.Normalize(path)}
}

// Read is a file inside a mount.
func Read(mount, path string) Route {
	return Route{Kind: KindRead, Mount: mount, Path: vfs.Normalize(path)}
}

// IsRoot reports whether r is the mount selection screen.
func (r Route) IsRoot() bool { return r.Kind == KindRoot }

// IsFile reports whether r points at a file.
func (r Route) IsFile() bool { return r.Kind == KindRead }

// FSPath is the path inside the mount; "/" for the root route.
func (r Route) FSPath() string {
	if r.Kind == KindRoot {
		return vfs.Root
	}
	return r.Path
}

// Dir is the directory commands resolve relative paths against. For a
// file route it is the file's parent.
func (r Route) Dir() string {
	if r.Kind == KindRead {
		return vfs.Parent(r.Path)
	}
	return r.FSPath()
}

// Parent goes one level up. The parent of a mount root is Root.
func (r Route) Parent() Route {
	if r.Kind == KindRoot || r.Path == vfs.Root {
		return Root()
	}
	return Browse(r.Mount, vfs.Parent(r.Path))
}

// DisplayPath is the prompt form: "/", "~", "~/blog", "work/docs".
func (r Route) DisplayPath() string {
	if r.Kind == KindRoot {
		return "/"
	}
	if r.Path == vfs.Root {
		return r.Mount
	}
	return r.Mount + r.Path
}

// ToPath renders the URL path: "/", "/~/", "/~/blog/", "/~/blog/post.md".
func (r Route) ToPath() string {
	switch r.Kind {
	case KindBrowse:
		if r.Path == vfs.Root {
			return "/" + r.Mount + "/"
		}
		return "/" + r.Mount + r.Path + "/"
	case KindRead:
		return "/" + r.Mount + r.Path
	}
	return "/"
}

// FromPath parses a URL path. Unknown mounts fall back to Root. Without a
// trailing slash a last segment containing a dot is taken to be a file.
func FromPath(p string, known func(alias string) bool) Route {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return Root()
	}

	alias, rest, _ := strings.Cut(p, "/")
	if !known(alias) {
		return Root()
	}

	dir := strings.HasSuffix(rest, "/")
	rest = strings.TrimRight(rest, "/")
	switch {
	case rest == "":
		return Browse(alias, vfs.Root)
	case dir:
		return Browse(alias, rest)
	case strings.Contains(vfs.Base(rest), "."):
		return Read(alias, rest)
	}
	return Browse(alias, rest)
}
