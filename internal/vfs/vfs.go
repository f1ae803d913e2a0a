// Package vfs implements the read-only virtual filesystem of one mount.
//
// A tree is built once from a manifest and never mutated afterwards, so it
// is safe for concurrent readers. Rebuilding means building a new FS and
// swapping it in.
package vfs

import (
	"slices"
	"strings"

	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/manifest"
	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/wallet"
	"go.uber.org/zap"
)

// ProfileName is the static dotfile every home mount carries. Its content
// is generated from the environment store at read time.
const ProfileName = ".profile"

// FileMeta is the optional metadata of a file.
type FileMeta struct {
	Size       *int64
	Modified   *int64
	Tags       []string
	Encrypted  bool
	Recipients []string
}

// DirMeta is the display metadata of a directory.
type DirMeta struct {
	Title       string
	Description string
	Tags        []string
}

// Entry is a node of the tree: a directory with children, or a file.
type Entry struct {
	Name string
	Dir  bool

	// Directory fields
	DirMeta  DirMeta
	children map[string]*Entry

	// File fields
	Description string
	ContentPath string // manifest path, empty for synthetic files
	Meta        FileMeta
}

// Title is the one-line description shown by ls.
func (e *Entry) Title() string {
	if e.Dir {
		return e.DirMeta.Title
	}
	return e.Description
}

// Len returns the number of children of a directory.
func (e *Entry) Len() int { return len(e.children) }

func newDir(name string, meta DirMeta) *Entry {
	return &Entry{Name: name, Dir: true, DirMeta: meta, children: make(map[string]*Entry)}
}

// Options controls Build.
type Options struct {
	// Mount labels log lines and metrics.
	Mount   string
	// Profile adds the static .profile file at the root.
	Profile bool
}

// FS is an immutable directory tree.
type FS struct {
	root      *Entry
	entries   int
	conflicts int
}

// Empty returns a tree holding only the root (and .profile when asked).
// It is the fallback when a manifest cannot be loaded.
func Empty(opts Options) *FS {
	return Build(&manifest.Manifest{}, opts)
}

// Build constructs a tree from a manifest.
//
// Files are inserted one path segment at a time, creating intermediate
// directories on demand. When a slot is already taken (a file where a
// directory is needed, or a second entry with the same path) the later
// entry is dropped with a warning; the first writer wins.
func Build(m *manifest.Manifest, opts Options) *FS {
	dirMeta := make(map[string]manifest.DirectoryEntry, len(m.Directories))
	for _, d := range m.Directories {
		dirMeta[Relative(d.Path)] = d
	}

	rootMeta := DirMeta{}
	if d, ok := dirMeta[""]; ok {
		rootMeta = toDirMeta(d, "")
	}
	fs := &FS{root: newDir("", rootMeta)}

	for _, f := range m.Files {
		fs.insertFile(f, dirMeta, opts.Mount)
	}
	for _, d := range m.Directories {
		if rel := Relative(d.Path); rel != "" {
			fs.ensureDir(rel, dirMeta, opts.Mount)
		}
	}
	if opts.Profile {
		if _, taken := fs.root.children[ProfileName]; !taken {
			fs.root.children[ProfileName] = &Entry{Name: ProfileName, Description: "User profile configuration"}
			fs.entries++
		}
	}

	metrics.SetVFSEntries(opts.Mount, fs.entries)
	return fs
}

func toDirMeta(d manifest.DirectoryEntry, name string) DirMeta {
	title := d.Title
	if title == "" {
		title = name
	}
	return DirMeta{Title: title, Description: d.Description, Tags: d.Tags}
}

func validSegments(p string) ([]string, bool) {
	segs := segments(p)
	for _, s := range segs {
		if s == "." || s == ".." {
			return nil, false
		}
	}
	return segs, len(segs) > 0
}

func (fs *FS) insertFile(f manifest.FileEntry, dirMeta map[string]manifest.DirectoryEntry, mount string) {
	segs, ok := validSegments(f.Path)
	if !ok {
		logging.Warn("manifest entry has an invalid path",
			zap.String("mount", mount), zap.String("path", f.Path))
		return
	}

	cur := fs.root
	for i, seg := range segs[:len(segs)-1] {
		next, exists := cur.children[seg]
		if !exists {
			rel := strings.Join(segs[:i+1], "/")
			meta := DirMeta{Title: seg}
			if d, ok := dirMeta[rel]; ok {
				meta = toDirMeta(d, seg)
			}
			next = newDir(seg, meta)
			cur.children[seg] = next
			fs.entries++
		}
		if !next.Dir {
			fs.conflict(mount, f.Path, strings.Join(segs[:i+1], "/"))
			return
		}
		cur = next
	}

	name := segs[len(segs)-1]
	if _, taken := cur.children[name]; taken {
		fs.conflict(mount, f.Path, strings.Join(segs, "/"))
		return
	}
	cur.children[name] = &Entry{
		Name:        name,
		Description: f.Title,
		ContentPath: strings.Join(segs, "/"),
		Meta: FileMeta{
			Size:       f.Size,
			Modified:   f.Modified,
			Tags:       f.Tags,
			Encrypted:  f.Encryption != nil,
			Recipients: f.Encryption.Recipients(),
		},
	}
	fs.entries++
}

func (fs *FS) ensureDir(rel string, dirMeta map[string]manifest.DirectoryEntry, mount string) {
	segs, ok := validSegments(rel)
	if !ok {
		return
	}
	cur := fs.root
	for i, seg := range segs {
		next, exists := cur.children[seg]
		if !exists {
			meta := DirMeta{Title: seg}
			if d, ok := dirMeta[strings.Join(segs[:i+1], "/")]; ok {
				meta = toDirMeta(d, seg)
			}
			next = newDir(seg, meta)
			cur.children[seg] = next
			fs.entries++
		}
		if !next.Dir {
			fs.conflict(mount, rel, strings.Join(segs[:i+1], "/"))
			return
		}
		cur = next
	}
}

func (fs *FS) conflict(mount, path, blockedAt string) {
	fs.conflicts++
	metrics.RecordManifestConflict(mount)
	logging.Warn("manifest conflict: entry dropped",
		zap.String("mount", mount),
		zap.String("path", path),
		zap.String("blocked_at", blockedAt))
}

// Len returns the number of entries below the root.
func (fs *FS) Len() int { return fs.entries }

// Conflicts returns how many manifest entries were dropped during Build.
func (fs *FS) Conflicts() int { return fs.conflicts }

// RootMeta returns the metadata of the root directory.
func (fs *FS) RootMeta() DirMeta { return fs.root.DirMeta }

// GetEntry walks an absolute path. It fails on a missing segment or when
// an intermediate segment is a file.
func (fs *FS) GetEntry(p string) (*Entry, bool) {
	cur := fs.root
	for _, seg := range segments(p) {
		if !cur.Dir {
			return nil, false
		}
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// ResolvePath combines current and target and returns the normalized
// result if it exists.
func (fs *FS) ResolvePath(current, target string) (string, bool) {
	p := Resolve(current, target)
	if _, ok := fs.GetEntry(p); !ok {
		return "", false
	}
	return p, true
}

// IsDirectory reports whether p exists and is a directory.
func (fs *FS) IsDirectory(p string) bool {
	e, ok := fs.GetEntry(p)
	return ok && e.Dir
}

// ContentPath returns the manifest path of a file, if it has one.
func (fs *FS) ContentPath(p string) (string, bool) {
	e, ok := fs.GetEntry(p)
	if !ok || e.Dir || e.ContentPath == "" {
		return "", false
	}
	return e.ContentPath, true
}

// DirEntry is one item of a listing.
type DirEntry struct {
	Name  string
	IsDir bool
	Title string
	Entry *Entry
}

// ListDir lists a directory, directories first, each group by name.
func (fs *FS) ListDir(p string) ([]DirEntry, bool) {
	e, ok := fs.GetEntry(p)
	if !ok || !e.Dir {
		return nil, false
	}
	items := make([]DirEntry, 0, len(e.children))
	for name, child := range e.children {
		items = append(items, DirEntry{Name: name, IsDir: child.Dir, Title: child.Title(), Entry: child})
	}
	SortEntries(items)
	return items, true
}

// SortEntries orders directories before files, then by name.
func SortEntries(items []DirEntry) {
	slices.SortFunc(items, func(a, b DirEntry) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// Permissions is the rwx display of an entry for the current visitor.
type Permissions struct {
	Dir, Read, Write, Exec bool
}

func (p Permissions) String() string {
	b := []byte("----")
	if p.Dir {
		b[0] = 'd'
	}
	if p.Read {
		b[1] = 'r'
	}
	if p.Write {
		b[2] = 'w'
	}
	if p.Exec {
		b[3] = 'x'
	}
	return string(b)
}

// PermissionsFor computes the permissions of e. Directories are r-x.
// Plain files are readable; encrypted files only by a connected wallet
// that is one of the recipients. Nothing is writable.
func PermissionsFor(e *Entry, w wallet.State) Permissions {
	if e.Dir {
		return Permissions{Dir: true, Read: true, Exec: true}
	}
	if !e.Meta.Encrypted {
		return Permissions{Read: true}
	}
	if w.Status != wallet.Connected {
		return Permissions{}
	}
	for _, r := range e.Meta.Recipients {
		if wallet.SameAddress(r, w.Address) {
			return Permissions{Read: true}
		}
	}
	return Permissions{}
}
