package mount

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/manifest"
	"github.com/termfolio/termfolio/internal/vfs"
)

// Table maps mount aliases to their filesystems. A Table is immutable;
// remounting builds a new one.
type Table struct {
	mounts []Mount
	fs     map[string]*vfs.FS
	home   string
}

// NewTable assembles a table from already built filesystems. home must be
// one of the aliases.
func NewTable(mounts []Mount, fs map[string]*vfs.FS, home string) (*Table, error) {
	if _, ok := fs[home]; !ok {
		return nil, fmt.Errorf("home mount %q is not defined", home)
	}
	for _, m := range mounts {
		if _, ok := fs[m.Alias]; !ok {
			return nil, fmt.Errorf("mount %q has no filesystem", m.Alias)
		}
	}
	return &Table{mounts: mounts, fs: fs, home: home}, nil
}

// Single is a table with one home mount, for tests and the exec command.
func Single(alias string, fs *vfs.FS) *Table {
	return &Table{
		mounts: []Mount{{Alias: alias, Kind: KindLocal}},
		fs:     map[string]*vfs.FS{alias: fs},
		home:   alias,
	}
}

// BuildOptions controls Build.
type BuildOptions struct {
	Home        string
	S3Defaults  manifest.S3Config
	// Concurrency bounds parallel manifest fetches; 0 means unlimited.
	Concurrency int
}

// Build loads every mount's manifest concurrently and builds its
// filesystem. A mount whose manifest cannot be loaded is kept with an
// empty filesystem so that the shell stays usable; the error is logged.
// If opts.Home is not an alias, the first mount becomes home.
func Build(ctx context.Context, mounts []Mount, opts BuildOptions) (*Table, error) {
	if len(mounts) == 0 {
		return nil, fmt.Errorf("no mounts to build")
	}
	home := opts.Home
	if !containsAlias(mounts, home) {
		logging.Warn("home alias not found, using first mount",
			zap.String("home", home), zap.String("using", mounts[0].Alias))
		home = mounts[0].Alias
	}

	names := make([]string, 0, len(mounts))
	sources := make([]manifest.Source, 0, len(mounts))
	for _, m := range mounts {
		src, err := m.Source(ctx, opts.S3Defaults)
		if err != nil {
			return nil, err
		}
		names = append(names, m.Alias)
		sources = append(sources, src)
	}

	fs := make(map[string]*vfs.FS, len(mounts))
	for _, r := range manifest.LoadAll(ctx, names, sources, opts.Concurrency) {
		vopts := vfs.Options{Mount: r.Name, Profile: r.Name == home}
		if r.Err != nil {
			logging.Error("mount unavailable, serving empty filesystem",
				zap.String("mount", r.Name), zap.Error(r.Err))
			fs[r.Name] = vfs.Empty(vopts)
			continue
		}
		fs[r.Name] = vfs.Build(r.Manifest, vopts)
		dirs, files, encrypted := fs[r.Name].Stats()
		logging.Info("mount ready",
			zap.String("mount", r.Name),
			zap.Int("dirs", dirs),
			zap.Int("files", files),
			zap.Int("encrypted", encrypted),
			zap.Int("conflicts", fs[r.Name].Conflicts()))
	}
	return NewTable(mounts, fs, home)
}

func containsAlias(mounts []Mount, alias string) bool {
	for _, m := range mounts {
		if m.Alias == alias {
			return true
		}
	}
	return false
}

// Home returns the alias of the home mount.
func (t *Table) Home() string { return t.home }

// HomeFS returns the home mount's filesystem.
func (t *Table) HomeFS() *vfs.FS { return t.fs[t.home] }

// Aliases lists the mount aliases in declaration order.
func (t *Table) Aliases() []string {
	out := make([]string, len(t.mounts))
	for i, m := range t.mounts {
		out[i] = m.Alias
	}
	return out
}

// Has reports whether alias names a mount.
func (t *Table) Has(alias string) bool {
	_, ok := t.fs[alias]
	return ok
}

// FS returns the filesystem of a mount.
func (t *Table) FS(alias string) (*vfs.FS, bool) {
	fs, ok := t.fs[alias]
	return fs, ok
}

// Mount returns the descriptor of a mount.
func (t *Table) Mount(alias string) (Mount, bool) {
	for _, m := range t.mounts {
		if m.Alias == alias {
			return m, true
		}
	}
	return Mount{}, false
}

// Entries lists the mounts as directory entries for the root listing,
// titled by their description.
func (t *Table) Entries() []vfs.DirEntry {
	out := make([]vfs.DirEntry, 0, len(t.mounts))
	for _, m := range t.mounts {
		title := m.Description
		if title == "" {
			title = t.fs[m.Alias].RootMeta().Title
		}
		out = append(out, vfs.DirEntry{Name: m.Alias, IsDir: true, Title: title})
	}
	vfs.SortEntries(out)
	return out
}
