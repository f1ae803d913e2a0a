// Package mount describes where each mount's manifest lives and holds the
// table of built filesystems keyed by alias.
package mount

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/termfolio/termfolio/internal/manifest"
)

// Kind is the storage backend of a mount.
type Kind string

const (
	KindLocal  Kind = "local"
	KindS3     Kind = "s3"
	KindHTTP   Kind = "http"
	KindGitHub Kind = "github"
	KindIPFS   Kind = "ipfs"
	KindENS    Kind = "ens"
)

const defaultIPFSGateway = "https://ipfs.io"

// Mount is one entry of mounts.yaml.
type Mount struct {
	Alias       string             `yaml:"alias"`
	Kind        Kind               `yaml:"kind"`
	Description string             `yaml:"description,omitempty"`
	Path        string             `yaml:"path,omitempty"`    // local manifest file
	URL         string             `yaml:"url,omitempty"`     // http/github base URL
	CID         string             `yaml:"cid,omitempty"`     // ipfs
	Gateway     string             `yaml:"gateway,omitempty"` // ipfs
	Name        string             `yaml:"name,omitempty"`    // ens
	S3          *manifest.S3Config `yaml:"s3,omitempty"`
}

// File is the top-level shape of mounts.yaml.
type File struct {
	Mounts []Mount `yaml:"mounts"`
}

// BaseURL is where content of remote mounts is fetched from. Local and S3
// mounts have none.
func (m Mount) BaseURL() string {
	switch m.Kind {
	case KindHTTP, KindGitHub:
		return strings.TrimRight(m.URL, "/")
	case KindIPFS:
		gw := m.Gateway
		if gw == "" {
			gw = defaultIPFSGateway
		}
		return strings.TrimRight(gw, "/") + "/ipfs/" + m.CID
	case KindENS:
		return "https://" + m.Name + ".limo"
	}
	return ""
}

// ContentURL locates a file's content for the reader. Remote mounts give a
// URL; local mounts give a path next to the manifest.
func (m Mount) ContentURL(contentPath string) string {
	if base := m.BaseURL(); base != "" {
		return base + "/" + contentPath
	}
	switch m.Kind {
	case KindLocal:
		return filepath.Join(filepath.Dir(m.Path), filepath.FromSlash(contentPath))
	case KindS3:
		if m.S3 != nil {
			return "s3://" + m.S3.Bucket + "/" + path.Join(path.Dir(m.S3.Key), contentPath)
		}
	}
	return contentPath
}

// Validate checks that the mount has what its kind needs.
func (m Mount) Validate() error {
	if m.Alias == "" {
		return fmt.Errorf("mount without alias")
	}
	if strings.ContainsAny(m.Alias, "/ \t") {
		return fmt.Errorf("mount %q: alias must not contain '/' or whitespace", m.Alias)
	}
	var missing string
	switch m.Kind {
	case KindLocal:
		if m.Path == "" {
			missing = "path"
		}
	case KindHTTP, KindGitHub:
		if m.URL == "" {
			missing = "url"
		}
	case KindIPFS:
		if m.CID == "" {
			missing = "cid"
		}
	case KindENS:
		if m.Name == "" {
			missing = "name"
		}
	case KindS3:
	default:
		return fmt.Errorf("mount %q: unknown kind %q", m.Alias, m.Kind)
	}
	if missing != "" {
		return fmt.Errorf("mount %q: %s mount needs %s", m.Alias, m.Kind, missing)
	}
	return nil
}

// Source builds the manifest source of a mount. S3 fields left empty are
// filled from defaults.
func (m Mount) Source(ctx context.Context, defaults manifest.S3Config) (manifest.Source, error) {
	switch m.Kind {
	case KindLocal:
		return manifest.FileSource{Path: m.Path}, nil
	case KindS3:
		cfg := defaults
		if cfg.Key == "" {
			cfg.Key = "manifest.json"
		}
		if m.S3 != nil {
			cfg = mergeS3(cfg, *m.S3)
		}
		return manifest.NewS3Source(ctx, cfg)
	case KindHTTP, KindGitHub, KindIPFS, KindENS:
		return manifest.NewHTTPSource(m.BaseURL() + "/manifest.json"), nil
	}
	return nil, fmt.Errorf("mount %q: unknown kind %q", m.Alias, m.Kind)
}

func mergeS3(base, over manifest.S3Config) manifest.S3Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.Endpoint, over.Endpoint)
	set(&base.Bucket, over.Bucket)
	set(&base.Key, over.Key)
	set(&base.AccessKey, over.AccessKey)
	set(&base.SecretKey, over.SecretKey)
	set(&base.Region, over.Region)
	return base
}

// Parse decodes mounts.yaml. Relative local paths are resolved against
// baseDir.
func Parse(data []byte, baseDir string) ([]Mount, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse mounts: %w", err)
	}
	if len(f.Mounts) == 0 {
		return nil, fmt.Errorf("parse mounts: no mounts defined")
	}

	seen := make(map[string]bool, len(f.Mounts))
	for i := range f.Mounts {
		m := &f.Mounts[i]
		if m.Kind == "" {
			m.Kind = KindLocal
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if seen[m.Alias] {
			return nil, fmt.Errorf("mount %q defined twice", m.Alias)
		}
		seen[m.Alias] = true
		if m.Kind == KindLocal && !filepath.IsAbs(m.Path) {
			m.Path = filepath.Join(baseDir, m.Path)
		}
	}
	return f.Mounts, nil
}

// LoadFile reads and parses a mounts.yaml file.
func LoadFile(name string) ([]Mount, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read mounts: %w", err)
	}
	return Parse(data, filepath.Dir(name))
}

// LocalPaths lists the manifest files of local mounts, for the watcher.
func LocalPaths(mounts []Mount) []string {
	var out []string
	for _, m := range mounts {
		if m.Kind == KindLocal {
			out = append(out, m.Path)
		}
	}
	return out
}
