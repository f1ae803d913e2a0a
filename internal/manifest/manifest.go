// Package manifest decodes content manifests and fetches them from the
// configured sources (local files, S3, HTTP).
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by sources when the manifest object is missing.
var ErrNotFound = errors.New("manifest not found")

// Manifest is the flat description of one mount's content.
// Directories are implied by file paths; Directories only adds metadata
// and lets empty directories exist.
type Manifest struct {
	Files       []FileEntry      `json:"files" yaml:"files"`
	Directories []DirectoryEntry `json:"directories,omitempty" yaml:"directories,omitempty"`
}

// FileEntry describes one file, by path relative to the mount root.
type FileEntry struct {
	Path       string      `json:"path" yaml:"path"`
	Title      string      `json:"title" yaml:"title"`
	Size       *int64      `json:"size,omitempty" yaml:"size,omitempty"`
	Modified   *int64      `json:"modified,omitempty" yaml:"modified,omitempty"`
	Tags       []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Encryption *Encryption `json:"encryption,omitempty" yaml:"encryption,omitempty"`
}

// DirectoryEntry carries display metadata for a directory.
type DirectoryEntry struct {
	Path        string   `json:"path" yaml:"path"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Encryption marks a file readable only by the listed recipients.
type Encryption struct {
	Algorithm   string       `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	WrappedKeys []WrappedKey `json:"wrapped_keys" yaml:"wrapped_keys"`
}

// WrappedKey is a content key encrypted to one wallet address.
type WrappedKey struct {
	Recipient    string `json:"recipient" yaml:"recipient"`
	EncryptedKey string `json:"encrypted_key,omitempty" yaml:"encrypted_key,omitempty"`
}

// Recipients lists the wallet addresses that may read the file.
func (e *Encryption) Recipients() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.WrappedKeys))
	for _, k := range e.WrappedKeys {
		out = append(out, k.Recipient)
	}
	return out
}

// Format selects the decoder.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

// FormatFor picks a format from a file name or object key.
func FormatFor(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatAuto
}

// Decode parses a manifest. FormatAuto treats input starting with '{' as
// JSON and anything else as YAML.
func Decode(data []byte, format Format) (*Manifest, error) {
	if format == FormatAuto {
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			format = FormatJSON
		} else {
			format = FormatYAML
		}
	}

	var m Manifest
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode json manifest: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode yaml manifest: %w", err)
		}
	}
	return &m, nil
}
