package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfolio/termfolio/internal/retry"
)

const jsonManifest = `{
  "files": [
    {"path": "blog/hello.md", "title": "Hello", "size": 120, "tags": ["intro"]},
    {"path": "vault/key.md", "title": "Key", "encryption": {"wrapped_keys": [{"recipient": "0xabc"}]}}
  ],
  "directories": [{"path": "blog", "title": "Blog"}]
}`

const yamlManifest = `
files:
  - path: about.md
    title: About
    modified: 1700000000
directories:
  - path: projects
    title: Projects
    description: Things I built
`

func TestDecode(t *testing.T) {
	m, err := Decode([]byte(jsonManifest), FormatAuto)
	require.NoError(t, err)
	require.Len(t, m.Files, 2)
	assert.Equal(t, "blog/hello.md", m.Files[0].Path)
	require.NotNil(t, m.Files[0].Size)
	assert.EqualValues(t, 120, *m.Files[0].Size)
	assert.Nil(t, m.Files[0].Encryption)
	assert.Equal(t, []string{"0xabc"}, m.Files[1].Encryption.Recipients())
	assert.Equal(t, "Blog", m.Directories[0].Title)

	m, err = Decode([]byte(yamlManifest), FormatAuto)
	require.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.EqualValues(t, 1700000000, *m.Files[0].Modified)
	assert.Equal(t, "Things I built", m.Directories[0].Description)

	_, err = Decode([]byte("{not json"), FormatJSON)
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("manifest.JSON"))
	assert.Equal(t, FormatYAML, FormatFor("m.yml"))
	assert.Equal(t, FormatYAML, FormatFor("m.yaml"))
	assert.Equal(t, FormatAuto, FormatFor("https://example.com/manifest"))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlManifest), 0o644))

	m, err := Load(context.Background(), FileSource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "about.md", m.Files[0].Path)

	_, err = Load(context.Background(), FileSource{Path: filepath.Join(dir, "missing.json")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPSourceRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(jsonManifest))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL + "/manifest.json")
	src.Retry = retry.Config{MaxAttempts: 5, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}

	m, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, m.Files, 2)
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPSourceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := Load(context.Background(), NewHTTPSource(srv.URL+"/manifest.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Source(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/portfolio/manifest.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(jsonManifest))
	}))
	defer srv.Close()

	src, err := NewS3Source(context.Background(), S3Config{
		Endpoint:  srv.URL,
		Bucket:    "portfolio",
		Key:       "manifest.json",
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://portfolio/manifest.json", src.Location())

	m, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, m.Files, 2)
}

func TestLoadAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(jsonManifest), 0o644))

	results := LoadAll(context.Background(),
		[]string{"~", "broken", "again"},
		[]Source{FileSource{Path: good}, FileSource{Path: filepath.Join(dir, "nope.json")}, FileSource{Path: good}},
		2)

	require.Len(t, results, 3)
	assert.Equal(t, "~", results[0].Name)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrNotFound)
	assert.Nil(t, results[1].Manifest)
	assert.Len(t, results[2].Manifest.Files, 2)
}

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonManifest), 0o644))

	w, err := NewWatcher([]string{path}, 20*time.Millisecond)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := w.Subscribe()
	w.Start(ctx)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(yamlManifest), 0o644))

	select {
	case c := <-ch:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, c.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
}
