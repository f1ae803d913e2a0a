package main

import (
	"bytes"
	"testing"

	"github.com/termfolio/termfolio/internal/manifest"
	"github.com/termfolio/termfolio/internal/vfs"
)

func TestPrintTree(t *testing.T) {
	fsys := vfs.Build(&manifest.Manifest{Files: []manifest.FileEntry{
		{Path: "blog/2024/hello.md"},
		{Path: "blog/notes.md"},
		{Path: "about.md"},
	}}, vfs.Options{Mount: "~"})
	root, ok := fsys.Tree("/")
	if !ok {
		t.Fatal("no root")
	}

	var buf bytes.Buffer
	printTree(&buf, root, "")
	want := "" +
		"├── blog/\n" +
		"│   ├── 2024/\n" +
		"│   │   └── hello.md\n" +
		"│   └── notes.md\n" +
		"└── about.md\n"
	if buf.String() != want {
		t.Errorf("tree:\n%s\nwant:\n%s", buf.String(), want)
	}

	dirs, files := countKinds(root)
	if dirs != 2 || files != 3 {
		t.Errorf("counts = %d dirs, %d files; want 2, 3", dirs, files)
	}
}
