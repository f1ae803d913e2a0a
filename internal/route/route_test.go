package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func known(alias string) bool { return alias == "~" || alias == "work" }

func TestFromPath(t *testing.T) {
	tests := []struct {
		in   string
		want Route
	}{
		{"", Root()},
		{"/", Root()},
		{"/~", Browse("~", "/")},
		{"/~/", Browse("~", "/")},
		{"/~/blog/", Browse("~", "/blog")},
		{"/~/blog", Browse("~", "/blog")},
		{"/~/blog/post.md", Read("~", "/blog/post.md")},
		{"/work/docs/", Browse("work", "/docs")},
		{"/unknown/", Root()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromPath(tt.in, known), "FromPath(%q)", tt.in)
	}
}

func TestToPathRoundTrip(t *testing.T) {
	for _, r := range []Route{Root(), Browse("~", "/"), Browse("~", "/blog"), Read("~", "/blog/post.md"), Browse("work", "/docs")} {
		assert.Equal(t, r, FromPath(r.ToPath(), known), r.ToPath())
	}
	assert.Equal(t, "/~/blog/", Browse("~", "/blog").ToPath())
	assert.Equal(t, "/~/blog/post.md", Read("~", "/blog/post.md").ToPath())
}

func TestDisplayPath(t *testing.T) {
	assert.Equal(t, "/", Root().DisplayPath())
	assert.Equal(t, "~", Browse("~", "/").DisplayPath())
	assert.Equal(t, "~/blog", Browse("~", "/blog").DisplayPath())
	assert.Equal(t, "~/blog/post.md", Read("~", "/blog/post.md").DisplayPath())
	assert.Equal(t, "work/docs", Browse("work", "/docs").DisplayPath())
}

func TestParent(t *testing.T) {
	assert.Equal(t, Root(), Root().Parent())
	assert.Equal(t, Root(), Browse("~", "/").Parent())
	assert.Equal(t, Browse("~", "/"), Browse("~", "/blog").Parent())
	assert.Equal(t, Browse("~", "/blog"), Read("~", "/blog/post.md").Parent())
}

func TestDir(t *testing.T) {
	assert.Equal(t, "/", Root().Dir())
	assert.Equal(t, "/blog", Browse("~", "/blog").Dir())
	assert.Equal(t, "/blog", Read("~", "/blog/post.md").Dir())
}
