package vfs

import "strings"

// Root is the root VirtualPath of a mount.
const Root = "/"

// Normalize resolves "." and ".." segments and returns an absolute path
// with no trailing slash and no empty segments. ".." never climbs above
// the root.
func Normalize(p string) string {
	parts := make([]string, 0, strings.Count(p, "/")+1)
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// Resolve combines a current directory with a target without checking
// existence. "~" and "~/x" are relative to the mount root, as are
// absolute targets.
func Resolve(current, target string) string {
	switch {
	case target == "~":
		return Root
	case strings.HasPrefix(target, "~/"):
		return Normalize(target[1:])
	case strings.HasPrefix(target, "/"):
		return Normalize(target)
	case target == "" || target == ".":
		return Normalize(current)
	}
	return Normalize(current + "/" + target)
}

// Parent returns the parent directory; the root is its own parent.
func Parent(p string) string {
	p = Normalize(p)
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		return Root
	}
	return p[:i]
}

// Join appends a child name to a directory path.
func Join(dir, name string) string {
	if dir == Root {
		return Root + name
	}
	return dir + "/" + name
}

// Base returns the last segment, or "" for the root.
func Base(p string) string {
	p = Normalize(p)
	return p[strings.LastIndexByte(p, '/')+1:]
}

// Relative strips the leading slash, giving the manifest-style path.
func Relative(p string) string {
	return strings.TrimPrefix(Normalize(p), "/")
}

func segments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
