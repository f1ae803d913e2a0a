package vfs

// Node is a serializable snapshot of a tree, used by the tree API and
// the CLI tree command.
type Node struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	IsDir     bool    `json:"is_dir"`
	Title     string  `json:"title,omitempty"`
	Size      *int64  `json:"size,omitempty"`
	Modified  *int64  `json:"modified,omitempty"`
	Encrypted bool    `json:"encrypted,omitempty"`
	Children  []*Node `json:"children,omitempty"`
}

// Tree snapshots the subtree at p, children in listing order.
func (fs *FS) Tree(p string) (*Node, bool) {
	p = Normalize(p)
	e, ok := fs.GetEntry(p)
	if !ok {
		return nil, false
	}
	return fs.snapshot(e, p), true
}

func (fs *FS) snapshot(e *Entry, p string) *Node {
	n := &Node{Name: e.Name, Path: p, IsDir: e.Dir, Title: e.Title()}
	if !e.Dir {
		n.Size = e.Meta.Size
		n.Modified = e.Meta.Modified
		n.Encrypted = e.Meta.Encrypted
		return n
	}
	items, _ := fs.ListDir(p)
	for _, it := range items {
		n.Children = append(n.Children, fs.snapshot(it.Entry, Join(p, it.Name)))
	}
	return n
}

// Walk visits every entry below p in depth-first listing order. The walk
// stops early when fn returns false.
func (fs *FS) Walk(p string, fn func(path string, e *Entry) bool) {
	type frame struct {
		path  string
		entry *Entry
	}
	start, ok := fs.GetEntry(p)
	if !ok || !start.Dir {
		return
	}
	p = Normalize(p)

	var stack []frame
	push := func(dir string) {
		items, _ := fs.ListDir(dir)
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, frame{Join(dir, items[i].Name), items[i].Entry})
		}
	}
	push(p)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.path, f.entry) {
			return
		}
		if f.entry.Dir {
			push(f.path)
		}
	}
}

// CountNodes counts a snapshot including its root.
func CountNodes(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.Children {
		count += CountNodes(c)
	}
	return count
}

// Stats counts the directories, files and encrypted files of the tree.
func (fs *FS) Stats() (dirs, files, encrypted int) {
	fs.Walk(Root, func(_ string, e *Entry) bool {
		switch {
		case e.Dir:
			dirs++
		case e.Meta.Encrypted:
			files++
			encrypted++
		default:
			files++
		}
		return true
	})
	return dirs, files, encrypted
}
