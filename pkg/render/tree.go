// Package render formats discovery results for terminal output.
package render

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

type node struct {
	name     string
	children map[string]*node
	file     bool
}

func (n *node) child(name string) *node {
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c, ok := n.children[name]
	if !ok {
		c = &node{name: name}
		n.children[name] = c
	}
	return c
}

func (n *node) isDir() bool {
	return len(n.children) > 0
}

// Tree draws relPaths (slash-separated, relative to root) as a box-drawing
// tree headed by root. Directories are listed before files, each group
// sorted case-insensitively.
func Tree(root string, relPaths []string) string {
	top := &node{}
	for _, p := range relPaths {
		p = path.Clean(strings.TrimPrefix(p, "/"))
		if p == "." || p == "" {
			continue
		}
		cur := top
		for _, part := range strings.Split(p, "/") {
			cur = cur.child(part)
		}
		cur.file = true
	}

	var treeBuilder strings.Builder
	treeBuilder.WriteString(fmt.Sprintf("%s/\n", strings.TrimSuffix(root, "/")))
	writeChildren(&treeBuilder, top, "")
	return treeBuilder.String()
}

func writeChildren(b *strings.Builder, n *node, prefix string) {
	entries := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		entries = append(entries, c)
	}
	// Sort entries: directories first, then files, alphabetically
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].isDir() != entries[j].isDir() {
			return entries[i].isDir()
		}
		return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
	})

	for i, entry := range entries {
		connector := "├── "
		extension := "│   "
		if i == len(entries)-1 {
			connector = "└── "
			extension = "    "
		}

		if entry.isDir() {
			// Append '/' to directory names
			b.WriteString(fmt.Sprintf("%s%s%s/\n", prefix, connector, entry.name))
			writeChildren(b, entry, prefix+extension)
			continue
		}
		b.WriteString(fmt.Sprintf("%s%s%s\n", prefix, connector, entry.name))
	}
}
