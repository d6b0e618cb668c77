// Package changetree builds a folder tree out of flat version-control change records.
package changetree

import (
	"strings"
	"unicode"

	"github.com/temirov/chtree/internal/types"
)

// Node is one folder level of a change tree. The root node has an empty name.
// A node exclusively owns its children; there is no reference back to the parent.
type Node struct {
	name          string
	children      []*Node
	childIndex    map[string]*Node
	directChanges []types.ChangeFileRecord
	assigned      bool
}

func newNode(name string) *Node {
	return &Node{name: name, childIndex: map[string]*Node{}}
}

// Name returns the display name of the folder, as first seen in the input.
func (node *Node) Name() string {
	return node.name
}

// Children returns the subfolders in insertion order.
func (node *Node) Children() []*Node {
	return append([]*Node(nil), node.children...)
}

// DirectChanges returns the records whose parent directory is exactly this folder.
func (node *Node) DirectChanges() []types.ChangeFileRecord {
	return append([]types.ChangeFileRecord(nil), node.directChanges...)
}

// Child looks up a subfolder by name, ignoring case.
func (node *Node) Child(name string) (*Node, bool) {
	child, found := node.childIndex[foldName(name)]
	return child, found
}

// IsEmpty reports whether the node has neither subfolders nor direct changes.
func (node *Node) IsEmpty() bool {
	return len(node.children) == 0 && len(node.directChanges) == 0
}

// Depth returns the number of folder levels below the node.
func (node *Node) Depth() int {
	deepest := 0
	for _, child := range node.children {
		if childDepth := child.Depth() + 1; childDepth > deepest {
			deepest = childDepth
		}
	}
	return deepest
}

// CountFolders returns the number of folders below the node.
func (node *Node) CountFolders() int {
	total := len(node.children)
	for _, child := range node.children {
		total += child.CountFolders()
	}
	return total
}

// CountChanges returns the number of records attached anywhere in the subtree.
func (node *Node) CountChanges() int {
	total := len(node.directChanges)
	for _, child := range node.children {
		total += child.CountChanges()
	}
	return total
}

func (node *Node) childOrCreate(name string) *Node {
	key := foldName(name)
	if existing, found := node.childIndex[key]; found {
		return existing
	}
	created := newNode(name)
	node.children = append(node.children, created)
	node.childIndex[key] = created
	return created
}

// foldName maps every rune to the smallest member of its simple case-folding
// orbit, so two names share a key exactly when strings.EqualFold matches them.
func foldName(name string) string {
	return strings.Map(canonicalFold, name)
}

func canonicalFold(character rune) rune {
	smallest := character
	for folded := unicode.SimpleFold(character); folded != character; folded = unicode.SimpleFold(folded) {
		if folded < smallest {
			smallest = folded
		}
	}
	return smallest
}
