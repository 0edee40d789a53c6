package model

import "sort"

// Node is a mobile wireless node. Position and Velocity are owned by the
// mobility model; Files is the node's own inventory, assigned once at start.
type Node struct {
	ID       int
	Position Vec2
	Velocity Vec2

	Files map[int]File
}

// NewNode returns a node with an empty inventory.
func NewNode(id int) *Node {
	return &Node{ID: id, Files: make(map[int]File)}
}

// NodeID returns the node's identifier.
func (n *Node) NodeID() int { return n.ID }

// HasFile reports whether the node owns the file with the given id.
func (n *Node) HasFile(id int) bool {
	_, ok := n.Files[id]
	return ok
}

// FileCount returns the number of files the node owns.
func (n *Node) FileCount() int { return len(n.Files) }

// OwnedFiles returns a snapshot of the node's files ordered by id.
func (n *Node) OwnedFiles() []File {
	out := make([]File, 0, len(n.Files))
	for _, f := range n.Files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
