package models

import (
	"encoding/json"
)

// NodeType distinguishes folders from files in the archive tree
type NodeType string

const (
	NodeFolder NodeType = "folder"
	NodeFile   NodeType = "file"
)

// Node is a file or folder in the archive tree.
//
// Folders keep a name index next to Children so lookups during a rebuild
// stay constant time; Children remains the ordered, serialized view.
type Node struct {
	ID       string
	Name     string
	Type     NodeType
	Toggled  bool
	Size     int64
	MimeType string
	ModTime  int64
	Children []*Node

	index map[string]*Node
}

// Snapshot is the persisted archive index. It is always replaced as a whole.
type Snapshot struct {
	Tree        *Node `json:"data"`
	LastUpdated int64 `json:"last_updated"`
	TotalSize   int64 `json:"total_size"`
}

// Entry is one remote listing item, named after the fields `rclone lsjson` emits
type Entry struct {
	Path     string `json:"Path" validate:"required"`
	Name     string `json:"Name"`
	Size     int64  `json:"Size"`
	MimeType string `json:"MimeType"`
	ModTime  string `json:"ModTime" validate:"required_if=IsDir false"`
	IsDir    bool   `json:"IsDir"`
	ID       string `json:"ID" validate:"required"`
}

// NewFolder creates an empty folder node
func NewFolder(id, name string) *Node {
	return &Node{
		ID:       id,
		Name:     name,
		Type:     NodeFolder,
		Children: []*Node{},
	}
}

// NewFile creates a file node
func NewFile(id, name string, size int64, mimetype string, modtime int64) *Node {
	return &Node{
		ID:       id,
		Name:     name,
		Type:     NodeFile,
		Size:     size,
		MimeType: mimetype,
		ModTime:  modtime,
	}
}

// IsFolder reports whether the node is a folder
func (n *Node) IsFolder() bool {
	return n.Type == NodeFolder
}

// Child returns the direct child with the given name, or nil
func (n *Node) Child(name string) *Node {
	if n.index == nil {
		n.reindex()
	}
	return n.index[name]
}

// AddChild appends child unless a sibling with the same name exists.
// It reports whether the child was added.
func (n *Node) AddChild(child *Node) bool {
	if n.Child(child.Name) != nil {
		return false
	}
	n.Children = append(n.Children, child)
	n.index[child.Name] = child
	return true
}

func (n *Node) reindex() {
	n.index = make(map[string]*Node, len(n.Children))
	for _, c := range n.Children {
		n.index[c.Name] = c
	}
}

// Walk visits the node and every descendant depth first
func (n *Node) Walk(fn func(node *Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

type nodeJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	Toggled  bool     `json:"toggled,omitempty"`
	Size     *int64   `json:"size,omitempty"`
	MimeType *string  `json:"mimetype,omitempty"`
	ModTime  *int64   `json:"modtime,omitempty"`
	Children *[]*Node `json:"children,omitempty"`
}

// MarshalJSON writes folders with a children array (empty when there are
// none) and files with size, mimetype and modtime
func (n Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		ID:      n.ID,
		Name:    n.Name,
		Type:    n.Type,
		Toggled: n.Toggled,
	}
	if n.Type == NodeFile {
		out.Size = &n.Size
		out.MimeType = &n.MimeType
		out.ModTime = &n.ModTime
	} else {
		children := n.Children
		if children == nil {
			children = []*Node{}
		}
		out.Children = &children
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the layout produced by MarshalJSON
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = Node{
		ID:      in.ID,
		Name:    in.Name,
		Type:    in.Type,
		Toggled: in.Toggled,
	}
	if in.Size != nil {
		n.Size = *in.Size
	}
	if in.MimeType != nil {
		n.MimeType = *in.MimeType
	}
	if in.ModTime != nil {
		n.ModTime = *in.ModTime
	}
	if in.Children != nil {
		n.Children = *in.Children
	}
	return nil
}
