package models

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3b82f6"

// TagFilterPrefix marks a synthetic query produced by filtering on a tag.
const TagFilterPrefix = "tag:"

// Tag is a server-side tag definition. Count is computed by the server and is
// never adjusted locally.
type Tag struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
	Count int    `json:"count" yaml:"count"`
}

// TreeNode is one node of the folder tree returned by /api/tree.
type TreeNode struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Kind     Kind       `json:"type" yaml:"type"`
	Path     string     `json:"path" yaml:"path"`
	Children []TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Walk calls fn for the node and its descendants, depth first.
func (n TreeNode) Walk(fn func(node TreeNode, depth int)) {
	n.walk(fn, 0)
}

func (n TreeNode) walk(fn func(node TreeNode, depth int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Stats aggregates counts and sizes over the whole store.
type Stats struct {
	Cabinets   int            `json:"total_armoires" yaml:"cabinets"`
	Shelves    int            `json:"total_rayons" yaml:"shelves"`
	Binders    int            `json:"total_classeurs" yaml:"binders"`
	Folders    int            `json:"total_dossiers" yaml:"folders"`
	Documents  int            `json:"total_documents" yaml:"documents"`
	TotalSize  int64          `json:"total_size" yaml:"total_size"`
	Extensions map[string]int `json:"extensions" yaml:"extensions"`
}

// Health is the body of GET /health.
type Health struct {
	Status            string `json:"status" yaml:"status"`
	StorageRootExists bool   `json:"ged_root_exists" yaml:"storage_root_exists"`
}

// DeleteResult is the body returned by a delete.
type DeleteResult struct {
	Message string `json:"message" yaml:"message"`
	Path    string `json:"path" yaml:"path"`
}
