// Package provider abstracts document-tree traversal for folders that
// are reachable through a handle rather than a local filesystem path.
package provider

import "io"

// Node is one entry in a provider tree. Identity is an opaque URI
// string, unique within the provider.
type Node struct {
	Identity string
	Name     string
	IsDir    bool
}

// Provider lists and opens nodes of a document tree.
type Provider interface {
	// ListChildren returns the direct children of a directory node.
	ListChildren(identity string) ([]Node, error)
	// Exists reports whether the node is reachable.
	Exists(identity string) bool
	// Open returns the file contents for a file node.
	Open(identity string) (io.ReadCloser, error)
	Close() error
}
