// Package vault models the document tree the assistant operates over: text
// documents addressed by '/'-delimited paths plus purely organizational
// directory nodes. Stores guarantee per-operation atomicity with respect to
// their own consistency; one agent run uses one store.
package vault

import (
	"errors"
	"time"
)

// Sentinel errors translated by the operation handlers into tool result
// failures.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Document is one text document in the tree. A path denotes at most one
// document at any time.
type Document struct {
	Path       string
	Body       string
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Metadata is the tree's derived index for one document: parsed frontmatter,
// outgoing wikilink targets, and tags.
type Metadata struct {
	Frontmatter map[string]any
	Links       []string
	Tags        []string
}

// Store is the narrow capability interface over the document tree. The core
// never touches host storage directly; every handler goes through this.
type Store interface {
	// Exists reports whether a document is present at path.
	Exists(path string) bool

	// Read returns the document body. Fails with ErrNotFound.
	Read(path string) (string, error)

	// Stat returns the document's path, size, and timestamps without its
	// body. Fails with ErrNotFound.
	Stat(path string) (Document, error)

	// Write replaces the body of an existing document, updating only its
	// modification time. Fails with ErrNotFound.
	Write(path, content string) error

	// CreateDocument creates a new document, materializing any missing
	// ancestor directory segments. Fails with ErrAlreadyExists.
	CreateDocument(path, content string) error

	// CreateDirectory creates a directory node and any missing ancestors.
	// Creating an existing directory is a no-op.
	CreateDirectory(path string) error

	// RenameWithLinkRewrite moves a document and rewrites wikilinks to the
	// old path in every other document that referenced it. Fails with
	// ErrNotFound for a missing source and ErrAlreadyExists for an occupied
	// destination.
	RenameWithLinkRewrite(oldPath, newPath string) error

	// Trash removes a document via a reversible-delete path rather than
	// permanent erasure. Fails with ErrNotFound.
	Trash(path string) error

	// ListAll returns every document in the tree, bodies included.
	ListAll() ([]Document, error)

	// DerivedMetadata returns the parsed frontmatter, links, and tags for a
	// document. Fails with ErrNotFound.
	DerivedMetadata(path string) (Metadata, error)
}
