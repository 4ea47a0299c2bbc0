package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Document is a tagged, linked, versioned text record (note / zettel).
type Document struct {
	ID       uuid.UUID      `json:"id"`
	Owner    string         `json:"username"`
	Title    string         `json:"title,omitempty"`
	Type     string         `json:"type,omitempty"`
	Path     string         `json:"path,omitempty"`
	Content  string         `json:"content"`
	Tags     []string       `json:"tags"`
	Links    []string       `json:"links"`
	Metadata map[string]any `json:"metadata"`
	Status   string         `json:"status,omitempty"`
	Version  int64          `json:"version"` // 1 on create, +1 per update
	Created  time.Time      `json:"created"`
	Updated  time.Time      `json:"updated"`
}

// DocumentInput is the caller-controlled part of a Document.
// Update replaces every field of the stored document with these values.
type DocumentInput struct {
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Path     string         `json:"path"`
	Content  string         `json:"content"`
	Tags     []string       `json:"tags"`
	Links    []string       `json:"links"`
	Metadata map[string]any `json:"metadata"`
	Status   string         `json:"status"`

	// Version, when non-zero on update, must equal the stored version.
	Version int64 `json:"version,omitempty"`
}

// DocumentRevision is a snapshot of a document as it was before an update.
type DocumentRevision struct {
	Document
	ArchivedAt time.Time `json:"archivedAt,omitzero"` // zero for the current version
}

// Apply copies the input fields onto d (full replace).
func (in DocumentInput) Apply(d *Document) {
	d.Title = in.Title
	d.Type = in.Type
	d.Path = in.Path
	d.Content = in.Content
	d.Tags = in.Tags
	d.Links = in.Links
	d.Metadata = in.Metadata
	d.Status = in.Status
}

// HasTag reports whether the document carries tag.
func (d Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
