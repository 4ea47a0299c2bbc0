package repository

import (
	"context"

	"github.com/danek0100/External-Observer/internal/model"
	"github.com/gofrs/uuid/v5"
)

// MutateFunc receives the locked current state of a document and returns the
// state to persist. Returning an error aborts the update without side effects.
type MutateFunc func(cur model.Document) (model.Document, error)

// DocumentRepository is the typed query surface over stored documents.
type DocumentRepository interface {
	// Create inserts a new document.
	Create(ctx context.Context, d *model.Document) error
	// Get loads a document by id regardless of owner.
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	// Update locks the document, applies fn and stores the result,
	// archiving the previous state as a revision in the same transaction.
	Update(ctx context.Context, id uuid.UUID, fn MutateFunc) (*model.Document, error)
	// Delete removes the document and its revisions if owned by owner. Missing rows are not an error.
	Delete(ctx context.Context, id uuid.UUID, owner string) error

	// ListByOwner returns all documents of owner, most recently updated first.
	ListByOwner(ctx context.Context, owner string) ([]model.Document, error)
	// FindByTags returns owner's documents having any (or, with matchAll, every) tag.
	FindByTags(ctx context.Context, owner string, tags []string, matchAll bool) ([]model.Document, error)
	// FindByContent returns owner's documents whose content contains keyword, ignoring case.
	FindByContent(ctx context.Context, owner, keyword string) ([]model.Document, error)
	// FindByTagsOrContent returns owner's documents matching any tag or the keyword.
	FindByTagsOrContent(ctx context.Context, owner string, tags []string, keyword string) ([]model.Document, error)
	// FindBacklinks returns owner's documents that link to target.
	FindBacklinks(ctx context.Context, owner, target string) ([]model.Document, error)

	// Revisions returns archived versions of a document, newest first.
	Revisions(ctx context.Context, id uuid.UUID) ([]model.DocumentRevision, error)
	// PruneRevisions keeps at most keep revisions per document and reports how many were removed.
	PruneRevisions(ctx context.Context, keep int) (int64, error)
}
