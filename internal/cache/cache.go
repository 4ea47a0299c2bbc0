// Package cache holds the read-through cache for single documents.
package cache

import (
	"context"

	"github.com/danek0100/External-Observer/internal/model"
	"github.com/gofrs/uuid/v5"
)

// DocumentCache stores documents by id. A miss is (nil, nil).
type DocumentCache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	// Set stores d unless the cache already holds the same or a newer version,
	// or d (or its owner) was invalidated within the TTL.
	Set(ctx context.Context, d *model.Document) error
	// Invalidate records that id is gone. Later Sets of id are refused until the record expires.
	Invalidate(ctx context.Context, id uuid.UUID) error
	// InvalidateOwner drops every cached document of owner and refuses new ones until expiry.
	InvalidateOwner(ctx context.Context, owner string) error
}

var _ DocumentCache = Nop{}

// Nop is a cache that never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, uuid.UUID) (*model.Document, error) { return nil, nil }
func (Nop) Set(context.Context, *model.Document) error             { return nil }
func (Nop) Invalidate(context.Context, uuid.UUID) error             { return nil }
func (Nop) InvalidateOwner(context.Context, string) error           { return nil }
