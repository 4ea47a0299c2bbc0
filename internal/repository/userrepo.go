// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/danek0100/External-Observer/internal/model"
)

// UserRepository provides access to accounts.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// DeleteWithData removes the user and every document, revision, habit and
	// check owned by it in one transaction.
	DeleteWithData(ctx context.Context, username string) error
}
