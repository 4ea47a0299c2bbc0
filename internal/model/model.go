// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"` // access token expiry
}

// User represents an account stored on the server. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique, owner key of every resource
	PwdHash   string    // encoded Argon2id hash (see internal/crypto)
	CreatedAt time.Time
}
