// Package service contains the application services: accounts, versioned
// documents and habit tracking. Every operation takes the authenticated
// username explicitly.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danek0100/External-Observer/internal/cache"
	pkgcrypto "github.com/danek0100/External-Observer/internal/crypto"
	"github.com/danek0100/External-Observer/internal/errs"
	"github.com/danek0100/External-Observer/internal/limiter"
	"github.com/danek0100/External-Observer/internal/model"
	"github.com/danek0100/External-Observer/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	maxUsernameLen = 64
	minPasswordLen = 6

	// tolerated clock skew between issuer and verifier
	tokenLeeway = 30 * time.Second
)

// AuthService defines account and token operations.
type AuthService interface {
	// Register creates a new user with secure password hashing.
	Register(ctx context.Context, username, password string) (userID string, err error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, username, password string, ip string) (tokens model.Tokens, err error)
	// ParseAccessToken verifies a token and returns the username it was issued to.
	ParseAccessToken(token string) (username string, err error)
	// DeleteAccount removes the user together with all of its data.
	DeleteAccount(ctx context.Context, username string) error
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	docs      cache.DocumentCache
	now       func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
// docs is the document cache purged on account deletion; nil means none.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter, docs cache.DocumentCache) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	if docs == nil {
		docs = cache.Nop{}
	}
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim, docs: docs, now: time.Now}
}

// Register creates a new user record with an encoded Argon2id password hash.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "" || password == "":
		return "", fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	case len(username) > maxUsernameLen:
		return "", fmt.Errorf("%w: username longer than %d", errs.ErrValidation, maxUsernameLen)
	case len(password) < minPasswordLen:
		return "", fmt.Errorf("%w: password shorter than %d", errs.ErrValidation, minPasswordLen)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	pwdHash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return "", err
	}

	u := &model.User{ID: uid, Username: username, PwdHash: pwdHash}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return uid.String(), nil
}

// LoginWithIP authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, err
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, err
	}
	ok := false
	if err == nil {
		ok, err = pkgcrypto.VerifyPassword(password, u.PwdHash)
		if err != nil {
			return model.Tokens{}, err
		}
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		// unknown user and wrong password look the same
		return model.Tokens{}, errs.ErrUnauthorized
	}

	// best-effort reset
	_ = s.lim.Success(ctx, username, ipHash)

	access, exp, err := s.issueAccessToken(u.Username)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// ParseAccessToken validates signature, algorithm and expiry and returns the subject.
func (s *AuthServiceImpl) ParseAccessToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", errs.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// DeleteAccount removes every document, revision, habit and check of username and then the user.
func (s *AuthServiceImpl) DeleteAccount(ctx context.Context, username string) error {
	if username == "" {
		return errs.ErrUnauthorized
	}
	// Purging first also blocks refills for the cache TTL, which covers the delete below.
	if err := s.docs.InvalidateOwner(ctx, username); err != nil {
		return fmt.Errorf("purge document cache: %w", err)
	}
	return s.users.DeleteWithData(ctx, username)
}
