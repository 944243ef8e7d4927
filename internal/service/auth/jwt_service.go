// Package auth validates the bearer tokens that identify readers.
//
// Accounts live outside this service: a token's subject is the user ID that
// owns readings and journal entries. GenerateToken exists for operators and
// tests that need to mint a token for a known user.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")

	// ErrWrongTokenType rejects a well-signed token minted for something
	// other than API access.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrNoUser means a request reached a handler without an authenticated
	// user in its context.
	ErrNoUser = errors.New("no authenticated user in context")
)

// JWTService mints and checks access tokens.
type JWTService interface {
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken returns the claims of a valid access token. Failures are
	// one of the Err*Token sentinels.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token. UserID is always set;
// it falls back to the subject claim for tokens issued elsewhere.
type Claims struct {
	UserID    uuid.UUID `json:"uid,omitempty"`
	TokenType string    `json:"type,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
