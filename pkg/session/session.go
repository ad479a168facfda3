// Package session provides session management for authenticated users.
//
// A [Session] holds the auth provider's access token together with the
// user identity read from it. Storage backends implement [Store]:
//   - [MemoryStore]: in-process storage for development and tests
//   - [RedisStore]: shared storage for multi-instance servers
//   - [FileStore]: JSON files for the CLI
//
// # Tokens
//
// Access tokens are JWTs issued by the auth provider. [ParseToken] reads
// their claims, verifying the HS256 signature when a secret is configured.
// [FromToken] turns a token into a session:
//
//	sess, err := session.FromToken(accessToken, secret, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
// Retrieve sessions with Get; a missing or expired session is nil, nil:
//
//	sess, err := store.Get(ctx, sessionID)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // not signed in
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session or token has expired.
	ErrExpired = errors.New("expired")
)

// Session stores user session data.
type Session struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (may be a no-op for Redis).
	Cleanup(ctx context.Context) error
}

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// New creates a session for the given token and user. The session expires
// after ttl.
func New(accessToken, userID, email string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:          GenerateID(),
		AccessToken: accessToken,
		UserID:      userID,
		Email:       email,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
}
