package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	errs "github.com/matzehuels/curricula/pkg/errors"
)

// Claims are the user fields read from an access token.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time // zero when the token carries no exp
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken reads the claims of an access token. With a non-empty secret
// the HS256 signature and expiry are verified; without one the token is
// decoded unverified and only its expiry is checked, leaving verification
// to the backend that receives it.
func ParseToken(token, secret string) (Claims, error) {
	if token == "" {
		return Claims{}, errs.New(errs.ErrCodeUnauthorized, "missing access token")
	}

	var tc tokenClaims
	if secret != "" {
		_, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
		if err != nil {
			return Claims{}, tokenError(err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
			return Claims{}, tokenError(err)
		}
		if tc.ExpiresAt != nil && time.Now().After(tc.ExpiresAt.Time) {
			return Claims{}, tokenError(jwt.ErrTokenExpired)
		}
	}

	if tc.Subject == "" {
		return Claims{}, errs.New(errs.ErrCodeUnauthorized, "access token has no subject")
	}
	c := Claims{UserID: tc.Subject, Email: tc.Email, Role: tc.Role}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return errs.Wrap(errs.ErrCodeSessionExpired, errors.Join(ErrExpired, err), "access token expired")
	}
	return errs.Wrap(errs.ErrCodeUnauthorized, err, "invalid access token")
}

// FromToken creates a session from an access token. The session expires
// after ttl or when the token does, whichever is first.
func FromToken(token, secret string, ttl time.Duration) (*Session, error) {
	c, err := ParseToken(token, secret)
	if err != nil {
		return nil, err
	}
	sess := New(token, c.UserID, c.Email, ttl)
	if !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(sess.ExpiresAt) {
		sess.ExpiresAt = c.ExpiresAt
	}
	return sess, nil
}
