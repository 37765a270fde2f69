// Package auth provides a JWT-backed CredentialVerifier. Token issuance
// belongs to the session service; Issue exists so development setups and
// tests can mint compatible tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"

	"github.com/hondana/bookstore/pkg/bookstore"
)

// userIDClaim carries the verified user id; "sub" is accepted as fallback.
const userIDClaim = "user_id"

// JWTVerifier verifies HS256 session tokens.
type JWTVerifier struct {
	auth *jwtauth.JWTAuth
}

// NewJWTVerifier creates a verifier over the shared HMAC secret.
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{auth: jwtauth.New("HS256", secret, nil)}
}

var _ bookstore.CredentialVerifier = (*JWTVerifier)(nil)

// Verify resolves a token string to an identity. Expired tokens map to
// bookstore.ErrTokenExpired, everything else that fails verification to
// bookstore.ErrTokenInvalid.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*bookstore.Identity, error) {
	token, err := jwtauth.VerifyToken(v.auth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return nil, bookstore.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", bookstore.ErrTokenInvalid, err)
	}

	userID := token.Subject()
	if raw, ok := token.Get(userIDClaim); ok {
		if s, ok := raw.(string); ok && s != "" {
			userID = s
		}
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user claim", bookstore.ErrTokenInvalid)
	}
	return &bookstore.Identity{UserID: userID}, nil
}

// Issue mints a token for the given user, valid for ttl.
func (v *JWTVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	_, tokenString, err := v.auth.Encode(map[string]interface{}{
		userIDClaim: userID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token: %w", err)
	}
	return tokenString, nil
}
