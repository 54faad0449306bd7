package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes access from refresh tokens in claims.
type TokenKind = string

const (
	// TokenKindAccess is the short-lived bearer token
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived session token
	TokenKindRefresh TokenKind = "refresh"
)

// AuthClaims represents structured JWT claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Kind() TokenKind
	SessionID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string    `json:"uid,omitempty"`
	TokenUse  TokenKind `json:"use,omitempty"`
	SessionId string    `json:"sid,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID, falling back to the subject claim
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Kind returns the token use, defaulting to access for legacy tokens
func (c *JWTClaims) Kind() TokenKind {
	if c.TokenUse == "" {
		return TokenKindAccess
	}
	return c.TokenUse
}

// SessionID returns the refresh-record id carried by refresh tokens
func (c *JWTClaims) SessionID() string {
	return c.SessionId
}

// Expires returns the expiry time or zero
func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAt returns the issuance time or zero
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}
