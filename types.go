package api

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth and storage options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAccessTokenMinutes() int
	GetRefreshTokenMinutes() int
	GetMaxChallengeAge() time.Duration
	GetPageSize() int
	GetDatabaseDSN() string
	GetChainRPCURL() string
	GetENSCacheCapacity() int
	GetENSCacheTTL() time.Duration
}

// TokenService issues and validates the symmetric-signed token pair. Issuing
// and decoding never consult storage; liveness of a decoded token is the
// session guard's concern.
type TokenService interface {
	TokenValidator
	IssueAccessToken(userID string) (string, time.Time, error)
	IssueRefreshToken(userID string, sessionID string) (string, time.Time, error)
}

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// UserStore resolves and provisions wallet-keyed users.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetOrCreateByAddress(ctx context.Context, address string, displayName string) (*User, error)
}

// SessionStore persists refresh-token records and answers revocation checks.
type SessionStore interface {
	Persist(ctx context.Context, record *RefreshToken) (*RefreshToken, error)
	HasLiveSession(ctx context.Context, userID string) (bool, error)
	RevokeAll(ctx context.Context, userID string) error
}

// NameResolver resolves a wallet address to its primary ENS name. Resolution
// failures degrade to the shortened address, never fail the request.
type NameResolver interface {
	PrimaryName(ctx context.Context, address string) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] API "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] API "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] API "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
