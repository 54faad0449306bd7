package api

import (
	stderrors "errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidSignature = "INVALID_WALLET_SIGNATURE"
	textCodeChallengeStale   = "CHALLENGE_STALE"
	textCodeTokenExpired     = "TOKEN_EXPIRED"
	textCodeTokenMalformed   = "TOKEN_MALFORMED"
	textCodeUnauthorized     = "UNAUTHORIZED"
	textCodeForbidden        = "FORBIDDEN"
	textCodeUserDeactivated  = "USER_DEACTIVATED"
)

// ErrInvalidSignature is returned when a signature cannot be parsed, does not
// recover to any address, or recovers to an address other than the claimed one.
var ErrInvalidSignature = goerrors.New("invalid wallet signature", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrChallengeStale is returned when a challenge's signing timestamp falls
// outside the configured freshness window.
var ErrChallengeStale = goerrors.New("challenge signed too long ago", goerrors.CategoryAuth).
	WithTextCode(textCodeChallengeStale).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for structurally valid tokens past their expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens with a bad signature or structure.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthorized is the uniform failure surfaced by the session guard.
// Internal causes (expired vs malformed vs missing user vs revoked sessions)
// are logged but never distinguished in the response contract.
var ErrUnauthorized = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when the entity exists but the caller lacks the
// required ownership or membership.
var ErrForbidden = goerrors.New("insufficient permissions", goerrors.CategoryAuthz).
	WithTextCode(textCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrUserDeactivated blocks deactivated accounts from authenticating.
var ErrUserDeactivated = goerrors.New("user is deactivated", goerrors.CategoryAuth).
	WithTextCode(textCodeUserDeactivated).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, ErrTokenExpired) || strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
