package api

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// DefaultAccessTokenMinutes is the access token lifetime when unset
	DefaultAccessTokenMinutes = 60
	// DefaultRefreshTokenMinutes is the refresh token lifetime when unset (7 days)
	DefaultRefreshTokenMinutes = 10080
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey     []byte
	accessMinutes  int
	refreshMinutes int
	issuer         string
	logger         Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, accessMinutes, refreshMinutes int, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if accessMinutes <= 0 {
		accessMinutes = DefaultAccessTokenMinutes
	}
	if refreshMinutes <= 0 {
		refreshMinutes = DefaultRefreshTokenMinutes
	}
	return &TokenServiceImpl{
		signingKey:     signingKey,
		accessMinutes:  accessMinutes,
		refreshMinutes: refreshMinutes,
		issuer:         issuer,
		logger:         logger,
	}
}

// IssueAccessToken signs a short-lived access token carrying sub=userID.
func (ts *TokenServiceImpl) IssueAccessToken(userID string) (string, time.Time, error) {
	return ts.issue(userID, TokenKindAccess, "", time.Duration(ts.accessMinutes)*time.Minute)
}

// IssueRefreshToken signs a long-lived refresh token bound to its persisted
// session record. The record itself is the caller's responsibility; decoding
// a refresh token never proves the session is still live.
func (ts *TokenServiceImpl) IssueRefreshToken(userID string, sessionID string) (string, time.Time, error) {
	return ts.issue(userID, TokenKindRefresh, sessionID, time.Duration(ts.refreshMinutes)*time.Minute)
}

func (ts *TokenServiceImpl) issue(userID string, kind TokenKind, sessionID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:       userID,
		TokenUse:  kind,
		SessionId: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, expiresAt, nil
}

// Validate parses and verifies a token string, returning structured claims.
// It checks signature and expiry only; it never consults storage.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}
