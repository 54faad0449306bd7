package api

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPair is what a successful authentication yields. The access token goes
// in the response body; the refresh token travels out-of-band (secure cookie),
// so it is never serialized alongside the access token.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
	User             *User     `json:"-"`
}

// WalletAuthenticator drives the challenge → signature → token flow. Two
// states per login attempt: challenge issued, token issued. No intermediate
// state is persisted; the challenge is validated purely by signature and
// freshness policy.
type WalletAuthenticator struct {
	users           UserStore
	sessions        SessionStore
	tokens          TokenService
	names           NameResolver
	maxChallengeAge time.Duration
	clockSkew       time.Duration
	logger          Logger
	activity        ActivitySink
}

// NewWalletAuthenticator returns a new WalletAuthenticator
func NewWalletAuthenticator(users UserStore, sessions SessionStore, cfg Config) *WalletAuthenticator {
	tokens := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetAccessTokenMinutes(),
		cfg.GetRefreshTokenMinutes(),
		cfg.GetIssuer(),
		defLogger{},
	)

	return &WalletAuthenticator{
		users:           users,
		sessions:        sessions,
		tokens:          tokens,
		maxChallengeAge: cfg.GetMaxChallengeAge(),
		clockSkew:       5 * time.Minute,
		logger:          defLogger{},
		activity:        noopActivitySink{},
	}
}

func (a *WalletAuthenticator) WithLogger(logger Logger) *WalletAuthenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithNameResolver wires ENS display-name resolution into user provisioning.
func (a *WalletAuthenticator) WithNameResolver(names NameResolver) *WalletAuthenticator {
	a.names = names
	return a
}

// WithActivitySink wires an audit sink for login and logout events.
func (a *WalletAuthenticator) WithActivitySink(sink ActivitySink) *WalletAuthenticator {
	a.activity = normalizeActivitySink(sink)
	return a
}

// WithTokenService replaces the default token service.
func (a *WalletAuthenticator) WithTokenService(tokens TokenService) *WalletAuthenticator {
	if tokens != nil {
		a.tokens = tokens
	}
	return a
}

// TokenService returns the TokenService instance used by this authenticator
func (a *WalletAuthenticator) TokenService() TokenService {
	return a.tokens
}

// Authenticate verifies a signed challenge and issues a token pair.
// Repeated calls with the same address never create duplicate users, and each
// call persists one revocable refresh-token record.
func (a *WalletAuthenticator) Authenticate(ctx context.Context, message ChallengeMessage, signature string) (*TokenPair, error) {
	if err := message.Validate(); err != nil {
		a.logger.Error("Authenticate challenge payload invalid", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid challenge payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := a.checkFreshness(message); err != nil {
		return nil, err
	}

	claimed, err := ChecksumAddress(message.Address)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	if !a.signatureMatches(message, signature, claimed.Hex()) {
		a.logger.Error("Authenticate signature does not recover claimed address", "address", claimed.Hex())
		a.recordActivity(ctx, ActivityEvent{
			EventType:     ActivityEventLoginFailure,
			WalletAddress: claimed.Hex(),
		})
		return nil, ErrInvalidSignature
	}

	user, err := a.users.GetOrCreateByAddress(ctx, claimed.Hex(), a.displayName(ctx, claimed.Hex()))
	if err != nil {
		a.logger.Error("Authenticate user upsert failed", "error", err)
		return nil, err
	}

	if !user.IsActive() {
		a.logger.Error("Authenticate blocked deactivated user", "user_id", user.ID.String())
		return nil, ErrUserDeactivated
	}

	pair, err := a.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType:     ActivityEventLoginSuccess,
		UserID:        user.ID.String(),
		WalletAddress: user.WalletAddress,
	})

	return pair, nil
}

func (a *WalletAuthenticator) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	sessionID := uuid.New()

	refreshToken, refreshExpiry, err := a.tokens.IssueRefreshToken(user.ID.String(), sessionID.String())
	if err != nil {
		return nil, err
	}

	record := &RefreshToken{
		ID:        sessionID,
		UserID:    user.ID,
		IssuedAt:  time.Now(),
		ExpiresAt: refreshExpiry,
	}
	if _, err := a.sessions.Persist(ctx, record); err != nil {
		a.logger.Error("Authenticate refresh record persist failed", "error", err)
		return nil, err
	}

	accessToken, accessExpiry, err := a.tokens.IssueAccessToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		TokenType:        "bearer",
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
		User:             user,
	}, nil
}

// Logout revokes every live session for the user, which makes all still
// unexpired access tokens fail the guard's revocation check.
func (a *WalletAuthenticator) Logout(ctx context.Context, user *User) error {
	if err := a.sessions.RevokeAll(ctx, user.ID.String()); err != nil {
		return err
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType:     ActivityEventLogout,
		UserID:        user.ID.String(),
		WalletAddress: user.WalletAddress,
	})
	return nil
}

func (a *WalletAuthenticator) recordActivity(ctx context.Context, event ActivityEvent) {
	event.OccurredAt = time.Now()
	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Error("Activity sink rejected event", "type", event.EventType, "error", err)
	}
}

func (a *WalletAuthenticator) checkFreshness(message ChallengeMessage) error {
	if a.maxChallengeAge <= 0 {
		return nil
	}

	signedAt, err := message.SignedTime()
	if err != nil {
		return ErrChallengeStale
	}

	now := time.Now()
	if signedAt.Before(now.Add(-a.maxChallengeAge)) || signedAt.After(now.Add(a.clockSkew)) {
		a.logger.Error("Authenticate challenge outside freshness window", "signed_at", message.SignedAt)
		return ErrChallengeStale
	}

	return nil
}

func (a *WalletAuthenticator) signatureMatches(message ChallengeMessage, signature, claimed string) bool {
	for _, text := range message.SignTexts() {
		recovered, err := RecoverAddress(text, signature)
		if err != nil {
			continue
		}
		if recovered.Hex() == claimed {
			return true
		}
	}
	return false
}

func (a *WalletAuthenticator) displayName(ctx context.Context, address string) string {
	short := ShortAddress(address)
	if a.names == nil {
		return short
	}

	name, err := a.names.PrimaryName(ctx, address)
	if err != nil {
		a.logger.Error("Problems fetching ENS primary name", "address", address, "error", err)
		return short
	}
	if name == "" {
		return short
	}
	return name
}
