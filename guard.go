package api

import (
	"context"
)

// SessionGuard resolves an incoming access token to a live user session. It
// runs on every authenticated request and is never cached beyond the request.
// All failures surface uniformly as ErrUnauthorized; the distinguishing cause
// is only logged.
type SessionGuard struct {
	validator TokenValidator
	users     UserStore
	sessions  SessionStore
	logger    Logger
}

// NewSessionGuard returns a new SessionGuard
func NewSessionGuard(validator TokenValidator, users UserStore, sessions SessionStore) *SessionGuard {
	return &SessionGuard{
		validator: validator,
		users:     users,
		sessions:  sessions,
		logger:    defLogger{},
	}
}

func (g *SessionGuard) WithLogger(logger Logger) *SessionGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// AuthenticateRequest validates the raw token, resolves its user, and checks
// that the user still holds at least one live refresh-token record (the
// "log out everywhere" revocation model).
func (g *SessionGuard) AuthenticateRequest(ctx context.Context, raw string) (*User, error) {
	claims, err := g.validator.Validate(raw)
	if err != nil {
		g.logger.Info("Guard rejected token", "error", err)
		return nil, ErrUnauthorized
	}

	if claims.Kind() != TokenKindAccess {
		g.logger.Info("Guard rejected non-access token", "kind", claims.Kind())
		return nil, ErrUnauthorized
	}

	userID := claims.UserID()
	if userID == "" {
		g.logger.Info("Guard rejected token without subject")
		return nil, ErrUnauthorized
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		g.logger.Info("User in token not found", "user_id", userID)
		return nil, ErrUnauthorized
	}

	if !user.IsActive() {
		g.logger.Info("Guard rejected deactivated user", "user_id", userID)
		return nil, ErrUnauthorized
	}

	live, err := g.sessions.HasLiveSession(ctx, userID)
	if err != nil {
		g.logger.Error("Guard session lookup failed", "user_id", userID, "error", err)
		return nil, ErrUnauthorized
	}
	if !live {
		g.logger.Info("Refresh tokens have all been revoked", "user_id", userID)
		return nil, ErrUnauthorized
	}

	return user, nil
}

// Bind attaches the resolved user to the request context for downstream
// authorization checks.
func (g *SessionGuard) Bind(ctx context.Context, user *User) context.Context {
	return WithContext(ctx, user)
}
