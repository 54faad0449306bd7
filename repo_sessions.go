package api

import (
	"context"
	"time"

	"github.com/MrKevinOConnell/api/repository"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionsRepository persists refresh-token records and answers the guard's
// revocation checks.
type SessionsRepository struct {
	*repository.Repository[*RefreshToken]
	db bun.IDB
}

var _ SessionStore = (*SessionsRepository)(nil)

func NewSessionsRepository(db *bun.DB, opts ...repository.Option[*RefreshToken]) *SessionsRepository {
	repo := repository.NewRepository(db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(t *RefreshToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *RefreshToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		AccessScope: func(actor uuid.UUID) repository.SelectCriteria {
			return func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.user_id = ?", actor)
			}
		},
	}, opts...)

	return &SessionsRepository{
		Repository: repo,
		db:         db,
	}
}

// Persist stores one issued session record.
func (r *SessionsRepository) Persist(ctx context.Context, record *RefreshToken) (*RefreshToken, error) {
	return r.Create(ctx, record, uuid.Nil)
}

// HasLiveSession reports whether the user holds at least one unrevoked,
// unexpired refresh-token record.
func (r *SessionsRepository) HasLiveSession(ctx context.Context, userID string) (bool, error) {
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return false, nil
	}

	exists, err := r.db.NewSelect().Model((*RefreshToken)(nil)).
		Where("?TableAlias.user_id = ?", parsed).
		Where("?TableAlias.revoked_at IS NULL").
		Where("?TableAlias.expires_at > ?", time.Now()).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "session lookup failed")
	}
	return exists, nil
}

// RevokeAll marks every live session for the user revoked ("log out
// everywhere"). Still-unexpired access tokens fail the guard afterwards.
func (r *SessionsRepository) RevokeAll(ctx context.Context, userID string) error {
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}

	_, err = r.db.NewUpdate().Model((*RefreshToken)(nil)).
		Set("revoked_at = ?", time.Now()).
		Where("user_id = ?", parsed).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "session revocation failed")
	}
	return nil
}
