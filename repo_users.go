package api

import (
	"context"
	"time"

	"github.com/MrKevinOConnell/api/repository"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UsersRepository persists wallet-keyed users. Profiles are visible across
// the app, so reads are unscoped; what a caller may do with another user is
// decided at the service layer.
type UsersRepository struct {
	*repository.Repository[*User]
	db bun.IDB
}

var _ UserStore = (*UsersRepository)(nil)

func NewUsersRepository(db *bun.DB, opts ...repository.Option[*User]) *UsersRepository {
	repo := repository.NewRepository(db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	}, opts...)

	return &UsersRepository{
		Repository: repo,
		db:         db,
	}
}

// GetByID resolves a user from the string form of their id.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (*User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrRecordNotFound
	}
	return r.Repository.GetByID(ctx, parsed, uuid.Nil)
}

// GetByAddress resolves a user by checksummed wallet address.
func (r *UsersRepository) GetByAddress(ctx context.Context, address string) (*User, error) {
	checksummed, err := ChecksumAddress(address)
	if err != nil {
		return nil, err
	}
	return r.GetOne(ctx, uuid.Nil, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.wallet_address = ?", checksummed.Hex())
	})
}

// GetOrCreateByAddress resolves the user for an address, provisioning one on
// first authentication. Concurrent first logins race on the unique address
// index; the loser re-reads the winner's row, so no duplicates are created.
func (r *UsersRepository) GetOrCreateByAddress(ctx context.Context, address string, displayName string) (*User, error) {
	checksummed, err := ChecksumAddress(address)
	if err != nil {
		return nil, err
	}

	existing, err := r.GetByAddress(ctx, checksummed.Hex())
	if err == nil {
		return existing, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	now := time.Now()
	record := &User{
		ID:            uuid.New(),
		WalletAddress: checksummed.Hex(),
		DisplayName:   displayName,
		Status:        UserStatusActive,
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}

	res, err := r.db.NewInsert().Model(record).
		On("CONFLICT (wallet_address) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user insert failed")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		// Lost the provisioning race; the row now exists.
		return r.GetByAddress(ctx, checksummed.Hex())
	}

	return record, nil
}

// Deactivate disables the account. Users are never deleted.
func (r *UsersRepository) Deactivate(ctx context.Context, user *User) (*User, error) {
	user.Status = UserStatusDeactivated
	now := time.Now()
	user.UpdatedAt = &now
	return r.Update(ctx, user, "status", "updated_at")
}
