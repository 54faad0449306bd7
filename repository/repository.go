package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultPageSize bounds list queries when no explicit page size is configured.
// Unbounded list queries are a defect, so every List call carries a limit.
var DefaultPageSize = 10

// SelectCriteria mutates a select query, e.g. to add filters or ordering.
type SelectCriteria func(*bun.SelectQuery) *bun.SelectQuery

// UpdateCriteria mutates an update query, e.g. to add conditional guards.
type UpdateCriteria func(*bun.UpdateQuery) *bun.UpdateQuery

// ModelHandlers captures the per-entity knowledge the generic repository
// needs: how to build records, how to read and assign identity, how to stamp
// ownership, and which rows a given actor is allowed to see.
type ModelHandlers[T any] struct {
	NewRecord func() T
	GetID     func(T) uuid.UUID
	SetID     func(T, uuid.UUID)

	// SetOwner stamps the acting user on create. Entities without an owner
	// field leave it nil.
	SetOwner func(T, uuid.UUID)

	// AccessScope returns the visibility filter for an actor. Reads with a
	// non-nil actor are scoped through it; scoped misses that exist unscoped
	// surface as ErrForbidden rather than ErrRecordNotFound.
	AccessScope func(actor uuid.UUID) SelectCriteria
}

// Repository is a generic CRUD capability over one bun model.
type Repository[T any] struct {
	db       bun.IDB
	handlers ModelHandlers[T]
	pageSize int
}

type Option[T any] func(*Repository[T])

// WithPageSize overrides the default list bound.
func WithPageSize[T any](size int) Option[T] {
	return func(r *Repository[T]) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

func NewRepository[T any](db bun.IDB, handlers ModelHandlers[T], opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{
		db:       db,
		handlers: handlers,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// DB exposes the underlying handle for services that need raw criteria.
func (r *Repository[T]) DB() bun.IDB {
	return r.db
}

// PageSize returns the configured list bound.
func (r *Repository[T]) PageSize() int {
	return r.pageSize
}

// Create persists a record, assigning an ID when absent and stamping the
// owner field with the actor when the entity declares one.
func (r *Repository[T]) Create(ctx context.Context, record T, actor uuid.UUID) (T, error) {
	var zero T

	if r.handlers.GetID(record) == uuid.Nil {
		r.handlers.SetID(record, uuid.New())
	}

	if r.handlers.SetOwner != nil && actor != uuid.Nil {
		r.handlers.SetOwner(record, actor)
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "insert failed")
	}

	return record, nil
}

// GetByID fetches a record by primary key, scoped to what the actor may see.
func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID, actor uuid.UUID) (T, error) {
	byID := func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	}
	return r.getOne(ctx, actor, byID)
}

// GetOne returns the first record matching the criteria within the actor's scope.
func (r *Repository[T]) GetOne(ctx context.Context, actor uuid.UUID, criteria ...SelectCriteria) (T, error) {
	return r.getOne(ctx, actor, criteria...)
}

func (r *Repository[T]) getOne(ctx context.Context, actor uuid.UUID, criteria ...SelectCriteria) (T, error) {
	var zero T

	record := r.handlers.NewRecord()
	q := r.db.NewSelect().Model(record)
	for _, c := range criteria {
		q = q.Apply(c)
	}

	scoped := false
	if r.handlers.AccessScope != nil && actor != uuid.Nil {
		q = q.Apply(r.handlers.AccessScope(actor))
		scoped = true
	}

	err := q.Limit(1).Scan(ctx)
	if err == nil {
		return record, nil
	}

	if !isNoRows(err) {
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "select failed")
	}

	if scoped {
		// Distinguish "does not exist" from "exists outside your scope".
		unscoped := r.db.NewSelect().Model(r.handlers.NewRecord())
		for _, c := range criteria {
			unscoped = unscoped.Apply(c)
		}
		exists, exErr := unscoped.Exists(ctx)
		if exErr == nil && exists {
			return zero, ErrForbidden
		}
	}

	return zero, ErrRecordNotFound
}

// List returns records matching the criteria within the actor's scope. The
// result is always bounded by the configured page size; criteria may add
// ordering but cannot remove the bound.
func (r *Repository[T]) List(ctx context.Context, actor uuid.UUID, criteria ...SelectCriteria) ([]T, error) {
	records := make([]T, 0, r.pageSize)

	q := r.db.NewSelect().Model(&records)
	for _, c := range criteria {
		q = q.Apply(c)
	}
	if r.handlers.AccessScope != nil && actor != uuid.Nil {
		q = q.Apply(r.handlers.AccessScope(actor))
	}

	if err := q.Limit(r.pageSize).Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "select failed")
	}

	return records, nil
}

// Update writes only the named columns of the record, keyed by primary key,
// and returns the post-update row.
func (r *Repository[T]) Update(ctx context.Context, record T, columns ...string) (T, error) {
	var zero T

	q := r.db.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}

	if _, err := q.Exec(ctx); err != nil {
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "update failed")
	}

	return r.reload(ctx, r.handlers.GetID(record))
}

// UpdateWhere writes the named columns only when every extra criteria holds,
// returning the number of rows changed. This is the compare-and-set primitive
// monotonic fields rely on; concurrent losers simply report zero rows.
func (r *Repository[T]) UpdateWhere(ctx context.Context, record T, columns []string, criteria ...UpdateCriteria) (int64, error) {
	q := r.db.NewUpdate().Model(record).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	for _, c := range criteria {
		q = q.Apply(c)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "conditional update failed")
	}

	return res.RowsAffected()
}

// Delete removes the record by primary key. Hard delete, no tombstones.
func (r *Repository[T]) Delete(ctx context.Context, record T) error {
	if _, err := r.db.NewDelete().Model(record).WherePK().Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "delete failed")
	}
	return nil
}

func (r *Repository[T]) reload(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T

	record := r.handlers.NewRecord()
	err := r.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return zero, ErrRecordNotFound
		}
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "select failed")
	}

	return record, nil
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
