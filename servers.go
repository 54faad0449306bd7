package api

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/MrKevinOConnell/api/repository"
)

// CreateServerInput is the payload for creating a server.
type CreateServerInput struct {
	Name string `json:"name"`
}

func (i CreateServerInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.Length(1, 100)),
	)
}

// ServerService manages servers and their memberships.
type ServerService struct {
	repos  RepositoryManager
	logger Logger
	now    func() time.Time
}

func NewServerService(repos RepositoryManager) *ServerService {
	return &ServerService{
		repos:  repos,
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger sets the logger instance
func (s *ServerService) WithLogger(logger Logger) *ServerService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateServer creates a server owned by the actor and enrolls them as its
// first member, so the new server is immediately visible to its creator.
func (s *ServerService) CreateServer(ctx context.Context, actor *User, input CreateServerInput) (*Server, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid server payload").
			WithCode(goerrors.CodeBadRequest)
	}

	server, err := s.repos.Servers().Create(ctx, &Server{Name: input.Name}, actor.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.enroll(ctx, server.ID, actor); err != nil {
		return nil, err
	}
	return server, nil
}

// JoinServer enrolls the actor in a server. Joining twice is a no-op that
// returns the existing membership.
func (s *ServerService) JoinServer(ctx context.Context, actor *User, serverID uuid.UUID) (*ServerMember, error) {
	// Membership lookups must not go through the actor's scope: the whole
	// point is that the actor is not a member yet.
	exists, err := s.repos.Servers().DB().NewSelect().
		Model((*Server)(nil)).
		Where("?TableAlias.id = ?", serverID).
		Exists(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "select failed")
	}
	if !exists {
		return nil, repository.ErrRecordNotFound
	}

	return s.enroll(ctx, serverID, actor)
}

func (s *ServerService) enroll(ctx context.Context, serverID uuid.UUID, user *User) (*ServerMember, error) {
	joined := s.now().UTC()
	member := &ServerMember{
		ID:          uuid.New(),
		ServerID:    serverID,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		PFP:         user.PFP,
		JoinedAt:    &joined,
	}

	// Concurrent joins land on the (server, user) unique pair; the loser
	// re-reads the winner's row.
	res, err := s.repos.ServerMembers().DB().NewInsert().
		Model(member).
		On("CONFLICT (server_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "insert failed")
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		s.logger.Debug("user %s already member of server %s", user.ID, serverID)
		existing := &ServerMember{}
		err := s.repos.ServerMembers().DB().NewSelect().
			Model(existing).
			Where("?TableAlias.server_id = ? AND ?TableAlias.user_id = ?", serverID, user.ID).
			Limit(1).
			Scan(ctx)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "select failed")
		}
		return existing, nil
	}

	return member, nil
}

// GetServers lists the servers the actor owns or belongs to.
func (s *ServerService) GetServers(ctx context.Context, actor *User) ([]*Server, error) {
	return s.repos.Servers().List(ctx, actor.ID)
}

// GetServerMembers lists the members of a server the actor can see.
func (s *ServerService) GetServerMembers(ctx context.Context, actor *User, serverID uuid.UUID) ([]*ServerMember, error) {
	if _, err := s.repos.Servers().GetByID(ctx, serverID, actor.ID); err != nil {
		return nil, err
	}
	return s.repos.ServerMembers().List(ctx, actor.ID, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.server_id = ?", serverID)
	})
}
