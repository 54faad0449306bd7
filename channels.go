package api

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/MrKevinOConnell/api/repository"
)

// CreateChannelInput is the single payload for channel creation; Kind selects
// which of the remaining fields matter.
type CreateChannelInput struct {
	Kind     ChannelKind `json:"kind"`
	Name     string      `json:"name,omitempty"`
	Members  []string    `json:"members,omitempty"`
	ServerID *uuid.UUID  `json:"server,omitempty"`
}

func (i CreateChannelInput) Validate() error {
	fields := []*validation.FieldRules{
		validation.Field(&i.Kind, validation.Required, validation.In(ChannelKindDM, ChannelKindServer)),
	}

	switch i.Kind {
	case ChannelKindDM:
		fields = append(fields, validation.Field(&i.Members, validation.Required))
	case ChannelKindServer:
		fields = append(fields,
			validation.Field(&i.Name, validation.Required),
			validation.Field(&i.ServerID, validation.NotNil),
		)
	}

	return validation.ValidateStruct(&i, fields...)
}

// ChannelService manages DM and server channels on top of the repository
// layer. All reads and writes run under the acting user's visibility scope.
type ChannelService struct {
	repos  RepositoryManager
	logger Logger
}

func NewChannelService(repos RepositoryManager) *ChannelService {
	return &ChannelService{
		repos:  repos,
		logger: defLogger{},
	}
}

// WithLogger sets the logger instance
func (s *ChannelService) WithLogger(logger Logger) *ChannelService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateChannel dispatches on the input's kind.
func (s *ChannelService) CreateChannel(ctx context.Context, actor *User, input CreateChannelInput) (*Channel, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid channel payload").
			WithCode(goerrors.CodeBadRequest)
	}

	switch input.Kind {
	case ChannelKindDM:
		return s.CreateDMChannel(ctx, actor, input.Members)
	case ChannelKindServer:
		return s.CreateServerChannel(ctx, actor, *input.ServerID, input.Name)
	default:
		return nil, goerrors.New("unexpected channel kind: "+input.Kind, goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
}

// CreateDMChannel creates a direct channel for the given member set, always
// including the actor. Creation is idempotent by membership: if the actor
// already owns a DM channel with the exact same member set, that channel is
// returned instead of a new one.
func (s *ChannelService) CreateDMChannel(ctx context.Context, actor *User, members []string) (*Channel, error) {
	normalized := NormalizeDMMembers(actor.ID, members)
	digest := MemberSetDigest(normalized)

	existing, err := s.repos.Channels().GetOne(ctx, actor.ID, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.kind = ?", ChannelKindDM).
			Where("?TableAlias.owner_id = ?", actor.ID).
			Where("?TableAlias.member_digest = ?", digest)
	})
	if err == nil && existing.MemberSetEquals(normalized) {
		s.logger.Debug("dm channel already exists: %s", existing.ID)
		return existing, nil
	}
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}

	channel := &Channel{
		Kind:         ChannelKindDM,
		Members:      normalized,
		MemberDigest: digest,
	}
	return s.repos.Channels().Create(ctx, channel, actor.ID)
}

// CreateServerChannel creates a named channel inside a server the actor can
// see. The server lookup runs scoped, so non-members get the usual
// forbidden-or-not-found answer.
func (s *ChannelService) CreateServerChannel(ctx context.Context, actor *User, serverID uuid.UUID, name string) (*Channel, error) {
	server, err := s.repos.Servers().GetByID(ctx, serverID, actor.ID)
	if err != nil {
		return nil, err
	}

	channel := &Channel{
		Kind:     ChannelKindServer,
		Name:     name,
		ServerID: &server.ID,
	}
	return s.repos.Channels().Create(ctx, channel, actor.ID)
}

// GetServerChannels lists the channels of one server, scoped to the actor.
func (s *ChannelService) GetServerChannels(ctx context.Context, actor *User, serverID uuid.UUID) ([]*Channel, error) {
	return s.repos.Channels().List(ctx, actor.ID, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.server_id = ?", serverID)
	})
}

// GetDMChannels lists the direct channels the actor belongs to.
func (s *ChannelService) GetDMChannels(ctx context.Context, actor *User) ([]*Channel, error) {
	return s.repos.Channels().List(ctx, actor.ID, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.kind = ?", ChannelKindDM).
			Where("?TableAlias.members LIKE ?", memberPattern(actor.ID))
	})
}

// DeleteChannel removes a server channel. The actor must own both the channel
// and its server; DM channels can never be deleted.
func (s *ChannelService) DeleteChannel(ctx context.Context, actor *User, channelID uuid.UUID) error {
	channel, err := s.repos.Channels().GetByID(ctx, channelID, actor.ID)
	if err != nil {
		return err
	}

	switch channel.Kind {
	case ChannelKindServer:
		if channel.ServerID == nil {
			return goerrors.New("server channel without server", goerrors.CategoryInternal)
		}
		server, err := s.repos.Servers().GetByID(ctx, *channel.ServerID, actor.ID)
		if err != nil {
			return err
		}
		if channel.OwnerID != actor.ID || server.OwnerID != actor.ID {
			return ErrForbidden
		}
	case ChannelKindDM:
		return ErrForbidden
	default:
		return goerrors.New("unexpected channel kind: "+channel.Kind, goerrors.CategoryInternal)
	}

	return s.repos.Channels().Delete(ctx, channel)
}
