package api

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateMessageInput is the payload for posting a message to a channel.
type CreateMessageInput struct {
	ChannelID uuid.UUID `json:"channel"`
	Content   string    `json:"content"`
}

func (i CreateMessageInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ChannelID, validation.Required),
		validation.Field(&i.Content, validation.Required, validation.Length(1, 4000)),
	)
}

// MessageService persists messages and keeps each channel's last-message mark
// in step with them.
type MessageService struct {
	repos      RepositoryManager
	readStates *ReadStateService
	logger     Logger
	now        func() time.Time
}

func NewMessageService(repos RepositoryManager, readStates *ReadStateService) *MessageService {
	return &MessageService{
		repos:      repos,
		readStates: readStates,
		logger:     defLogger{},
		now:        time.Now,
	}
}

// WithLogger sets the logger instance
func (s *MessageService) WithLogger(logger Logger) *MessageService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateMessage posts a message to a channel the actor can see, then advances
// the channel's last-message mark to the message's timestamp. The mark only
// ever moves forward, so delivery order does not matter.
func (s *MessageService) CreateMessage(ctx context.Context, actor *User, input CreateMessageInput) (*Message, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid message payload").
			WithCode(goerrors.CodeBadRequest)
	}

	channel, err := s.repos.Channels().GetByID(ctx, input.ChannelID, actor.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	message := &Message{
		ChannelID: channel.ID,
		ServerID:  channel.ServerID,
		Content:   input.Content,
		CreatedAt: &now,
	}
	message, err = s.repos.Messages().Create(ctx, message, actor.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.readStates.UpdateChannelLastMessage(ctx, actor, channel.ID, message.TimestampSeconds()); err != nil {
		// The message is durable either way; a lost mark heals on the next one.
		s.logger.Error("update last message mark: %v", err)
	}

	return message, nil
}

// GetChannelMessages lists a channel's most recent messages, newest first.
func (s *MessageService) GetChannelMessages(ctx context.Context, actor *User, channelID uuid.UUID) ([]*Message, error) {
	if _, err := s.repos.Channels().GetByID(ctx, channelID, actor.ID); err != nil {
		return nil, err
	}
	return s.repos.Messages().List(ctx, actor.ID, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.channel_id = ?", channelID).
			OrderExpr("?TableAlias.created_at DESC")
	})
}
