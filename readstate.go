package api

import (
	"context"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/MrKevinOConnell/api/repository"
)

// ReadTimestamp is an epoch-seconds timestamp as received on the wire.
// Browser clients send integer epoch milliseconds while native clients send
// fractional epoch seconds, so integer-syntax JSON literals are divided by
// 1000 during decoding. The stored value is always seconds.
type ReadTimestamp float64

func (t *ReadTimestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return goerrors.New("timestamp is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid timestamp").
			WithCode(goerrors.CodeBadRequest)
	}

	if !strings.ContainsAny(raw, ".eE") {
		// Integer syntax means milliseconds.
		v = v / 1000
	}

	*t = ReadTimestamp(v)
	return nil
}

// Seconds returns the normalized epoch-seconds value.
func (t ReadTimestamp) Seconds() float64 {
	return float64(t)
}

// ReadStateService reconciles per-channel activity markers: the channel's
// last-message high-water mark and each member's read position.
type ReadStateService struct {
	repos  RepositoryManager
	logger Logger
}

func NewReadStateService(repos RepositoryManager) *ReadStateService {
	return &ReadStateService{
		repos:  repos,
		logger: defLogger{},
	}
}

// WithLogger sets the logger instance
func (s *ReadStateService) WithLogger(logger Logger) *ReadStateService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// UpdateChannelLastMessage advances the channel's last_message_ts to the given
// epoch-seconds value if and only if it is greater than the stored one. The
// guard lives in the UPDATE's predicate, so concurrent writers race safely:
// stale values simply match zero rows. Returns whether the mark advanced.
func (s *ReadStateService) UpdateChannelLastMessage(ctx context.Context, actor *User, channelID uuid.UUID, ts float64) (bool, error) {
	channel, err := s.repos.Channels().GetByID(ctx, channelID, actor.ID)
	if err != nil {
		return false, err
	}

	channel.LastMessageTS = &ts
	rows, err := s.repos.Channels().UpdateWhere(ctx, channel, []string{"last_message_ts"},
		func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Where("last_message_ts IS NULL OR last_message_ts < ?", ts)
		},
	)
	if err != nil {
		return false, err
	}
	if rows == 0 {
		s.logger.Debug("last message mark already past %f for channel %s", ts, channelID)
		return false, nil
	}
	return true, nil
}

// UpdateChannelReadState records the user's read position in a channel,
// creating the (user, channel) row on first touch. The write is last-writer-
// wins: older positions overwrite newer ones, which keeps multi-device
// clients free to rewind deliberately.
func (s *ReadStateService) UpdateChannelReadState(ctx context.Context, actor *User, channelID uuid.UUID, lastReadTS ReadTimestamp) (*ChannelReadState, error) {
	if _, err := s.repos.Channels().GetByID(ctx, channelID, actor.ID); err != nil {
		return nil, err
	}

	state := &ChannelReadState{
		ID:         uuid.New(),
		UserID:     actor.ID,
		ChannelID:  channelID,
		LastReadTS: lastReadTS.Seconds(),
	}

	// Concurrent first touches land on the (user, channel) unique pair; the
	// loser's insert degrades into the same last-writer-wins update.
	_, err := s.repos.ReadStates().DB().NewInsert().
		Model(state).
		On("CONFLICT (user_id, channel_id) DO UPDATE").
		Set("last_read_ts = EXCLUDED.last_read_ts").
		Set("mention_count = 0").
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "insert failed")
	}

	return s.repos.ReadStates().GetOne(ctx, actor.ID, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.channel_id = ?", channelID)
	})
}

// MarkChannelsRead applies one read position to several channels. Channels
// the actor cannot see are skipped rather than failing the batch.
func (s *ReadStateService) MarkChannelsRead(ctx context.Context, actor *User, channelIDs []uuid.UUID, lastReadTS ReadTimestamp) ([]*ChannelReadState, error) {
	states := make([]*ChannelReadState, 0, len(channelIDs))
	for _, channelID := range channelIDs {
		state, err := s.UpdateChannelReadState(ctx, actor, channelID, lastReadTS)
		if err != nil {
			if repository.IsRecordNotFound(err) || repository.IsForbidden(err) {
				s.logger.Debug("skipping unreadable channel %s for user %s", channelID, actor.ID)
				continue
			}
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}
