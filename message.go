package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MessageReaction is an emoji tally embedded in its message.
type MessageReaction struct {
	Emoji string   `json:"emoji"`
	Count int      `json:"count"`
	Users []string `json:"users,omitempty"`
}

// Message is consumed by the read-state reconciler, which only compares its
// creation timestamp against the channel's last_message_ts.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:msg"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ChannelID     uuid.UUID         `bun:"channel_id,notnull,type:uuid" json:"channel,omitempty"`
	ServerID      *uuid.UUID        `bun:"server_id,nullzero,type:uuid" json:"server,omitempty"`
	AuthorID      uuid.UUID         `bun:"author_id,nullzero,type:uuid" json:"author,omitempty"`
	Content       string            `bun:"content" json:"content"`
	Reactions     []MessageReaction `bun:"reactions,nullzero" json:"reactions,omitempty"`
	EditedAt      *time.Time        `bun:"edited_at,nullzero" json:"edited_at,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// TimestampSeconds converts the message creation time to float epoch seconds,
// the unit channels and read states store.
func (m *Message) TimestampSeconds() float64 {
	if m.CreatedAt == nil {
		return 0
	}
	return float64(m.CreatedAt.UTC().UnixNano()) / float64(time.Second)
}
