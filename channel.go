package api

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ChannelKind is the kind of conversation a channel holds
type ChannelKind = string

const (
	// ChannelKindDM is a direct conversation between an explicit member list
	ChannelKindDM ChannelKind = "dm"
	// ChannelKindServer is a channel scoped to a server
	ChannelKindServer ChannelKind = "server"
)

// Channel is a DM or server-scoped conversation. DM channels carry an explicit
// member list; server channels reference their server instead. LastMessageTS
// holds epoch seconds and only ever moves forward.
type Channel struct {
	bun.BaseModel `bun:"table:channels,alias:chn"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Kind          ChannelKind `bun:"kind,notnull" json:"kind,omitempty"`
	OwnerID       uuid.UUID   `bun:"owner_id,nullzero,type:uuid" json:"owner,omitempty"`
	Name          string      `bun:"name" json:"name,omitempty"`
	Members       []string    `bun:"members,nullzero" json:"members,omitempty"`
	MemberDigest  string      `bun:"member_digest" json:"-"`
	ServerID      *uuid.UUID  `bun:"server_id,nullzero,type:uuid" json:"server,omitempty"`
	LastMessageTS *float64    `bun:"last_message_ts" json:"last_message_ts,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasMember reports whether the user id appears in the DM member list.
func (c *Channel) HasMember(userID uuid.UUID) bool {
	id := userID.String()
	for _, m := range c.Members {
		if strings.EqualFold(m, id) {
			return true
		}
	}
	return false
}

// MemberSetEquals compares member lists as sets, ignoring order and duplicates.
func (c *Channel) MemberSetEquals(members []string) bool {
	return MemberSetDigest(c.Members) == MemberSetDigest(members)
}

// NormalizeDMMembers ensures the creating user leads the member list,
// inserting them at position 0 when absent.
func NormalizeDMMembers(creator uuid.UUID, members []string) []string {
	id := creator.String()
	for _, m := range members {
		if strings.EqualFold(m, id) {
			return members
		}
	}
	out := make([]string, 0, len(members)+1)
	out = append(out, id)
	out = append(out, members...)
	return out
}

// MemberSetDigest produces a deterministic digest of a member set: lowercase,
// deduplicated, sorted. Equal sets always digest equally, which is what makes
// DM-channel creation idempotent by membership.
func MemberSetDigest(members []string) string {
	seen := make(map[string]struct{}, len(members))
	canonical := make([]string, 0, len(members))
	for _, m := range members {
		key := strings.ToLower(strings.TrimSpace(m))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		canonical = append(canonical, key)
	}
	sort.Strings(canonical)

	sum := sha256.Sum256([]byte(strings.Join(canonical, ",")))
	return hex.EncodeToString(sum[:])
}

// ChannelReadState is one (user, channel) read marker. At most one record
// exists per pair; LastReadTS holds epoch seconds.
type ChannelReadState struct {
	bun.BaseModel `bun:"table:channel_read_states,alias:crs"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid,unique:read_state_user_channel" json:"user,omitempty"`
	ChannelID     uuid.UUID  `bun:"channel_id,notnull,type:uuid,unique:read_state_user_channel" json:"channel,omitempty"`
	LastReadTS    float64    `bun:"last_read_ts,notnull" json:"last_read_ts"`
	MentionCount  int        `bun:"mention_count,notnull,default:0" json:"mention_count"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
