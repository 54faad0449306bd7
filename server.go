package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Server is a community; server channels hang off it.
type Server struct {
	bun.BaseModel `bun:"table:servers,alias:srv"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,nullzero,type:uuid" json:"owner,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ServerMember records one user's membership in a server, with per-server
// display overrides.
type ServerMember struct {
	bun.BaseModel `bun:"table:server_members,alias:smb"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ServerID      uuid.UUID  `bun:"server_id,notnull,type:uuid,unique:server_member_pair" json:"server,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid,unique:server_member_pair" json:"user,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	PFP           string     `bun:"pfp" json:"pfp,omitempty"`
	JoinedAt      *time.Time `bun:"joined_at,nullzero,default:current_timestamp" json:"joined_at,omitempty"`
}
