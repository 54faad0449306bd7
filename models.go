package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the user's lifecycle status
type UserStatus = string

const (
	// UserStatusActive is a live account
	UserStatusActive UserStatus = "active"
	// UserStatusDeactivated is a disabled account; users are never deleted
	UserStatusDeactivated UserStatus = "deactivated"
)

// User is keyed by checksummed wallet address. Created on first successful
// authentication, deactivated rather than deleted.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	WalletAddress string     `bun:"wallet_address,notnull,unique" json:"wallet_address,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	EnsName       string     `bun:"ens_name" json:"ens_name,omitempty"`
	PFP           string     `bun:"pfp" json:"pfp,omitempty"`
	Status        UserStatus `bun:"status,notnull,default:'active'" json:"status,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// ShortAddress renders the 0x123...abc form used as a display fallback when
// no ENS name resolves.
func (u *User) ShortAddress() string {
	return ShortAddress(u.WalletAddress)
}

// ShortAddress shortens a checksummed wallet address for display.
func ShortAddress(address string) string {
	if len(address) < 8 {
		return address
	}
	return fmt.Sprintf("%s...%s", address[:5], address[len(address)-3:])
}

// RefreshToken is a persisted session marker. Its existence, unrevoked and
// unexpired, is what the revocation check consults: a user with zero live
// records fails authenticated requests even with a valid access token.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rft"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	IssuedAt      time.Time  `bun:"issued_at,notnull" json:"issued_at,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero" json:"revoked_at,omitempty"`
}

// Live reports whether this session still counts against revocation checks.
func (t *RefreshToken) Live(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}
