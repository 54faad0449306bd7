package api

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

// ChallengeMessage is the payload a wallet signs to prove address ownership.
// The challenge itself is stateless: it is validated purely by signature and,
// when policy enforces it, freshness of SignedAt.
type ChallengeMessage struct {
	Address  string `json:"address" form:"address"`
	SignedAt string `json:"signed_at" form:"signed_at"`
}

// Validate will validate the payload
func (m ChallengeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Address, validation.Required, validation.By(validWalletAddress)),
		validation.Field(&m.SignedAt, validation.Required, validation.Date(time.RFC3339)),
	)
}

func validWalletAddress(value interface{}) error {
	s, _ := value.(string)
	if !common.IsHexAddress(s) {
		return fmt.Errorf("must be a hex wallet address")
	}
	return nil
}

// SignedTime parses the ISO-8601 signing timestamp.
func (m ChallengeMessage) SignedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, m.SignedAt)
}

// SignTexts returns the candidate encodings of the challenge as wallets sign
// it: compact JSON (JSON.stringify) and space-separated JSON (json.dumps).
// Recovery tries each until one yields the claimed address.
func (m ChallengeMessage) SignTexts() []string {
	return []string{
		fmt.Sprintf(`{"address":%q,"signed_at":%q}`, m.Address, m.SignedAt),
		fmt.Sprintf(`{"address": %q, "signed_at": %q}`, m.Address, m.SignedAt),
	}
}
