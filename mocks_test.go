package api_test

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	api "github.com/MrKevinOConnell/api"
)

// MockUserStore implements api.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*api.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*api.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetOrCreateByAddress(ctx context.Context, address string, displayName string) (*api.User, error) {
	args := m.Called(ctx, address, displayName)
	user, _ := args.Get(0).(*api.User)
	return user, args.Error(1)
}

// MockSessionStore implements api.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Persist(ctx context.Context, record *api.RefreshToken) (*api.RefreshToken, error) {
	args := m.Called(ctx, record)
	rec, _ := args.Get(0).(*api.RefreshToken)
	return rec, args.Error(1)
}

func (m *MockSessionStore) HasLiveSession(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) RevokeAll(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockNameResolver implements api.NameResolver
type MockNameResolver struct {
	mock.Mock
}

func (m *MockNameResolver) PrimaryName(ctx context.Context, address string) (string, error) {
	args := m.Called(ctx, address)
	return args.String(0), args.Error(1)
}

// testConfig implements api.Config for tests
type testConfig struct {
	signingKey      string
	issuer          string
	accessMinutes   int
	refreshMinutes  int
	maxChallengeAge time.Duration
	pageSize        int
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key",
		issuer:          "test-issuer",
		accessMinutes:   60,
		refreshMinutes:  10080,
		maxChallengeAge: 5 * time.Minute,
		pageSize:        10,
	}
}

func (c *testConfig) GetSigningKey() string             { return c.signingKey }
func (c *testConfig) GetIssuer() string                 { return c.issuer }
func (c *testConfig) GetAccessTokenMinutes() int        { return c.accessMinutes }
func (c *testConfig) GetRefreshTokenMinutes() int       { return c.refreshMinutes }
func (c *testConfig) GetMaxChallengeAge() time.Duration { return c.maxChallengeAge }
func (c *testConfig) GetPageSize() int                  { return c.pageSize }
func (c *testConfig) GetDatabaseDSN() string            { return "file::memory:?cache=shared" }
func (c *testConfig) GetChainRPCURL() string            { return "" }
func (c *testConfig) GetENSCacheCapacity() int          { return 16 }
func (c *testConfig) GetENSCacheTTL() time.Duration     { return time.Hour }

// testWallet is a throwaway key pair plus signing helpers
type testWallet struct {
	key     *ecdsa.PrivateKey
	Address string
}

func newTestWallet(t *testing.T) *testWallet {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return &testWallet{
		key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}
}

// Sign produces an EIP-191 personal-sign signature over the text, with the
// 27/28 recovery byte wallets emit.
func (w *testWallet) Sign(t *testing.T, text string) string {
	t.Helper()

	sig, err := crypto.Sign(accounts.TextHash([]byte(text)), w.key)
	require.NoError(t, err)

	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

// SignedChallenge builds a fresh challenge message and its signature.
func (w *testWallet) SignedChallenge(t *testing.T) (api.ChallengeMessage, string) {
	t.Helper()

	message := api.ChallengeMessage{
		Address:  w.Address,
		SignedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return message, w.Sign(t, message.SignTexts()[0])
}
