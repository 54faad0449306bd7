package api_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/MrKevinOConnell/api"
)

func TestRecoverAddress(t *testing.T) {
	wallet := newTestWallet(t)
	text := `{"address":"` + wallet.Address + `","signed_at":"2026-08-31T12:00:00Z"}`

	t.Run("recovers the signer address", func(t *testing.T) {
		sig := wallet.Sign(t, text)

		recovered, err := api.RecoverAddress(text, sig)
		require.NoError(t, err)
		assert.Equal(t, wallet.Address, recovered.Hex())
	})

	t.Run("different message recovers a different address", func(t *testing.T) {
		sig := wallet.Sign(t, text)

		recovered, err := api.RecoverAddress(text+"tampered", sig)
		if err == nil {
			assert.NotEqual(t, wallet.Address, recovered.Hex())
		}
	})

	t.Run("signature from another key does not match", func(t *testing.T) {
		other := newTestWallet(t)
		sig := other.Sign(t, text)

		recovered, err := api.RecoverAddress(text, sig)
		require.NoError(t, err)
		assert.NotEqual(t, wallet.Address, recovered.Hex())
	})

	t.Run("accepts signature without 0x prefix", func(t *testing.T) {
		sig := strings.TrimPrefix(wallet.Sign(t, text), "0x")

		recovered, err := api.RecoverAddress(text, sig)
		require.NoError(t, err)
		assert.Equal(t, wallet.Address, recovered.Hex())
	})

	t.Run("rejects malformed hex", func(t *testing.T) {
		_, err := api.RecoverAddress(text, "0xzznothex")
		assert.Error(t, err)
	})

	t.Run("rejects short signature", func(t *testing.T) {
		_, err := api.RecoverAddress(text, "0xdeadbeef")
		assert.Error(t, err)
	})
}

func TestChecksumAddress(t *testing.T) {
	t.Run("normalizes casing to EIP-55", func(t *testing.T) {
		wallet := newTestWallet(t)

		addr, err := api.ChecksumAddress(strings.ToLower(wallet.Address))
		require.NoError(t, err)
		assert.Equal(t, wallet.Address, addr.Hex())
	})

	t.Run("rejects non-address input", func(t *testing.T) {
		_, err := api.ChecksumAddress("not-an-address")
		assert.Error(t, err)
	})
}

func TestSameAddress(t *testing.T) {
	wallet := newTestWallet(t)

	assert.True(t, api.SameAddress(wallet.Address, strings.ToLower(wallet.Address)))
	assert.False(t, api.SameAddress(wallet.Address, newTestWallet(t).Address))
}

func TestShortAddress(t *testing.T) {
	short := api.ShortAddress("0x1234567890abcdef1234567890abcdef12345678")
	assert.Equal(t, "0x123...678", short)
}
