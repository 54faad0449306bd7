package api

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	goerrors "github.com/goliatone/go-errors"
)

// RecoverAddress recovers the wallet that signed message under the EIP-191
// personal-sign convention. The result is checksummed; callers must compare
// addresses in checksummed form, never case-insensitively.
func RecoverAddress(message string, signature string) (common.Address, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return common.Address{}, err
	}

	// Wallets encode the recovery id as 27/28; crypto.SigToPub wants 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, ErrInvalidSignature
	}

	hash := accounts.TextHash([]byte(message))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, goerrors.Wrap(err, ErrInvalidSignature.Category, ErrInvalidSignature.Message).
			WithTextCode(ErrInvalidSignature.TextCode)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

func decodeSignature(signature string) ([]byte, error) {
	if !strings.HasPrefix(signature, "0x") && !strings.HasPrefix(signature, "0X") {
		signature = "0x" + signature
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, goerrors.Wrap(err, ErrInvalidSignature.Category, ErrInvalidSignature.Message).
			WithTextCode(ErrInvalidSignature.TextCode)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, ErrInvalidSignature
	}

	// Copy before mutating the recovery id.
	out := make([]byte, len(sig))
	copy(out, sig)
	return out, nil
}

// ChecksumAddress parses an address string into its EIP-55 checksummed form.
func ChecksumAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, goerrors.New("not a valid wallet address", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return common.HexToAddress(address), nil
}

// SameAddress compares two address strings by checksummed value.
func SameAddress(a, b string) bool {
	aa, err := ChecksumAddress(a)
	if err != nil {
		return false
	}
	bb, err := ChecksumAddress(b)
	if err != nil {
		return false
	}
	return aa == bb
}
