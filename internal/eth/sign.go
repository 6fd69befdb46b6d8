// Package eth provides Ethereum address and EIP-191 signature helpers.
package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NormalizeAddress validates a hex wallet address and returns its EIP-55
// checksummed form. Comparison between normalized addresses is exact.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("not a hex address: %q", address)
	}
	return common.HexToAddress(address).Hex(), nil
}

// TextHash computes the EIP-191 personal_sign digest of a message:
// keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
func TextHash(message []byte) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}

// RecoverAddress recovers the signing address from a 65-byte personal_sign
// signature over message. Both the raw (v in {0,1}) and the wallet
// (v in {27,28}) recovery id encodings are accepted.
func RecoverAddress(message, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] != 0 && sig[64] != 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id: %d", signature[64])
	}

	pub, err := crypto.SigToPub(TextHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}
