// Package verifier implements wallet signature verification.
package verifier

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/internal/eth"
	"github.com/learnchain/learnchain-api/ports"
)

// EthVerifier validates EIP-191 personal_sign signatures. The signing address
// is always recovered from the signature; the caller-supplied address is only
// compared against it, never trusted.
type EthVerifier struct{}

// NewEthVerifier creates a new Ethereum signature verifier.
func NewEthVerifier() ports.SignatureVerifier {
	return &EthVerifier{}
}

// Verify checks that signature was produced over message by the key
// controlling address. Every failure mode maps to
// core.ErrAuthenticationFailed.
func (v *EthVerifier) Verify(address, message, signature string) error {
	decodedSig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrAuthenticationFailed)
	}
	if len(decodedSig) != 65 {
		return fmt.Errorf("signature must be 65 bytes: %w", core.ErrAuthenticationFailed)
	}

	recovered, err := eth.RecoverAddress([]byte(message), decodedSig)
	if err != nil {
		return fmt.Errorf("failed to recover signer: %w", core.ErrAuthenticationFailed)
	}

	if !strings.EqualFold(recovered.Hex(), address) {
		return fmt.Errorf("recovered address mismatch: %w", core.ErrAuthenticationFailed)
	}

	return nil
}
