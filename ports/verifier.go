package ports

// SignatureVerifier validates that a signature was produced by the private key
// controlling the claimed wallet address, over the exact message. It fails
// closed: any malformed input is a verification failure
// (core.ErrAuthenticationFailed), never a panic or a pass.
type SignatureVerifier interface {
	Verify(address, message, signature string) error
}
