package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/internal/metrics"
	"github.com/learnchain/learnchain-api/ports"
)

// Verification codes use Crockford's base32 alphabet: case-insensitive,
// no I, L, O or U, and 32 symbols so random bytes map without modulo bias.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	codeLength      = 10
	maxCodeAttempts = 5
)

// CertificateIssuer mints completion certificates at most once per
// (user, course), mirroring the reward ledger's idempotency.
type CertificateIssuer struct {
	certs  ports.CertificateStore
	events ports.EventPublisher
}

// NewCertificateIssuer creates a new certificate issuer.
func NewCertificateIssuer(certs ports.CertificateStore, events ports.EventPublisher) *CertificateIssuer {
	return &CertificateIssuer{certs: certs, events: events}
}

// IssueCertificate mints a certificate for (userID, courseID), returning the
// existing one unchanged when already issued. A verification-code collision
// regenerates the code rather than failing the issuance.
func (i *CertificateIssuer) IssueCertificate(ctx context.Context, userID, courseID string) (*core.Certificate, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newVerificationCode()
		if err != nil {
			return nil, err
		}

		cert := &core.Certificate{
			ID:               uuid.New().String(),
			UserID:           userID,
			CourseID:         courseID,
			VerificationCode: code,
			IssuedAt:         time.Now(),
		}

		stored, created, err := i.certs.CreateCertificateIfAbsent(ctx, cert)
		if errors.Is(err, core.ErrCodeConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to issue certificate: %w", err)
		}

		if created {
			metrics.CertificateIssued()
			if err := i.events.PublishCertificateIssued(ctx, stored); err != nil {
				log.Printf("warning: failed to publish certificate event: %v", err)
			}
		}

		return stored, nil
	}

	return nil, fmt.Errorf("failed to allocate a unique verification code after %d attempts", maxCodeAttempts)
}

// ListCertificates returns the user's certificates.
func (i *CertificateIssuer) ListCertificates(ctx context.Context, userID string) ([]core.Certificate, error) {
	return i.certs.ListCertificatesByUser(ctx, userID)
}

func newVerificationCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}

// VerificationResult is the outcome of a public certificate lookup.
type VerificationResult struct {
	Valid       bool              `json:"valid"`
	Certificate *core.Certificate `json:"certificate,omitempty"`
}

// VerificationService resolves certificates by their public code. Pure read,
// no authentication, no side effects.
type VerificationService struct {
	certs ports.CertificateStore
}

// NewVerificationService creates a new verification service.
func NewVerificationService(certs ports.CertificateStore) *VerificationService {
	return &VerificationService{certs: certs}
}

// Lookup resolves a code. Malformed and unknown codes both yield
// {valid: false}, so the response never reveals which one it was.
func (s *VerificationService) Lookup(ctx context.Context, code string) (*VerificationResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if !wellFormedCode(normalized) {
		metrics.CertificateLookup(false)
		return &VerificationResult{Valid: false}, nil
	}

	cert, err := s.certs.GetCertificateByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}
	if cert == nil {
		metrics.CertificateLookup(false)
		return &VerificationResult{Valid: false}, nil
	}

	metrics.CertificateLookup(true)
	return &VerificationResult{Valid: true, Certificate: cert}, nil
}

func wellFormedCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}
