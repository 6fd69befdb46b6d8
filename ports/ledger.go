package ports

import (
	"context"
	"time"

	"github.com/learnchain/learnchain-api/core"
)

// QuizStore holds the quiz catalog. Read-only to the grading pipeline.
type QuizStore interface {
	PutQuiz(ctx context.Context, quiz *core.Quiz) error

	// GetQuiz returns (nil, nil) when the quiz does not exist.
	GetQuiz(ctx context.Context, id string) (*core.Quiz, error)
}

// AttemptStore appends immutable quiz attempt records.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt *core.QuizAttempt) error
	ListAttemptsByUser(ctx context.Context, userID string) ([]core.QuizAttempt, error)
}

// RewardStore persists rewards under the (userId, courseId, type) uniqueness
// invariant. The insert is the synchronization point: implementations must
// guarantee that concurrent inserts for the same key produce exactly one row.
type RewardStore interface {
	// CreateRewardIfAbsent inserts the reward unless one already exists for
	// its (UserID, CourseID, Type). It returns the stored reward and whether
	// this call created it.
	CreateRewardIfAbsent(ctx context.Context, reward *core.Reward) (*core.Reward, bool, error)

	// UpdateRewardStatus persists the reward's current Status and TxHash for
	// the row identified by its (UserID, CourseID, Type).
	UpdateRewardStatus(ctx context.Context, reward *core.Reward) error

	ListRewardsByUser(ctx context.Context, userID string) ([]core.Reward, error)
}

// CertificateStore persists certificates under the (userId, courseId)
// uniqueness invariant and a globally unique verification code.
type CertificateStore interface {
	// CreateCertificateIfAbsent inserts the certificate unless one already
	// exists for its (UserID, CourseID), returning the stored certificate and
	// whether this call created it. It returns core.ErrCodeConflict when the
	// verification code is already reserved by another certificate, so the
	// caller can regenerate the code and retry.
	CreateCertificateIfAbsent(ctx context.Context, cert *core.Certificate) (*core.Certificate, bool, error)

	// GetCertificateByCode returns (nil, nil) when the code is unknown.
	GetCertificateByCode(ctx context.Context, code string) (*core.Certificate, error)

	ListCertificatesByUser(ctx context.Context, userID string) ([]core.Certificate, error)
}

// EnrollmentStore persists course enrollments, one per (userId, courseId).
type EnrollmentStore interface {
	// CreateEnrollmentIfAbsent inserts the enrollment unless one exists,
	// returning the stored enrollment and whether this call created it.
	CreateEnrollmentIfAbsent(ctx context.Context, enrollment *core.Enrollment) (*core.Enrollment, bool, error)

	// MarkEnrollmentCompleted sets the completion time, enrolling first if
	// needed. Idempotent: an already-completed enrollment keeps its original
	// completion time.
	MarkEnrollmentCompleted(ctx context.Context, userID, courseID string, at time.Time) error

	ListEnrollmentsByUser(ctx context.Context, userID string) ([]core.Enrollment, error)
}
