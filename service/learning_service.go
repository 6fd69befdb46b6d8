package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/internal/metrics"
	"github.com/learnchain/learnchain-api/ports"
	"github.com/shopspring/decimal"
)

// LearningService runs the grading pipeline: it scores a submission, records
// the attempt and, on a pass, drives the idempotent reward and certificate
// grants.
type LearningService struct {
	quizzes     ports.QuizStore
	attempts    ports.AttemptStore
	enrollments ports.EnrollmentStore
	grader      *GradingService
	ledger      *RewardLedger
	issuer      *CertificateIssuer

	completionAmount decimal.Decimal
	bonusAmount      decimal.Decimal
}

// NewLearningService creates a new learning service.
func NewLearningService(
	quizzes ports.QuizStore,
	attempts ports.AttemptStore,
	enrollments ports.EnrollmentStore,
	grader *GradingService,
	ledger *RewardLedger,
	issuer *CertificateIssuer,
	completionAmount, bonusAmount decimal.Decimal,
) *LearningService {
	return &LearningService{
		quizzes:          quizzes,
		attempts:         attempts,
		enrollments:      enrollments,
		grader:           grader,
		ledger:           ledger,
		issuer:           issuer,
		completionAmount: completionAmount,
		bonusAmount:      bonusAmount,
	}
}

// SubmissionResult is the full outcome of one quiz submission. Reward and
// Certificate are null exactly when the attempt did not pass; an infra
// failure after a passing grade is logged but never masks the grade.
type SubmissionResult struct {
	Attempt        *core.QuizAttempt                `json:"attempt"`
	Score          int                              `json:"score"`
	Passed         bool                             `json:"passed"`
	CorrectCount   int                              `json:"correctCount"`
	TotalQuestions int                              `json:"totalQuestions"`
	Feedback       map[string]core.QuestionFeedback `json:"feedback"`
	Reward         *core.Reward                     `json:"reward"`
	Certificate    *core.Certificate                `json:"certificate"`
}

// SubmitQuiz grades a submission and, on a pass, grants the course-completion
// reward and certificate. Re-submissions produce new attempt records but the
// grants are no-ops, returning the original reward and certificate.
func (s *LearningService) SubmitQuiz(ctx context.Context, userID, quizID string, answers map[string]string) (*SubmissionResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if quiz == nil {
		return nil, core.ErrQuizNotFound
	}

	grade, err := s.grader.Grade(quiz, answers)
	if err != nil {
		// Incomplete submissions leave no attempt record.
		metrics.QuizSubmission("rejected")
		return nil, err
	}

	attempt := &core.QuizAttempt{
		ID:               uuid.New().String(),
		UserID:           userID,
		QuizID:           quizID,
		SubmittedAnswers: answers,
		Score:            grade.Score,
		Passed:           grade.Passed,
		CreatedAt:        time.Now(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	result := &SubmissionResult{
		Attempt:        attempt,
		Score:          grade.Score,
		Passed:         grade.Passed,
		CorrectCount:   grade.CorrectCount,
		TotalQuestions: grade.TotalQuestions,
		Feedback:       grade.Feedback,
	}

	if !grade.Passed {
		metrics.QuizSubmission("failed")
		return result, nil
	}
	metrics.QuizSubmission("passed")

	// Everything below must not mask the durably-recorded passing grade, and
	// must survive the client disconnecting once the attempt is stored.
	grantCtx := context.WithoutCancel(ctx)

	if err := s.enrollments.MarkEnrollmentCompleted(grantCtx, userID, quiz.CourseID, time.Now()); err != nil {
		log.Printf("user %s course %s: failed to mark enrollment completed: %v", userID, quiz.CourseID, err)
	}

	reward, err := s.ledger.GrantCourseCompletion(grantCtx, userID, quiz.CourseID, s.completionAmount)
	if err != nil {
		log.Printf("user %s course %s: failed to grant completion reward: %v", userID, quiz.CourseID, err)
	} else {
		result.Reward = reward
	}

	if grade.Score == 100 {
		if _, err := s.ledger.GrantQuizBonus(grantCtx, userID, quiz.CourseID, s.bonusAmount); err != nil {
			log.Printf("user %s course %s: failed to grant quiz bonus: %v", userID, quiz.CourseID, err)
		}
	}

	cert, err := s.issuer.IssueCertificate(grantCtx, userID, quiz.CourseID)
	if err != nil {
		log.Printf("user %s course %s: failed to issue certificate: %v", userID, quiz.CourseID, err)
	} else {
		result.Certificate = cert
	}

	return result, nil
}

// GetQuiz returns a quiz for display. The question type keeps correct
// answers and explanations out of its JSON form, so handlers can serialize
// the result directly.
func (s *LearningService) GetQuiz(ctx context.Context, quizID string) (*core.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if quiz == nil {
		return nil, core.ErrQuizNotFound
	}
	return quiz, nil
}

// Enroll records the user's enrollment in a course; idempotent.
func (s *LearningService) Enroll(ctx context.Context, userID, courseID string) (*core.Enrollment, error) {
	enrollment, _, err := s.enrollments.CreateEnrollmentIfAbsent(ctx, &core.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}
	return enrollment, nil
}

// ListEnrollments returns the user's enrollments.
func (s *LearningService) ListEnrollments(ctx context.Context, userID string) ([]core.Enrollment, error) {
	return s.enrollments.ListEnrollmentsByUser(ctx, userID)
}

// ListAttempts returns the user's quiz attempts.
func (s *LearningService) ListAttempts(ctx context.Context, userID string) ([]core.QuizAttempt, error) {
	return s.attempts.ListAttemptsByUser(ctx, userID)
}
