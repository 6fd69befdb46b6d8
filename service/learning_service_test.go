package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/learnchain/learnchain-api/adapters/store"
	"github.com/learnchain/learnchain-api/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type learningFixture struct {
	svc    *LearningService
	ledger *RewardLedger
	issuer *CertificateIssuer
	store  *store.MemoryStore
	quiz   *core.Quiz
}

func newLearningFixture(t *testing.T) *learningFixture {
	t.Helper()

	mem := store.NewMemoryStore()
	ledger := NewRewardLedger(mem, &stubDisburser{txHash: "0xabc"}, nopEvents{})
	issuer := NewCertificateIssuer(mem, nopEvents{})
	svc := NewLearningService(
		mem, mem, mem,
		NewGradingService(),
		ledger,
		issuer,
		decimal.NewFromInt(100),
		decimal.NewFromInt(25),
	)

	quiz := quizOf(5, 70)
	require.NoError(t, mem.PutQuiz(context.Background(), quiz))

	return &learningFixture{svc: svc, ledger: ledger, issuer: issuer, store: mem, quiz: quiz}
}

func TestSubmitQuiz_PassingGrantsRewardAndCertificate(t *testing.T) {
	f := newLearningFixture(t)
	ctx := context.Background()

	result, err := f.svc.SubmitQuiz(ctx, "user-1", f.quiz.ID, answersFor(f.quiz, 4))
	require.NoError(t, err)

	assert.Equal(t, 80, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 4, result.CorrectCount)
	assert.Equal(t, 5, result.TotalQuestions)
	assert.Len(t, result.Feedback, 5)

	require.NotNil(t, result.Reward)
	assert.Equal(t, core.RewardCourseCompletion, result.Reward.Type)
	assert.True(t, decimal.NewFromInt(100).Equal(result.Reward.Amount))

	require.NotNil(t, result.Certificate)
	assert.Equal(t, f.quiz.CourseID, result.Certificate.CourseID)

	attempts, err := f.svc.ListAttempts(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Passed)

	enrollments, err := f.svc.ListEnrollments(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.NotNil(t, enrollments[0].CompletedAt)
}

func TestSubmitQuiz_FailingGrantsNothing(t *testing.T) {
	f := newLearningFixture(t)
	ctx := context.Background()

	result, err := f.svc.SubmitQuiz(ctx, "user-1", f.quiz.ID, answersFor(f.quiz, 2))
	require.NoError(t, err)

	assert.Equal(t, 40, result.Score)
	assert.False(t, result.Passed)
	assert.Nil(t, result.Reward)
	assert.Nil(t, result.Certificate)

	// The failed attempt is still recorded.
	attempts, err := f.svc.ListAttempts(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Passed)

	rewards, err := f.ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, rewards)
}

func TestSubmitQuiz_PerfectScoreAddsBonus(t *testing.T) {
	f := newLearningFixture(t)
	ctx := context.Background()

	result, err := f.svc.SubmitQuiz(ctx, "user-1", f.quiz.ID, answersFor(f.quiz, 5))
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)

	rewards, err := f.ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rewards, 2)

	types := map[core.RewardType]bool{}
	for _, r := range rewards {
		types[r.Type] = true
	}
	assert.True(t, types[core.RewardCourseCompletion])
	assert.True(t, types[core.RewardQuizBonus])
}

func TestSubmitQuiz_ResubmissionKeepsOriginalGrants(t *testing.T) {
	f := newLearningFixture(t)
	ctx := context.Background()

	first, err := f.svc.SubmitQuiz(ctx, "user-1", f.quiz.ID, answersFor(f.quiz, 4))
	require.NoError(t, err)
	second, err := f.svc.SubmitQuiz(ctx, "user-1", f.quiz.ID, answersFor(f.quiz, 5))
	require.NoError(t, err)

	assert.Equal(t, first.Reward.ID, second.Reward.ID)
	assert.Equal(t, first.Certificate.ID, second.Certificate.ID)

	attempts, err := f.svc.ListAttempts(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, attempts, 2)

	certs, err := f.issuer.ListCertificates(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestSubmitQuiz_ConcurrentPassingSubmissions(t *testing.T) {
	f := newLearningFixture(t)
	ctx := context.Background()

	const workers = 16
	results := make([]*SubmissionResult, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := f.svc.SubmitQuiz(ctx, "user-1", f.quiz.ID, answersFor(f.quiz, 4))
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	// Every response references the same single reward and certificate.
	first := results[0]
	require.NotNil(t, first.Reward)
	require.NotNil(t, first.Certificate)
	for _, result := range results[1:] {
		require.NotNil(t, result.Reward)
		require.NotNil(t, result.Certificate)
		assert.Equal(t, first.Reward.ID, result.Reward.ID)
		assert.Equal(t, first.Certificate.ID, result.Certificate.ID)
	}

	rewards, err := f.ledger.ListRewards(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, rewards, 1)

	certs, err := f.issuer.ListCertificates(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, certs, 1)

	attempts, err := f.svc.ListAttempts(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, attempts, workers)
}

// ctxGuardedStore fails grant writes once the given context is done, standing
// in for a network-backed store that honors cancellation.
type ctxGuardedStore struct {
	*store.MemoryStore
}

func (s *ctxGuardedStore) CreateRewardIfAbsent(ctx context.Context, reward *core.Reward) (*core.Reward, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return s.MemoryStore.CreateRewardIfAbsent(ctx, reward)
}

func (s *ctxGuardedStore) CreateCertificateIfAbsent(ctx context.Context, cert *core.Certificate) (*core.Certificate, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return s.MemoryStore.CreateCertificateIfAbsent(ctx, cert)
}

func (s *ctxGuardedStore) MarkEnrollmentCompleted(ctx context.Context, userID, courseID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.MarkEnrollmentCompleted(ctx, userID, courseID, at)
}

// cancelOnAttempt cancels the request context as the attempt is stored,
// simulating a client that disconnects right after grading.
type cancelOnAttempt struct {
	*store.MemoryStore
	cancel context.CancelFunc
}

func (s *cancelOnAttempt) CreateAttempt(ctx context.Context, attempt *core.QuizAttempt) error {
	err := s.MemoryStore.CreateAttempt(ctx, attempt)
	s.cancel()
	return err
}

func TestSubmitQuiz_GrantsSurviveRequestCancellation(t *testing.T) {
	mem := store.NewMemoryStore()
	guarded := &ctxGuardedStore{MemoryStore: mem}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger := NewRewardLedger(guarded, &stubDisburser{txHash: "0xabc"}, nopEvents{})
	issuer := NewCertificateIssuer(guarded, nopEvents{})
	svc := NewLearningService(
		mem,
		&cancelOnAttempt{MemoryStore: mem, cancel: cancel},
		guarded,
		NewGradingService(),
		ledger,
		issuer,
		decimal.NewFromInt(100),
		decimal.NewFromInt(25),
	)

	quiz := quizOf(5, 70)
	require.NoError(t, mem.PutQuiz(context.Background(), quiz))

	result, err := svc.SubmitQuiz(ctx, "user-1", quiz.ID, answersFor(quiz, 4))
	require.NoError(t, err)
	assert.True(t, result.Passed)
	require.NotNil(t, result.Reward)
	require.NotNil(t, result.Certificate)

	enrollments, err := mem.ListEnrollmentsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.NotNil(t, enrollments[0].CompletedAt)
}

func TestSubmitQuiz_IncompleteLeavesNoAttempt(t *testing.T) {
	f := newLearningFixture(t)
	ctx := context.Background()

	answers := answersFor(f.quiz, 5)
	delete(answers, "q3")

	_, err := f.svc.SubmitQuiz(ctx, "user-1", f.quiz.ID, answers)
	require.ErrorIs(t, err, core.ErrIncompleteSubmission)

	attempts, err := f.svc.ListAttempts(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestSubmitQuiz_UnknownQuiz(t *testing.T) {
	f := newLearningFixture(t)

	_, err := f.svc.SubmitQuiz(context.Background(), "user-1", "no-such-quiz", map[string]string{})
	assert.ErrorIs(t, err, core.ErrQuizNotFound)
}

func TestGetQuiz(t *testing.T) {
	f := newLearningFixture(t)

	quiz, err := f.svc.GetQuiz(context.Background(), f.quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, f.quiz.Title, quiz.Title)

	_, err = f.svc.GetQuiz(context.Background(), "no-such-quiz")
	assert.ErrorIs(t, err, core.ErrQuizNotFound)
}

func TestEnroll_Idempotent(t *testing.T) {
	f := newLearningFixture(t)
	ctx := context.Background()

	first, err := f.svc.Enroll(ctx, "user-1", "course-1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := f.svc.Enroll(ctx, "user-1", "course-1")
	require.NoError(t, err)

	assert.Equal(t, first.EnrolledAt, second.EnrolledAt)

	enrollments, err := f.svc.ListEnrollments(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, enrollments, 1)
}
