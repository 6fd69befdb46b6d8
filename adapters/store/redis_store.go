package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/learnchain/learnchain-api/core"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of every store port. The uniqueness
// invariants ride on single-key atomic primitives: GETDEL for challenge
// consumption, SETNX/HSETNX for first-writer-wins grants.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "learnchain:",
	}
}

func (s *RedisStore) challengeKey(address string) string {
	return s.prefix + "challenge:" + strings.ToLower(address)
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *RedisStore) userKey(address string) string {
	return s.prefix + "user:" + strings.ToLower(address)
}

func (s *RedisStore) quizKey(id string) string {
	return s.prefix + "quiz:" + id
}

func (s *RedisStore) attemptsKey(userID string) string {
	return s.prefix + "attempts:" + userID
}

func (s *RedisStore) rewardsKey(userID string) string {
	return s.prefix + "rewards:" + userID
}

func (s *RedisStore) certsKey(userID string) string {
	return s.prefix + "certificates:" + userID
}

func (s *RedisStore) certCodeKey(code string) string {
	return s.prefix + "certcode:" + code
}

func (s *RedisStore) enrollmentsKey(userID string) string {
	return s.prefix + "enrollments:" + userID
}

// PutChallenge stores a challenge, overwriting any prior one for the address.
// The key is retained past the challenge expiry so an expired consumption
// reads as expired rather than missing; TakeChallenge checks ExpiresAt.
func (s *RedisStore) PutChallenge(ctx context.Context, challenge *core.Challenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	retention := 2 * time.Until(challenge.ExpiresAt)
	if retention <= 0 {
		retention = time.Minute
	}

	if err := s.client.Set(ctx, s.challengeKey(challenge.Address), payload, retention).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// TakeChallenge atomically retrieves and deletes the challenge via GETDEL, so
// two concurrent consumption attempts can never both succeed.
func (s *RedisStore) TakeChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	payload, err := s.client.GetDel(ctx, s.challengeKey(address)).Result()
	if err == redis.Nil {
		return nil, core.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take challenge: %w", err)
	}

	var challenge core.Challenge
	if err := json.Unmarshal([]byte(payload), &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	if challenge.Expired(time.Now()) {
		return nil, core.ErrChallengeExpired
	}

	return &challenge, nil
}

// PutSession stores a session record with the given TTL.
func (s *RedisStore) PutSession(ctx context.Context, session *core.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// GetSession returns (nil, nil) when the record is absent or evicted.
func (s *RedisStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	payload, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a session record; idempotent.
func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// FindOrCreateUser creates the user with SETNX; the loser of a concurrent
// create reads the winner's record.
func (s *RedisStore) FindOrCreateUser(ctx context.Context, address string) (*core.User, error) {
	user := &core.User{
		ID:            newID(),
		WalletAddress: address,
		CreatedAt:     time.Now(),
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.userKey(address), payload, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created {
		return user, nil
	}

	return s.GetUserByAddress(ctx, address)
}

// GetUserByAddress returns (nil, nil) when no user exists for the address.
func (s *RedisStore) GetUserByAddress(ctx context.Context, address string) (*core.User, error) {
	payload, err := s.client.Get(ctx, s.userKey(address)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user core.User
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// PutQuiz stores a quiz in the catalog.
func (s *RedisStore) PutQuiz(ctx context.Context, quiz *core.Quiz) error {
	payload, err := json.Marshal(redisQuiz{Quiz: *quiz, Answers: quizAnswers(quiz)})
	if err != nil {
		return fmt.Errorf("failed to marshal quiz: %w", err)
	}

	if err := s.client.Set(ctx, s.quizKey(quiz.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store quiz: %w", err)
	}
	return nil
}

// GetQuiz returns (nil, nil) when the quiz does not exist.
func (s *RedisStore) GetQuiz(ctx context.Context, id string) (*core.Quiz, error) {
	payload, err := s.client.Get(ctx, s.quizKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	var stored redisQuiz
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quiz: %w", err)
	}

	quiz := stored.Quiz
	for i := range quiz.Questions {
		if a, ok := stored.Answers[quiz.Questions[i].ID]; ok {
			quiz.Questions[i].CorrectOptionID = a.CorrectOptionID
			quiz.Questions[i].Explanation = a.Explanation
		}
	}
	return &quiz, nil
}

// redisQuiz carries the answer key separately because the core question type
// excludes it from JSON to keep it away from clients.
type redisQuiz struct {
	Quiz    core.Quiz              `json:"quiz"`
	Answers map[string]redisAnswer `json:"answers"`
}

type redisAnswer struct {
	CorrectOptionID string `json:"correctOptionId"`
	Explanation     string `json:"explanation,omitempty"`
}

func quizAnswers(quiz *core.Quiz) map[string]redisAnswer {
	answers := make(map[string]redisAnswer, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers[q.ID] = redisAnswer{CorrectOptionID: q.CorrectOptionID, Explanation: q.Explanation}
	}
	return answers
}

// CreateAttempt appends an immutable attempt record.
func (s *RedisStore) CreateAttempt(ctx context.Context, attempt *core.QuizAttempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	if err := s.client.RPush(ctx, s.attemptsKey(attempt.UserID), payload).Err(); err != nil {
		return fmt.Errorf("failed to store attempt: %w", err)
	}
	return nil
}

// ListAttemptsByUser returns the user's attempts in submission order.
func (s *RedisStore) ListAttemptsByUser(ctx context.Context, userID string) ([]core.QuizAttempt, error) {
	payloads, err := s.client.LRange(ctx, s.attemptsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	attempts := make([]core.QuizAttempt, 0, len(payloads))
	for _, p := range payloads {
		var attempt core.QuizAttempt
		if err := json.Unmarshal([]byte(p), &attempt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func rewardField(courseID string, typ core.RewardType) string {
	return courseID + "|" + string(typ)
}

// CreateRewardIfAbsent inserts the reward with HSETNX: the first writer wins,
// every later caller reads the stored row back.
func (s *RedisStore) CreateRewardIfAbsent(ctx context.Context, reward *core.Reward) (*core.Reward, bool, error) {
	payload, err := json.Marshal(reward)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal reward: %w", err)
	}

	key := s.rewardsKey(reward.UserID)
	field := rewardField(reward.CourseID, reward.Type)

	created, err := s.client.HSetNX(ctx, key, field, payload).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to store reward: %w", err)
	}
	if created {
		r := *reward
		return &r, true, nil
	}

	existing, err := s.client.HGet(ctx, key, field).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read existing reward: %w", err)
	}

	var stored core.Reward
	if err := json.Unmarshal([]byte(existing), &stored); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal reward: %w", err)
	}
	return &stored, false, nil
}

// UpdateRewardStatus persists the reward's Status and TxHash. Only the
// disbursement path writes here, so a plain HSET suffices.
func (s *RedisStore) UpdateRewardStatus(ctx context.Context, reward *core.Reward) error {
	payload, err := json.Marshal(reward)
	if err != nil {
		return fmt.Errorf("failed to marshal reward: %w", err)
	}

	key := s.rewardsKey(reward.UserID)
	field := rewardField(reward.CourseID, reward.Type)

	if err := s.client.HSet(ctx, key, field, payload).Err(); err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}
	return nil
}

// ListRewardsByUser returns the user's rewards.
func (s *RedisStore) ListRewardsByUser(ctx context.Context, userID string) ([]core.Reward, error) {
	payloads, err := s.client.HVals(ctx, s.rewardsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}

	rewards := make([]core.Reward, 0, len(payloads))
	for _, p := range payloads {
		var reward core.Reward
		if err := json.Unmarshal([]byte(p), &reward); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reward: %w", err)
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

// CreateCertificateIfAbsent reserves the verification code with SETNX, then
// inserts the certificate with HSETNX. HSETNX decides races on
// (userId, courseId); a lost race releases the reserved code.
func (s *RedisStore) CreateCertificateIfAbsent(ctx context.Context, cert *core.Certificate) (*core.Certificate, bool, error) {
	key := s.certsKey(cert.UserID)

	existing, err := s.client.HGet(ctx, key, cert.CourseID).Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to check certificate: %w", err)
	}
	if err == nil {
		var stored core.Certificate
		if err := json.Unmarshal([]byte(existing), &stored); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal certificate: %w", err)
		}
		return &stored, false, nil
	}

	payload, err := json.Marshal(cert)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal certificate: %w", err)
	}

	codeKey := s.certCodeKey(cert.VerificationCode)
	reserved, err := s.client.SetNX(ctx, codeKey, payload, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve verification code: %w", err)
	}
	if !reserved {
		return nil, false, core.ErrCodeConflict
	}

	created, err := s.client.HSetNX(ctx, key, cert.CourseID, payload).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to store certificate: %w", err)
	}
	if created {
		c := *cert
		return &c, true, nil
	}

	// Lost the race to a concurrent issuance: release the code and return
	// the winner's certificate.
	if err := s.client.Del(ctx, codeKey).Err(); err != nil {
		return nil, false, fmt.Errorf("failed to release verification code: %w", err)
	}

	winner, err := s.client.HGet(ctx, key, cert.CourseID).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read existing certificate: %w", err)
	}

	var stored core.Certificate
	if err := json.Unmarshal([]byte(winner), &stored); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal certificate: %w", err)
	}
	return &stored, false, nil
}

// GetCertificateByCode returns (nil, nil) when the code is unknown.
func (s *RedisStore) GetCertificateByCode(ctx context.Context, code string) (*core.Certificate, error) {
	payload, err := s.client.Get(ctx, s.certCodeKey(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	var cert core.Certificate
	if err := json.Unmarshal([]byte(payload), &cert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificate: %w", err)
	}
	return &cert, nil
}

// ListCertificatesByUser returns the user's certificates.
func (s *RedisStore) ListCertificatesByUser(ctx context.Context, userID string) ([]core.Certificate, error) {
	payloads, err := s.client.HVals(ctx, s.certsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}

	certs := make([]core.Certificate, 0, len(payloads))
	for _, p := range payloads {
		var cert core.Certificate
		if err := json.Unmarshal([]byte(p), &cert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// CreateEnrollmentIfAbsent inserts the enrollment with HSETNX.
func (s *RedisStore) CreateEnrollmentIfAbsent(ctx context.Context, enrollment *core.Enrollment) (*core.Enrollment, bool, error) {
	payload, err := json.Marshal(enrollment)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal enrollment: %w", err)
	}

	key := s.enrollmentsKey(enrollment.UserID)

	created, err := s.client.HSetNX(ctx, key, enrollment.CourseID, payload).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to store enrollment: %w", err)
	}
	if created {
		e := *enrollment
		return &e, true, nil
	}

	existing, err := s.client.HGet(ctx, key, enrollment.CourseID).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read existing enrollment: %w", err)
	}

	var stored core.Enrollment
	if err := json.Unmarshal([]byte(existing), &stored); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal enrollment: %w", err)
	}
	return &stored, false, nil
}

// MarkEnrollmentCompleted sets the completion time, enrolling first if needed.
// An already-completed enrollment keeps its original completion time.
func (s *RedisStore) MarkEnrollmentCompleted(ctx context.Context, userID, courseID string, at time.Time) error {
	enrollment := &core.Enrollment{
		UserID:      userID,
		CourseID:    courseID,
		EnrolledAt:  at,
		CompletedAt: &at,
	}

	stored, created, err := s.CreateEnrollmentIfAbsent(ctx, enrollment)
	if err != nil {
		return err
	}
	if created || stored.CompletedAt != nil {
		return nil
	}

	stored.CompletedAt = &at
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal enrollment: %w", err)
	}

	if err := s.client.HSet(ctx, s.enrollmentsKey(userID), courseID, payload).Err(); err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	return nil
}

// ListEnrollmentsByUser returns the user's enrollments.
func (s *RedisStore) ListEnrollmentsByUser(ctx context.Context, userID string) ([]core.Enrollment, error) {
	payloads, err := s.client.HVals(ctx, s.enrollmentsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	enrollments := make([]core.Enrollment, 0, len(payloads))
	for _, p := range payloads {
		var enrollment core.Enrollment
		if err := json.Unmarshal([]byte(p), &enrollment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal enrollment: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, nil
}
