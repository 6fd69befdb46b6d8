package store

import (
	"context"
	"sync"
	"time"

	"github.com/learnchain/learnchain-api/core"
)

// MemoryStore is an in-memory implementation of every store port. All maps
// share one mutex, which makes the check-then-insert grant paths atomic.
type MemoryStore struct {
	mu sync.RWMutex

	challenges     map[string]*core.Challenge // keyed by address
	sessions       map[string]*core.Session   // keyed by session id
	usersByAddress map[string]*core.User
	quizzes        map[string]*core.Quiz
	attempts       map[string][]core.QuizAttempt // keyed by user id
	rewards        map[string]*core.Reward       // keyed by user|course|type
	rewardsByUser  map[string][]*core.Reward
	certs          map[string]*core.Certificate // keyed by user|course
	certsByCode    map[string]*core.Certificate
	certsByUser    map[string][]*core.Certificate
	enrollments    map[string]*core.Enrollment // keyed by user|course
	enrollsByUser  map[string][]*core.Enrollment
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges:     make(map[string]*core.Challenge),
		sessions:       make(map[string]*core.Session),
		usersByAddress: make(map[string]*core.User),
		quizzes:        make(map[string]*core.Quiz),
		attempts:       make(map[string][]core.QuizAttempt),
		rewards:        make(map[string]*core.Reward),
		rewardsByUser:  make(map[string][]*core.Reward),
		certs:          make(map[string]*core.Certificate),
		certsByCode:    make(map[string]*core.Certificate),
		certsByUser:    make(map[string][]*core.Certificate),
		enrollments:    make(map[string]*core.Enrollment),
		enrollsByUser:  make(map[string][]*core.Enrollment),
	}
}

// StartSweeper evicts expired challenges and sessions until ctx is done.
// Expiry is also checked on access, so the sweep only bounds memory.
func (s *MemoryStore) StartSweeper(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sweep(now)
			}
		}
	}()
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, ch := range s.challenges {
		if ch.Expired(now) {
			delete(s.challenges, addr)
		}
	}
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

// PutChallenge stores a challenge, overwriting any prior one for the address.
func (s *MemoryStore) PutChallenge(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *challenge
	s.challenges[challenge.Address] = &c
	return nil
}

// TakeChallenge atomically retrieves and deletes the challenge for the
// address. The delete happens before the expiry check so that any consumption
// attempt invalidates the nonce.
func (s *MemoryStore) TakeChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok {
		return nil, core.ErrChallengeNotFound
	}
	delete(s.challenges, address)

	if challenge.Expired(time.Now()) {
		return nil, core.ErrChallengeExpired
	}

	return challenge, nil
}

// PutSession stores a session record. The TTL is implicit in the session's
// ExpiresAt; it is honored lazily on read and by the sweeper.
func (s *MemoryStore) PutSession(ctx context.Context, session *core.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := *session
	s.sessions[session.ID] = &sess
	return nil
}

// GetSession returns the session record, or (nil, nil) when absent or expired.
func (s *MemoryStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, nil
	}

	sess := *session
	return &sess, nil
}

// DeleteSession removes a session record; idempotent.
func (s *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// FindOrCreateUser returns the user for the address, creating it if unseen.
func (s *MemoryStore) FindOrCreateUser(ctx context.Context, address string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.usersByAddress[address]; ok {
		u := *user
		return &u, nil
	}

	user := &core.User{
		ID:            newID(),
		WalletAddress: address,
		CreatedAt:     time.Now(),
	}
	s.usersByAddress[address] = user

	u := *user
	return &u, nil
}

// GetUserByAddress returns (nil, nil) when no user exists for the address.
func (s *MemoryStore) GetUserByAddress(ctx context.Context, address string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByAddress[address]
	if !ok {
		return nil, nil
	}

	u := *user
	return &u, nil
}

// PutQuiz stores a quiz in the catalog.
func (s *MemoryStore) PutQuiz(ctx context.Context, quiz *core.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := *quiz
	s.quizzes[quiz.ID] = &q
	return nil
}

// GetQuiz returns (nil, nil) when the quiz does not exist.
func (s *MemoryStore) GetQuiz(ctx context.Context, id string) (*core.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, nil
	}

	q := *quiz
	return &q, nil
}

// CreateAttempt appends an immutable attempt record.
func (s *MemoryStore) CreateAttempt(ctx context.Context, attempt *core.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[attempt.UserID] = append(s.attempts[attempt.UserID], *attempt)
	return nil
}

// ListAttemptsByUser returns the user's attempts in submission order.
func (s *MemoryStore) ListAttemptsByUser(ctx context.Context, userID string) ([]core.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempts := make([]core.QuizAttempt, len(s.attempts[userID]))
	copy(attempts, s.attempts[userID])
	return attempts, nil
}

func rewardKey(userID, courseID string, typ core.RewardType) string {
	return userID + "|" + courseID + "|" + string(typ)
}

// CreateRewardIfAbsent inserts the reward unless one exists for its
// (UserID, CourseID, Type). Check and insert run under one lock.
func (s *MemoryStore) CreateRewardIfAbsent(ctx context.Context, reward *core.Reward) (*core.Reward, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rewardKey(reward.UserID, reward.CourseID, reward.Type)
	if existing, ok := s.rewards[key]; ok {
		r := *existing
		return &r, false, nil
	}

	stored := *reward
	s.rewards[key] = &stored
	s.rewardsByUser[reward.UserID] = append(s.rewardsByUser[reward.UserID], &stored)

	r := stored
	return &r, true, nil
}

// UpdateRewardStatus persists the reward's Status and TxHash.
func (s *MemoryStore) UpdateRewardStatus(ctx context.Context, reward *core.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rewardKey(reward.UserID, reward.CourseID, reward.Type)
	stored, ok := s.rewards[key]
	if !ok {
		return nil
	}

	stored.Status = reward.Status
	stored.TxHash = reward.TxHash
	return nil
}

// ListRewardsByUser returns the user's rewards in grant order.
func (s *MemoryStore) ListRewardsByUser(ctx context.Context, userID string) ([]core.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rewards := make([]core.Reward, 0, len(s.rewardsByUser[userID]))
	for _, r := range s.rewardsByUser[userID] {
		rewards = append(rewards, *r)
	}
	return rewards, nil
}

func certKey(userID, courseID string) string {
	return userID + "|" + courseID
}

// CreateCertificateIfAbsent inserts the certificate unless one exists for its
// (UserID, CourseID). A code held by another certificate yields
// core.ErrCodeConflict so the issuer can regenerate.
func (s *MemoryStore) CreateCertificateIfAbsent(ctx context.Context, cert *core.Certificate) (*core.Certificate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := certKey(cert.UserID, cert.CourseID)
	if existing, ok := s.certs[key]; ok {
		c := *existing
		return &c, false, nil
	}

	if _, taken := s.certsByCode[cert.VerificationCode]; taken {
		return nil, false, core.ErrCodeConflict
	}

	stored := *cert
	s.certs[key] = &stored
	s.certsByCode[cert.VerificationCode] = &stored
	s.certsByUser[cert.UserID] = append(s.certsByUser[cert.UserID], &stored)

	c := stored
	return &c, true, nil
}

// GetCertificateByCode returns (nil, nil) when the code is unknown.
func (s *MemoryStore) GetCertificateByCode(ctx context.Context, code string) (*core.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, ok := s.certsByCode[code]
	if !ok {
		return nil, nil
	}

	c := *cert
	return &c, nil
}

// ListCertificatesByUser returns the user's certificates in issue order.
func (s *MemoryStore) ListCertificatesByUser(ctx context.Context, userID string) ([]core.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certs := make([]core.Certificate, 0, len(s.certsByUser[userID]))
	for _, c := range s.certsByUser[userID] {
		certs = append(certs, *c)
	}
	return certs, nil
}

// CreateEnrollmentIfAbsent inserts the enrollment unless one exists.
func (s *MemoryStore) CreateEnrollmentIfAbsent(ctx context.Context, enrollment *core.Enrollment) (*core.Enrollment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createEnrollmentLocked(enrollment)
}

func (s *MemoryStore) createEnrollmentLocked(enrollment *core.Enrollment) (*core.Enrollment, bool, error) {
	key := certKey(enrollment.UserID, enrollment.CourseID)
	if existing, ok := s.enrollments[key]; ok {
		e := *existing
		return &e, false, nil
	}

	stored := *enrollment
	s.enrollments[key] = &stored
	s.enrollsByUser[enrollment.UserID] = append(s.enrollsByUser[enrollment.UserID], &stored)

	e := stored
	return &e, true, nil
}

// MarkEnrollmentCompleted sets the completion time, enrolling first if needed.
func (s *MemoryStore) MarkEnrollmentCompleted(ctx context.Context, userID, courseID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := certKey(userID, courseID)
	enrollment, ok := s.enrollments[key]
	if !ok {
		enrollment = &core.Enrollment{
			UserID:     userID,
			CourseID:   courseID,
			EnrolledAt: at,
		}
		s.enrollments[key] = enrollment
		s.enrollsByUser[userID] = append(s.enrollsByUser[userID], enrollment)
	}

	if enrollment.CompletedAt == nil {
		completed := at
		enrollment.CompletedAt = &completed
	}
	return nil
}

// ListEnrollmentsByUser returns the user's enrollments in enroll order.
func (s *MemoryStore) ListEnrollmentsByUser(ctx context.Context, userID string) ([]core.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enrollments := make([]core.Enrollment, 0, len(s.enrollsByUser[userID]))
	for _, e := range s.enrollsByUser[userID] {
		enrollments = append(enrollments, *e)
	}
	return enrollments, nil
}
