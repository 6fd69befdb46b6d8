package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/learnchain/learnchain-api/adapters/events"
	"github.com/learnchain/learnchain-api/adapters/store"
	"github.com/learnchain/learnchain-api/adapters/tokenizer"
	"github.com/learnchain/learnchain-api/adapters/treasury"
	"github.com/learnchain/learnchain-api/adapters/verifier"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/internal/config"
	"github.com/learnchain/learnchain-api/internal/metrics"
	"github.com/learnchain/learnchain-api/ports"
	"github.com/learnchain/learnchain-api/service"
	"github.com/learnchain/learnchain-api/transport/http"
	"github.com/redis/go-redis/v9"
)

// datastore is everything the services need from a storage backend. Both the
// in-memory and the Redis store satisfy it.
type datastore interface {
	ports.ChallengeStore
	ports.SessionStore
	ports.UserStore
	ports.QuizStore
	ports.AttemptStore
	ports.RewardStore
	ports.CertificateStore
	ports.EnrollmentStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	signKey, err := loadSigningKey(cfg.Auth.SigningKeyHex)
	if err != nil {
		log.Fatalf("Failed to load signing key: %v", err)
	}

	ctx := context.Background()
	logger := watermill.NewStdLogger(false, false)

	var (
		st        datastore
		publisher message.Publisher
	)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}

		st = store.NewRedisStore(redisClient)
		log.Printf("Using Redis store at %s", cfg.Redis.URL)
	} else {
		mem := store.NewMemoryStore()
		mem.StartSweeper(ctx, time.Minute)

		publisher = gochannel.NewGoChannel(gochannel.Config{}, logger)
		st = mem
		log.Printf("REDIS_URL not set, using in-memory store")
	}

	metrics.Init()

	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(
		st, st, st,
		tokenizer.NewJWTTokenizer(signKey),
		verifier.NewEthVerifier(),
		eventPub,
		service.AuthConfig{
			ChallengeTTL: cfg.Auth.ChallengeTTL,
			SessionTTL:   cfg.Auth.SessionTTL,
		},
	)
	ledger := service.NewRewardLedger(st, treasury.NewSimulatedTreasury(2*time.Second), eventPub)
	issuer := service.NewCertificateIssuer(st, eventPub)
	learning := service.NewLearningService(
		st, st, st,
		service.NewGradingService(),
		ledger,
		issuer,
		cfg.Reward.CourseCompletionAmount,
		cfg.Reward.QuizBonusAmount,
	)
	verification := service.NewVerificationService(st)

	if err := seedQuizzes(ctx, st); err != nil {
		log.Fatalf("Failed to seed quiz catalog: %v", err)
	}

	router := http.SetupRouter(authService, learning, ledger, issuer, verification)

	log.Printf("Listening on %s", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadSigningKey parses a hex-encoded P-256 scalar, or generates an ephemeral
// key when none is configured. An ephemeral key invalidates outstanding
// sessions on restart, which is acceptable for development.
func loadSigningKey(keyHex string) (*ecdsa.PrivateKey, error) {
	if keyHex == "" {
		log.Printf("SESSION_SIGNING_KEY not set, generating an ephemeral signing key")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("not hex-encoded: %w", err)
	}

	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	if d.Sign() <= 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("scalar out of range for P-256")
	}

	key := &ecdsa.PrivateKey{D: d}
	key.PublicKey.Curve = curve
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(d.Bytes())
	return key, nil
}

// seedQuizzes loads the built-in quiz catalog. Idempotent: PutQuiz overwrites
// by id, so restarting against a shared store is harmless.
func seedQuizzes(ctx context.Context, quizzes ports.QuizStore) error {
	catalog := []*core.Quiz{
		{
			ID:           "intro-to-blockchain",
			CourseID:     "blockchain-101",
			Title:        "Introduction to Blockchain",
			PassingScore: 70,
			Questions: []core.QuizQuestion{
				{
					ID:   "q1",
					Text: "What data structure links blocks together?",
					Options: []core.QuizOption{
						{ID: "a", Text: "A hash chain"},
						{ID: "b", Text: "A binary tree"},
						{ID: "c", Text: "A ring buffer"},
					},
					CorrectOptionID: "a",
					Explanation:     "Each block commits to its predecessor by hash.",
				},
				{
					ID:   "q2",
					Text: "What does a wallet signature prove?",
					Options: []core.QuizOption{
						{ID: "a", Text: "Ownership of a username"},
						{ID: "b", Text: "Control of a private key"},
						{ID: "c", Text: "Possession of funds"},
					},
					CorrectOptionID: "b",
					Explanation:     "Only the private key holder can produce a valid signature.",
				},
				{
					ID:   "q3",
					Text: "What makes a nonce safe against replay?",
					Options: []core.QuizOption{
						{ID: "a", Text: "It is long"},
						{ID: "b", Text: "It is single use"},
						{ID: "c", Text: "It is secret"},
					},
					CorrectOptionID: "b",
				},
			},
		},
		{
			ID:           "smart-contracts-basics",
			CourseID:     "smart-contracts-101",
			Title:        "Smart Contract Basics",
			PassingScore: 80,
			Questions: []core.QuizQuestion{
				{
					ID:   "q1",
					Text: "Where does a deployed contract's code live?",
					Options: []core.QuizOption{
						{ID: "a", Text: "On every full node"},
						{ID: "b", Text: "On the deployer's machine"},
					},
					CorrectOptionID: "a",
				},
				{
					ID:   "q2",
					Text: "What is gas?",
					Options: []core.QuizOption{
						{ID: "a", Text: "A fee unit for computation"},
						{ID: "b", Text: "A consensus algorithm"},
					},
					CorrectOptionID: "a",
					Explanation:     "Gas meters execution so unbounded loops cannot stall the chain.",
				},
			},
		},
	}

	for _, quiz := range catalog {
		if err := quizzes.PutQuiz(ctx, quiz); err != nil {
			return err
		}
	}
	return nil
}
