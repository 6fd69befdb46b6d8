// Package metrics exposes Prometheus counters for the auth and grading
// pipeline. Counters work unregistered, so tests can exercise services
// without touching the default registry; Init is called once from main.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	challengesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learnchain_auth_challenges_issued_total",
		Help: "Authentication challenges issued.",
	})

	logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "learnchain_auth_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	quizSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "learnchain_quiz_submissions_total",
		Help: "Quiz submissions by outcome.",
	}, []string{"outcome"})

	rewardsGranted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "learnchain_rewards_granted_total",
		Help: "Rewards created by type.",
	}, []string{"type"})

	certificatesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learnchain_certificates_issued_total",
		Help: "Certificates minted.",
	})

	certificateLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "learnchain_certificate_lookups_total",
		Help: "Public certificate lookups by validity.",
	}, []string{"valid"})
)

// Init registers the pipeline metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		challengesIssued,
		logins,
		quizSubmissions,
		rewardsGranted,
		certificatesIssued,
		certificateLookups,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ChallengeIssued() { challengesIssued.Inc() }

func Login(result string) { logins.WithLabelValues(result).Inc() }

func QuizSubmission(outcome string) { quizSubmissions.WithLabelValues(outcome).Inc() }

func RewardGranted(rewardType string) { rewardsGranted.WithLabelValues(rewardType).Inc() }

func CertificateIssued() { certificatesIssued.Inc() }

func CertificateLookup(valid bool) {
	if valid {
		certificateLookups.WithLabelValues("true").Inc()
		return
	}
	certificateLookups.WithLabelValues("false").Inc()
}
