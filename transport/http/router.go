package http

import (
	"github.com/gin-gonic/gin"
	"github.com/learnchain/learnchain-api/internal/metrics"
	"github.com/learnchain/learnchain-api/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(
	authService *service.AuthService,
	learning *service.LearningService,
	ledger *service.RewardLedger,
	issuer *service.CertificateIssuer,
	verification *service.VerificationService,
) *gin.Engine {
	router := gin.Default()

	handlers := NewHandlers(authService, learning, ledger, issuer, verification)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public routes
	auth := router.Group("/api/auth")
	{
		auth.POST("/nonce", handlers.Nonce)
		auth.POST("/verify", handlers.Verify)
	}
	router.GET("/api/certificates/verify/:code", handlers.VerifyCertificate)

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/auth/me", handlers.Me)
		api.POST("/auth/logout", handlers.Logout)

		api.GET("/quizzes/:quizId", handlers.GetQuiz)
		api.POST("/quizzes/:quizId/submit", handlers.SubmitQuiz)

		api.GET("/enrollments", handlers.ListEnrollments)
		api.POST("/enrollments", handlers.Enroll)

		api.GET("/rewards", handlers.ListRewards)
		api.GET("/certificates", handlers.ListCertificates)
	}

	return router
}
