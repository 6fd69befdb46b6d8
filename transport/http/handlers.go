package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/service"
)

// Handlers contains the HTTP handlers for every endpoint.
type Handlers struct {
	auth         *service.AuthService
	learning     *service.LearningService
	ledger       *service.RewardLedger
	issuer       *service.CertificateIssuer
	verification *service.VerificationService
}

// NewHandlers creates the handler set.
func NewHandlers(
	auth *service.AuthService,
	learning *service.LearningService,
	ledger *service.RewardLedger,
	issuer *service.CertificateIssuer,
	verification *service.VerificationService,
) *Handlers {
	return &Handlers{
		auth:         auth,
		learning:     learning,
		ledger:       ledger,
		issuer:       issuer,
		verification: verification,
	}
}

// Nonce handles the challenge request.
func (h *Handlers) Nonce(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.auth.IssueChallenge(c.Request.Context(), req.WalletAddress)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   challenge.Message,
		"nonce":     challenge.Nonce,
		"expiresAt": challenge.ExpiresAt,
	})
}

// Verify handles the signature verification request. Every authentication
// failure maps to the same 401 body regardless of cause.
func (h *Handlers) Verify(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.WalletAddress, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrAuthenticationFailed),
			errors.Is(err, core.ErrChallengeNotFound),
			errors.Is(err, core.ErrChallengeExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user.
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), sessionFrom(c))
	if err != nil {
		if errors.Is(err, core.ErrInvalidSession) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout revokes the current session.
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetQuiz returns a quiz with answers and explanations stripped.
func (h *Handlers) GetQuiz(c *gin.Context) {
	quiz, err := h.learning.GetQuiz(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		if errors.Is(err, core.ErrQuizNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load quiz"})
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// SubmitQuiz grades a submission and returns the full outcome.
func (h *Handlers) SubmitQuiz(c *gin.Context) {
	var req struct {
		Answers map[string]string `json:"answers" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	session := sessionFrom(c)
	result, err := h.learning.SubmitQuiz(c.Request.Context(), session.UserID, c.Param("quizId"), req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrQuizNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		case errors.Is(err, core.ErrIncompleteSubmission):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grade submission"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyCertificate is the public certificate lookup. Malformed and unknown
// codes both return {valid: false} with a 200.
func (h *Handlers) VerifyCertificate(c *gin.Context) {
	result, err := h.verification.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify certificate"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Enroll records the authenticated user's enrollment in a course.
func (h *Handlers) Enroll(c *gin.Context) {
	var req struct {
		CourseID string `json:"courseId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	session := sessionFrom(c)
	enrollment, err := h.learning.Enroll(c.Request.Context(), session.UserID, req.CourseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll"})
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ListEnrollments returns the authenticated user's enrollments.
func (h *Handlers) ListEnrollments(c *gin.Context) {
	session := sessionFrom(c)
	enrollments, err := h.learning.ListEnrollments(c.Request.Context(), session.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list enrollments"})
		return
	}

	if enrollments == nil {
		enrollments = []core.Enrollment{}
	}
	c.JSON(http.StatusOK, enrollments)
}

// ListRewards returns the authenticated user's rewards.
func (h *Handlers) ListRewards(c *gin.Context) {
	session := sessionFrom(c)
	rewards, err := h.ledger.ListRewards(c.Request.Context(), session.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rewards"})
		return
	}

	if rewards == nil {
		rewards = []core.Reward{}
	}
	c.JSON(http.StatusOK, rewards)
}

// ListCertificates returns the authenticated user's certificates.
func (h *Handlers) ListCertificates(c *gin.Context) {
	session := sessionFrom(c)
	certs, err := h.issuer.ListCertificates(c.Request.Context(), session.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list certificates"})
		return
	}

	if certs == nil {
		certs = []core.Certificate{}
	}
	c.JSON(http.StatusOK, certs)
}
