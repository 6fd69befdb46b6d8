package service

import (
	"fmt"
	"math"

	"github.com/learnchain/learnchain-api/core"
)

// GradingService scores submissions against a quiz's answer key. Grading is
// total: once a submission covers every question id, it always produces a
// result, so the reward step downstream can make a clean accept/reject
// decision even under adversarial input.
type GradingService struct{}

// NewGradingService creates a new grading service.
func NewGradingService() *GradingService {
	return &GradingService{}
}

// Grade scores the submitted answers. It fails only with
// core.ErrIncompleteSubmission, when one or more question ids have no
// submitted answer; an answer referencing an option outside a question's
// option set counts as incorrect, never as an error.
func (g *GradingService) Grade(quiz *core.Quiz, answers map[string]string) (*core.GradeResult, error) {
	missing := 0
	for _, q := range quiz.Questions {
		if _, ok := answers[q.ID]; !ok {
			missing++
		}
	}
	if missing > 0 {
		return nil, fmt.Errorf("%w: %d of %d questions unanswered", core.ErrIncompleteSubmission, missing, len(quiz.Questions))
	}

	total := len(quiz.Questions)
	correct := 0
	feedback := make(map[string]core.QuestionFeedback, total)

	for _, q := range quiz.Questions {
		ok := answers[q.ID] == q.CorrectOptionID
		if ok {
			correct++
		}
		feedback[q.ID] = core.QuestionFeedback{
			Correct:         ok,
			CorrectOptionID: q.CorrectOptionID,
			Explanation:     q.Explanation,
		}
	}

	score := 0
	if total > 0 {
		// Standard rounding: 0.5 rounds up.
		score = int(math.Round(100 * float64(correct) / float64(total)))
	}

	return &core.GradeResult{
		Score:          score,
		CorrectCount:   correct,
		TotalQuestions: total,
		Passed:         score >= quiz.PassingScore,
		Feedback:       feedback,
	}, nil
}
