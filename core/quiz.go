package core

import "time"

// QuizOption is one selectable answer to a question.
type QuizOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuizQuestion is a single multiple-choice question. CorrectOptionID and
// Explanation must never reach the client before grading.
type QuizQuestion struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	Options         []QuizOption `json:"options"`
	CorrectOptionID string       `json:"-"`
	Explanation     string       `json:"-"`
}

// Quiz is a graded assessment attached to a course.
type Quiz struct {
	ID           string         `json:"id"`
	CourseID     string         `json:"courseId"`
	Title        string         `json:"title"`
	PassingScore int            `json:"passingScore"` // 0-100
	Questions    []QuizQuestion `json:"questions"`
}

// QuizAttempt is one graded submission. Immutable once created; a user may
// accumulate any number of attempts per quiz.
type QuizAttempt struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	QuizID           string            `json:"quizId"`
	SubmittedAnswers map[string]string `json:"submittedAnswers"` // questionId -> optionId
	Score            int               `json:"score"`
	Passed           bool              `json:"passed"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// QuestionFeedback explains the outcome for one question after grading.
type QuestionFeedback struct {
	Correct         bool   `json:"correct"`
	CorrectOptionID string `json:"correctOptionId"`
	Explanation     string `json:"explanation,omitempty"`
}

// GradeResult is the outcome of grading one submission.
type GradeResult struct {
	Score          int                         `json:"score"` // 0-100, rounded half up
	CorrectCount   int                         `json:"correctCount"`
	TotalQuestions int                         `json:"totalQuestions"`
	Passed         bool                        `json:"passed"`
	Feedback       map[string]QuestionFeedback `json:"feedback"` // keyed by questionId
}
