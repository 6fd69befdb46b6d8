package service

import (
	"fmt"
	"testing"

	"github.com/learnchain/learnchain-api/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quizOf builds an n-question quiz where every correct answer is "a".
func quizOf(n, passingScore int) *core.Quiz {
	questions := make([]core.QuizQuestion, n)
	for i := range questions {
		id := fmt.Sprintf("q%d", i+1)
		questions[i] = core.QuizQuestion{
			ID:   id,
			Text: "question " + id,
			Options: []core.QuizOption{
				{ID: "a", Text: "right"},
				{ID: "b", Text: "wrong"},
			},
			CorrectOptionID: "a",
			Explanation:     "because " + id,
		}
	}
	return &core.Quiz{
		ID:           "quiz-1",
		CourseID:     "course-1",
		Title:        "Test Quiz",
		PassingScore: passingScore,
		Questions:    questions,
	}
}

func answersFor(quiz *core.Quiz, correct int) map[string]string {
	answers := make(map[string]string, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if i < correct {
			answers[q.ID] = q.CorrectOptionID
		} else {
			answers[q.ID] = "b"
		}
	}
	return answers
}

func TestGrade_Score(t *testing.T) {
	g := NewGradingService()
	quiz := quizOf(5, 70)

	result, err := g.Grade(quiz, answersFor(quiz, 4))
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	assert.Equal(t, 4, result.CorrectCount)
	assert.Equal(t, 5, result.TotalQuestions)
	assert.True(t, result.Passed)
}

func TestGrade_RoundsHalfUp(t *testing.T) {
	g := NewGradingService()

	// 1/8 = 12.5% rounds to 13.
	quiz := quizOf(8, 70)
	result, err := g.Grade(quiz, answersFor(quiz, 1))
	require.NoError(t, err)
	assert.Equal(t, 13, result.Score)

	// 1/3 = 33.3% rounds to 33.
	quiz = quizOf(3, 70)
	result, err = g.Grade(quiz, answersFor(quiz, 1))
	require.NoError(t, err)
	assert.Equal(t, 33, result.Score)

	// 2/3 = 66.7% rounds to 67.
	result, err = g.Grade(quiz, answersFor(quiz, 2))
	require.NoError(t, err)
	assert.Equal(t, 67, result.Score)
}

func TestGrade_PassingBoundary(t *testing.T) {
	g := NewGradingService()
	quiz := quizOf(10, 70)

	result, err := g.Grade(quiz, answersFor(quiz, 7))
	require.NoError(t, err)
	assert.Equal(t, 70, result.Score)
	assert.True(t, result.Passed, "score equal to the passing score passes")

	result, err = g.Grade(quiz, answersFor(quiz, 6))
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestGrade_UnknownOptionCountsIncorrect(t *testing.T) {
	g := NewGradingService()
	quiz := quizOf(2, 50)

	answers := map[string]string{
		"q1": "a",
		"q2": "no-such-option",
	}
	result, err := g.Grade(quiz, answers)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.False(t, result.Feedback["q2"].Correct)
}

func TestGrade_IncompleteSubmission(t *testing.T) {
	g := NewGradingService()
	quiz := quizOf(3, 50)

	answers := answersFor(quiz, 3)
	delete(answers, "q2")

	_, err := g.Grade(quiz, answers)
	require.ErrorIs(t, err, core.ErrIncompleteSubmission)
	assert.Contains(t, err.Error(), "1 of 3")
}

func TestGrade_IgnoresExtraAnswers(t *testing.T) {
	g := NewGradingService()
	quiz := quizOf(2, 50)

	answers := answersFor(quiz, 2)
	answers["not-a-question"] = "a"

	result, err := g.Grade(quiz, answers)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Len(t, result.Feedback, 2)
}

func TestGrade_Feedback(t *testing.T) {
	g := NewGradingService()
	quiz := quizOf(2, 50)

	result, err := g.Grade(quiz, answersFor(quiz, 1))
	require.NoError(t, err)

	require.Len(t, result.Feedback, 2)
	assert.True(t, result.Feedback["q1"].Correct)
	assert.False(t, result.Feedback["q2"].Correct)
	for id, fb := range result.Feedback {
		assert.Equal(t, "a", fb.CorrectOptionID)
		assert.Equal(t, "because "+id, fb.Explanation)
	}
}
