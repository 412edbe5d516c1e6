// Package grade scores submitted answers against question definitions. All
// functions are pure: learner input never causes an error, it degrades to
// zero credit.
package grade

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/varna8104/AssessmentGen/internal/model"
)

// openTextMinLength is the minimum trimmed answer length, exclusive, for an
// open-text answer to count. A length heuristic, not a semantic check.
const openTextMinLength = 10

// Question grades one submitted answer against one question and returns the
// feedback record shown to the student.
func Question(q model.Question, answer model.Answer) model.QuestionFeedback {
	fb := model.QuestionFeedback{
		QuestionID:    q.ID,
		Question:      q.Prompt,
		UserAnswer:    answer,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		MaxPoints:     q.Points,
		Type:          q.Type,
	}

	switch q.Type {
	case model.TypeOpenText:
		trimmed := strings.TrimSpace(answer.Text)
		fb.IsCorrect = !answer.IsList() && utf8.RuneCountInString(trimmed) > openTextMinLength
		if fb.IsCorrect {
			fb.PointsEarned = q.Points
		}

	case model.TypeFillInBlank:
		// Both sides must be list-shaped; anything else is zero credit.
		if !answer.IsList() || len(q.CorrectAnswer.Blanks) == 0 {
			return fb
		}
		correct := 0
		for i, want := range q.CorrectAnswer.Blanks {
			var got string
			if i < len(answer.Blanks) {
				got = answer.Blanks[i]
			}
			if blankMatches(got, want) {
				correct++
			}
		}
		total := len(q.CorrectAnswer.Blanks)
		fb.IsCorrect = correct == total
		fb.PointsEarned = int(math.Round(float64(correct) / float64(total) * float64(q.Points)))

	default:
		// Single-choice, true-false, and any unrecognized type: exact,
		// case-sensitive string equality.
		fb.IsCorrect = !answer.IsList() && answer.Text == q.CorrectAnswer.Text
		if fb.IsCorrect {
			fb.PointsEarned = q.Points
		}
	}

	return fb
}

// blankMatches compares one fill-in-blank slot case-insensitively after
// trimming. A slot also counts when either string contains the other; this
// leniency matches long-standing product behavior and is deliberate. An
// empty learner blank never matches.
func blankMatches(got, want string) bool {
	got = strings.ToLower(strings.TrimSpace(got))
	want = strings.ToLower(strings.TrimSpace(want))
	if got == "" || want == "" {
		return false
	}
	return got == want || strings.Contains(got, want) || strings.Contains(want, got)
}

// Submission grades every question of an assessment in assessment order, so
// omitted answers are still graded as absent. It returns the total score and
// per-question feedback in question order.
func Submission(questions []model.Question, answers map[string]model.Answer) (int, []model.QuestionFeedback) {
	totalScore := 0
	feedback := make([]model.QuestionFeedback, 0, len(questions))
	for _, q := range questions {
		fb := Question(q, answers[q.ID])
		totalScore += fb.PointsEarned
		feedback = append(feedback, fb)
	}
	return totalScore, feedback
}

// Answered grades only the questions the student has answered so far. It is
// used for live progress updates, where unanswered questions should not show
// up as wrong yet.
func Answered(questions []model.Question, answers map[string]model.Answer) (int, []model.QuestionFeedback) {
	score := 0
	feedback := make([]model.QuestionFeedback, 0, len(answers))
	for _, q := range questions {
		a, ok := answers[q.ID]
		if !ok || a.IsEmpty() {
			continue
		}
		fb := Question(q, a)
		score += fb.PointsEarned
		feedback = append(feedback, fb)
	}
	return score, feedback
}
