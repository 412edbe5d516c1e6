// Package normalize coerces loosely structured question data, typically an
// LLM response, into complete Question values before anything grades or
// stores them.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/varna8104/AssessmentGen/internal/model"
)

const (
	defaultPoints           = 1
	defaultTimeLimitSeconds = 30
	minutesPerQuestion      = 1.5
)

// RawQuestion is a question as it arrives from the LLM or a manual authoring
// form. Every field is optional; Question fills in the gaps.
type RawQuestion struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options"`
	CorrectAnswer model.Answer `json:"correctAnswer"`
	Explanation   string       `json:"explanation"`
	Points        *float64     `json:"points"`
	TimeLimit     *float64     `json:"timeLimit"`
	Difficulty    string       `json:"difficulty"`
	Topic         string       `json:"topic"`
}

// RawAssessment is the document shape expected from the LLM.
type RawAssessment struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Questions   []RawQuestion `json:"questions"`
	TotalPoints *float64      `json:"totalPoints"`
	Estimated   *float64      `json:"estimatedTime"`
}

// Question fills missing or invalid fields of a raw question with defaults.
// index and total refer to the batch being normalized; they drive the
// positional difficulty split when neither the question nor the request
// carries a difficulty.
func Question(raw RawQuestion, index, total int, requested model.Difficulty) model.Question {
	q := model.Question{
		ID:               raw.ID,
		Type:             canonicalType(raw.Type),
		Prompt:           raw.Prompt,
		Options:          raw.Options,
		CorrectAnswer:    raw.CorrectAnswer,
		Explanation:      raw.Explanation,
		Points:           finiteIntOr(raw.Points, defaultPoints),
		TimeLimitSeconds: finiteIntOr(raw.TimeLimit, defaultTimeLimitSeconds),
		Difficulty:       difficultyFor(raw.Difficulty, requested, index, total),
		Topic:            raw.Topic,
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d_%d", index+1, time.Now().UnixMilli()+int64(index))
	}
	// A fill-in-blank key authored as a single string is one blank.
	if q.Type == model.TypeFillInBlank && !q.CorrectAnswer.IsList() {
		q.CorrectAnswer = model.Answer{Blanks: []string{q.CorrectAnswer.Text}}
	}
	return q
}

// Assessment normalizes a whole generated document: every question gets
// defaults, the title and description fall back to the request, totalPoints
// is recomputed as the sum of question points, and the time estimate defaults
// to 1.5 minutes per question.
func Assessment(raw RawAssessment, params model.GenerateParams) model.Assessment {
	total := len(raw.Questions)
	questions := make([]model.Question, 0, total)
	totalPoints := 0
	for i, rq := range raw.Questions {
		q := Question(rq, i, total, params.Difficulty)
		totalPoints += q.Points
		questions = append(questions, q)
	}

	title := raw.Title
	if title == "" {
		title = params.AssessmentName
	}
	description := raw.Description
	if description == "" {
		description = "Comprehensive assessment covering key concepts and principles in " + params.AssessmentName
	}

	estimated := int(math.Ceil(minutesPerQuestion * float64(total)))
	if raw.Estimated != nil && isFinite(*raw.Estimated) && *raw.Estimated > 0 {
		estimated = int(*raw.Estimated)
	}

	return model.Assessment{
		Title:                title,
		Description:          description,
		TotalPoints:          totalPoints,
		EstimatedTimeMinutes: estimated,
		Questions:            questions,
	}
}

// canonicalType collapses known type aliases. Unrecognized tokens pass
// through unchanged; the grader's default branch handles them.
func canonicalType(t string) model.QuestionType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "mcq", "multiple-choice":
		return model.TypeSingleChoice
	case "fill-in-blanks", "fill-blanks":
		return model.TypeFillInBlank
	default:
		return model.QuestionType(strings.TrimSpace(t))
	}
}

func difficultyFor(given string, requested model.Difficulty, index, total int) model.Difficulty {
	if d := strings.TrimSpace(given); d != "" {
		return model.Difficulty(d)
	}
	if requested != "" {
		return requested
	}
	// Positional split over the batch: first third easy, middle third
	// medium, last third hard.
	switch {
	case 3*index < total:
		return model.DifficultyEasy
	case 3*index < 2*total:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}

// finiteIntOr returns the given value truncated to int when it is present
// and finite, otherwise the default. Invalid numeric input never reaches the
// grader.
func finiteIntOr(v *float64, def int) int {
	if v == nil || !isFinite(*v) {
		return def
	}
	return int(*v)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
