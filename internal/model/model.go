package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// QuestionType identifies how a question is answered and graded.
type QuestionType string

const (
	// TypeSingleChoice is a question with one correct option.
	TypeSingleChoice QuestionType = "single-choice"
	// TypeTrueFalse is a two-option true/false question.
	TypeTrueFalse QuestionType = "true-false"
	// TypeFillInBlank has one expected string per blank.
	TypeFillInBlank QuestionType = "fill-in-blank"
	// TypeOpenText is free-form text graded by a length heuristic.
	TypeOpenText QuestionType = "open-text"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// AssessmentStatus represents the lifecycle state of a published assessment.
type AssessmentStatus string

const (
	StatusActive AssessmentStatus = "active"
	StatusEnded  AssessmentStatus = "ended"
)

// SessionStatus represents the status of a student session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Answer holds either a single answer string or one string per blank.
// It tolerates the loose JSON shapes LLMs and clients send: strings,
// numbers, booleans, or arrays of any of those.
type Answer struct {
	Text   string
	Blanks []string
}

// IsList reports whether the answer is blank-list shaped.
func (a Answer) IsList() bool { return a.Blanks != nil }

// IsEmpty reports whether no answer was given at all.
func (a Answer) IsEmpty() bool { return a.Text == "" && a.Blanks == nil }

// UnmarshalJSON accepts a string, number, bool, or an array of those.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*a = Answer{}
	case []any:
		blanks := make([]string, 0, len(v))
		for _, item := range v {
			blanks = append(blanks, stringify(item))
		}
		*a = Answer{Blanks: blanks}
	default:
		*a = Answer{Text: stringify(v)}
	}
	return nil
}

// MarshalJSON writes a JSON array for blank-list answers and a string otherwise.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Blanks != nil {
		return json.Marshal(a.Blanks)
	}
	return json.Marshal(a.Text)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// Question is one gradable item in an assessment.
type Question struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"type"`
	Prompt           string       `json:"question"`
	Options          []string     `json:"options,omitempty"`
	CorrectAnswer    Answer       `json:"correctAnswer"`
	Explanation      string       `json:"explanation,omitempty"`
	Points           int          `json:"points"`
	TimeLimitSeconds int          `json:"timeLimit"`
	Difficulty       Difficulty   `json:"difficulty"`
	Topic            string       `json:"topic,omitempty"`
}

// StudentQuestion is the view of a question sent to students. It omits the
// correct answer and explanation; grading happens on the server.
type StudentQuestion struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"type"`
	Prompt           string       `json:"question"`
	Options          []string     `json:"options,omitempty"`
	Points           int          `json:"points"`
	TimeLimitSeconds int          `json:"timeLimit"`
	Difficulty       Difficulty   `json:"difficulty"`
	Topic            string       `json:"topic,omitempty"`
}

// Assessment is an ordered set of questions plus display metadata.
type Assessment struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	TotalPoints          int        `json:"totalPoints"`
	EstimatedTimeMinutes int        `json:"estimatedTime"`
	Questions            []Question `json:"questions"`
}

// StudentAssessment is the answer-free assessment payload for students.
type StudentAssessment struct {
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	TotalPoints          int               `json:"totalPoints"`
	EstimatedTimeMinutes int               `json:"estimatedTime"`
	Questions            []StudentQuestion `json:"questions"`
}

// StudentView returns the assessment with answer keys stripped.
func (a Assessment) StudentView() StudentAssessment {
	sv := StudentAssessment{
		Title:                a.Title,
		Description:          a.Description,
		TotalPoints:          a.TotalPoints,
		EstimatedTimeMinutes: a.EstimatedTimeMinutes,
		Questions:            make([]StudentQuestion, 0, len(a.Questions)),
	}
	for _, q := range a.Questions {
		sv.Questions = append(sv.Questions, StudentQuestion{
			ID:               q.ID,
			Type:             q.Type,
			Prompt:           q.Prompt,
			Options:          q.Options,
			Points:           q.Points,
			TimeLimitSeconds: q.TimeLimitSeconds,
			Difficulty:       q.Difficulty,
			Topic:            q.Topic,
		})
	}
	return sv
}

// Metadata describes how and when an assessment was produced and published.
type Metadata struct {
	AssessmentName    string           `json:"assessmentName"`
	AssessmentType    string           `json:"assessmentType"`
	Language          string           `json:"language"`
	Difficulty        Difficulty       `json:"difficulty,omitempty"`
	NumberOfQuestions int              `json:"numberOfQuestions"`
	Source            string           `json:"source"`
	GeneratedAt       time.Time        `json:"generatedAt"`
	PublishedAt       time.Time        `json:"publishedAt"`
	Status            AssessmentStatus `json:"status"`
	EndedAt           *time.Time       `json:"endedAt,omitempty"`
	TotalAttempts     int              `json:"totalAttempts"`
}

// AssessmentRecord is a published assessment keyed by its shareable code.
type AssessmentRecord struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Assessment Assessment `json:"assessment"`
	Metadata   Metadata   `json:"metadata"`
}

// QuestionFeedback is the graded outcome of one question for one student.
type QuestionFeedback struct {
	QuestionID    string       `json:"questionId"`
	Question      string       `json:"question"`
	UserAnswer    Answer       `json:"userAnswer"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	IsCorrect     bool         `json:"isCorrect"`
	Explanation   string       `json:"explanation"`
	PointsEarned  int          `json:"points"`
	MaxPoints     int          `json:"maxPoints"`
	Type          QuestionType `json:"type"`
}

// Session is one student's attempt at one assessment. At most one session
// exists per (assessment code, student name) pair.
type Session struct {
	ID               string             `json:"sessionId"`
	AssessmentCode   string             `json:"assessmentCode"`
	StudentName      string             `json:"studentName"`
	Status           SessionStatus      `json:"status"`
	StartedAt        time.Time          `json:"startedAt"`
	CompletedAt      *time.Time         `json:"completedAt,omitempty"`
	Score            int                `json:"score"`
	Responses        []QuestionFeedback `json:"responses"`
	TimeSpentSeconds int                `json:"timeSpent"`
}

// Completed reports whether the session has a completion timestamp.
func (s Session) Completed() bool { return s.CompletedAt != nil }

// SubmissionResult is returned to a student after submitting.
type SubmissionResult struct {
	SessionID          string             `json:"sessionId"`
	StudentName        string             `json:"studentName"`
	AssessmentCode     string             `json:"assessmentCode"`
	Score              int                `json:"score"`
	TotalPossibleScore int                `json:"totalPossibleScore"`
	Accuracy           int                `json:"accuracy"`
	TimeSpentSeconds   int                `json:"timeSpent"`
	CompletedAt        time.Time          `json:"completedAt"`
	Feedback           []QuestionFeedback `json:"feedback"`
}

// GenerateParams holds the teacher's generation request.
type GenerateParams struct {
	AssessmentName    string     `json:"assessmentName"`
	AssessmentType    string     `json:"assessmentType"`
	Language          string     `json:"language"`
	Difficulty        Difficulty `json:"difficulty,omitempty"`
	NumberOfQuestions int        `json:"numberOfQuestions"`
	EasyToHard        bool       `json:"easyToHard"`
	SelectedTopics    []string   `json:"selectedTopics,omitempty"`
	AssessmentPrompt  string     `json:"assessmentPrompt,omitempty"`
}

// QuestionCount returns the number of questions to generate: a fixed ladder
// of 15 for easy-to-hard mode, otherwise the requested count with a default
// of 10.
func (p GenerateParams) QuestionCount() int {
	if p.EasyToHard {
		return 15
	}
	if p.NumberOfQuestions > 0 {
		return p.NumberOfQuestions
	}
	return 10
}

// AuthToken is an issued teacher bearer token.
type AuthToken struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}
