package model

import "time"

// ResultsExport is the top-level JSON structure produced by the export command.
type ResultsExport struct {
	ExportedAt  time.Time           `json:"exported_at"`
	Assessments []AssessmentResults `json:"assessments"`
}

// AssessmentResults holds one assessment and every session recorded for it.
type AssessmentResults struct {
	Code          string           `json:"code"`
	Title         string           `json:"title"`
	Status        AssessmentStatus `json:"status"`
	PublishedAt   time.Time        `json:"published_at"`
	EndedAt       *time.Time       `json:"ended_at,omitempty"`
	TotalPoints   int              `json:"total_points"`
	TotalAttempts int              `json:"total_attempts"`
	Sessions      []SessionResult  `json:"sessions"`
}

// SessionResult is one student's outcome for export.
type SessionResult struct {
	StudentName      string             `json:"student_name"`
	Status           SessionStatus      `json:"status"`
	StartedAt        time.Time          `json:"started_at"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	Score            int                `json:"score"`
	TimeSpentSeconds int                `json:"time_spent_seconds"`
	Responses        []QuestionFeedback `json:"responses"`
}
