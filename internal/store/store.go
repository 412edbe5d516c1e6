// Package store persists published assessments, student sessions, and
// teacher auth tokens. Two implementations share the Store interface: a
// SQLite-backed store for production and an in-memory store for development
// and tests.
package store

import (
	"errors"
	"time"

	"github.com/varna8104/AssessmentGen/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the given key.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateSession is returned when a session already exists for the
	// (assessment code, student name) key.
	ErrDuplicateSession = errors.New("store: session already exists")
	// ErrDuplicateCode is returned when an assessment code is already taken.
	ErrDuplicateCode = errors.New("store: assessment code already exists")
)

// Store is the persistence boundary. Keys are the assessment code and the
// (assessment code, student name) pair; implementations must guarantee
// read-your-writes within a single call and at most one session per key.
type Store interface {
	// PutAssessment stores a newly published assessment under its code.
	PutAssessment(rec model.AssessmentRecord) error
	// GetAssessment returns the assessment for the code, or ErrNotFound.
	GetAssessment(code string) (model.AssessmentRecord, error)
	// ListAssessments returns all assessments, newest published first.
	ListAssessments() ([]model.AssessmentRecord, error)
	// EndAssessment transitions an assessment to ended at the given time and
	// force-completes its in-progress sessions with their current score.
	// Ending an already-ended assessment is a no-op.
	EndAssessment(code string, at time.Time) error

	// CreateSession stores a new session; ErrDuplicateSession when one
	// already exists for the same assessment code and student name.
	CreateSession(s model.Session) error
	// GetSession returns the session for the key, or ErrNotFound.
	GetSession(code, studentName string) (model.Session, error)
	// UpdateSession overwrites the stored session matching s's key.
	UpdateSession(s model.Session) error
	// ListSessions returns all sessions for one assessment code.
	ListSessions(code string) ([]model.Session, error)
	// ListAllSessions returns every stored session.
	ListAllSessions() ([]model.Session, error)

	// CreateAuthToken persists an issued teacher token.
	CreateAuthToken(t model.AuthToken) error
	// GetAuthToken returns the token record, or ErrNotFound. Expired tokens
	// are deleted and reported as not found.
	GetAuthToken(token string) (model.AuthToken, error)
	// DeleteAuthToken removes a token.
	DeleteAuthToken(token string) error

	Close() error
}

// Open returns a store for the given path. The literal path "memory" (or
// the empty string) selects the in-process store; anything else opens a
// SQLite database at that path.
func Open(path string) (Store, error) {
	if path == "" || path == "memory" {
		return NewMemory(), nil
	}
	return NewSQLite(path)
}
