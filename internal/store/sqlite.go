package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/varna8104/AssessmentGen/internal/model"

	_ "modernc.org/sqlite"
)

// SQLite is the durable Store implementation. Assessments are stored as JSON
// documents keyed by code; sessions get their own columns plus a JSON
// responses blob, with a unique index enforcing one session per
// (assessment code, student name).
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps writes serialized and makes :memory: databases
	// behave: each pooled connection would otherwise get its own database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		code TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		published_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		assessment_code TEXT NOT NULL,
		student_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'in_progress',
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		score INTEGER NOT NULL DEFAULT 0,
		time_spent INTEGER NOT NULL DEFAULT 0,
		responses TEXT NOT NULL DEFAULT '[]',
		UNIQUE(assessment_code, student_name),
		FOREIGN KEY (assessment_code) REFERENCES assessments(code)
	);

	CREATE TABLE IF NOT EXISTS auth_tokens (
		token TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// PutAssessment stores a published assessment document.
func (s *SQLite) PutAssessment(rec model.AssessmentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO assessments (code, id, data, status, published_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Code, rec.ID, string(data), rec.Metadata.Status, rec.Metadata.PublishedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

// GetAssessment returns the assessment stored under code.
func (s *SQLite) GetAssessment(code string) (model.AssessmentRecord, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM assessments WHERE code = ?`, code).Scan(&data)
	if err == sql.ErrNoRows {
		return model.AssessmentRecord{}, ErrNotFound
	}
	if err != nil {
		return model.AssessmentRecord{}, err
	}
	var rec model.AssessmentRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("unmarshal assessment %s: %w", code, err)
	}
	return rec, nil
}

// ListAssessments returns all assessments, newest published first.
func (s *SQLite) ListAssessments() ([]model.AssessmentRecord, error) {
	rows, err := s.db.Query(`SELECT data FROM assessments ORDER BY published_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.AssessmentRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec model.AssessmentRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal assessment: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// EndAssessment marks an assessment ended and force-completes its
// in-progress sessions, all in one transaction.
func (s *SQLite) EndAssessment(code string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRow(`SELECT data FROM assessments WHERE code = ?`, code).Scan(&data)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var rec model.AssessmentRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return fmt.Errorf("unmarshal assessment %s: %w", code, err)
	}
	if rec.Metadata.Status == model.StatusEnded {
		return nil
	}
	rec.Metadata.Status = model.StatusEnded
	rec.Metadata.EndedAt = &at

	updated, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE assessments SET data = ?, status = ?, ended_at = ? WHERE code = ?`,
		string(updated), model.StatusEnded, at, code,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE sessions SET status = ?, completed_at = ? WHERE assessment_code = ? AND completed_at IS NULL`,
		model.SessionCompleted, at, code,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateSession inserts a new session for its (code, student) key.
func (s *SQLite) CreateSession(sess model.Session) error {
	responses, err := json.Marshal(sess.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, assessment_code, student_name, status, started_at, completed_at, score, time_spent, responses)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.AssessmentCode, sess.StudentName, sess.Status,
		sess.StartedAt, sess.CompletedAt, sess.Score, sess.TimeSpentSeconds, string(responses),
	)
	if isUniqueViolation(err) {
		return ErrDuplicateSession
	}
	return err
}

// GetSession returns the session for the (code, student) key.
func (s *SQLite) GetSession(code, studentName string) (model.Session, error) {
	row := s.db.QueryRow(
		`SELECT id, assessment_code, student_name, status, started_at, completed_at, score, time_spent, responses
		 FROM sessions WHERE assessment_code = ? AND student_name = ?`,
		code, studentName,
	)
	return scanSession(row)
}

// UpdateSession overwrites the stored session matching sess's key.
func (s *SQLite) UpdateSession(sess model.Session) error {
	responses, err := json.Marshal(sess.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE sessions SET status = ?, completed_at = ?, score = ?, time_spent = ?, responses = ?
		 WHERE assessment_code = ? AND student_name = ?`,
		sess.Status, sess.CompletedAt, sess.Score, sess.TimeSpentSeconds, string(responses),
		sess.AssessmentCode, sess.StudentName,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSessions returns every session for one assessment code.
func (s *SQLite) ListSessions(code string) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT id, assessment_code, student_name, status, started_at, completed_at, score, time_spent, responses
		 FROM sessions WHERE assessment_code = ? ORDER BY started_at`,
		code,
	)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListAllSessions returns every stored session.
func (s *SQLite) ListAllSessions() ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT id, assessment_code, student_name, status, started_at, completed_at, score, time_spent, responses
		 FROM sessions ORDER BY started_at`,
	)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// CreateAuthToken persists an issued teacher token.
func (s *SQLite) CreateAuthToken(t model.AuthToken) error {
	_, err := s.db.Exec(
		`INSERT INTO auth_tokens (token, created_at, expires_at) VALUES (?, ?, ?)`,
		t.Token, t.CreatedAt, t.ExpiresAt,
	)
	return err
}

// GetAuthToken returns the token record; expired tokens are deleted and
// reported as not found.
func (s *SQLite) GetAuthToken(token string) (model.AuthToken, error) {
	var t model.AuthToken
	err := s.db.QueryRow(
		`SELECT token, created_at, expires_at FROM auth_tokens WHERE token = ?`, token,
	).Scan(&t.Token, &t.CreatedAt, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.AuthToken{}, ErrNotFound
	}
	if err != nil {
		return model.AuthToken{}, err
	}
	if time.Now().After(t.ExpiresAt) {
		_ = s.DeleteAuthToken(token)
		return model.AuthToken{}, ErrNotFound
	}
	return t, nil
}

// DeleteAuthToken removes a token.
func (s *SQLite) DeleteAuthToken(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens WHERE token = ?`, token)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.Session, error) {
	var sess model.Session
	var responses string
	err := row.Scan(
		&sess.ID, &sess.AssessmentCode, &sess.StudentName, &sess.Status,
		&sess.StartedAt, &sess.CompletedAt, &sess.Score, &sess.TimeSpentSeconds, &responses,
	)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if err := json.Unmarshal([]byte(responses), &sess.Responses); err != nil {
		return model.Session{}, fmt.Errorf("unmarshal responses: %w", err)
	}
	return sess, nil
}

func collectSessions(rows *sql.Rows) ([]model.Session, error) {
	defer rows.Close()
	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
