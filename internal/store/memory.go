package store

import (
	"sort"
	"sync"
	"time"

	"github.com/varna8104/AssessmentGen/internal/model"
)

// Memory is an in-process Store used in development and tests. It mirrors
// the SQLite implementation's semantics, including the one-session-per-key
// constraint and expired-token cleanup.
type Memory struct {
	mu          sync.RWMutex
	assessments map[string]model.AssessmentRecord
	sessions    map[sessionKey]model.Session
	tokens      map[string]model.AuthToken
}

type sessionKey struct {
	code    string
	student string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		assessments: make(map[string]model.AssessmentRecord),
		sessions:    make(map[sessionKey]model.Session),
		tokens:      make(map[string]model.AuthToken),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) PutAssessment(rec model.AssessmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[rec.Code]; ok {
		return ErrDuplicateCode
	}
	m.assessments[rec.Code] = rec
	return nil
}

func (m *Memory) GetAssessment(code string) (model.AssessmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.assessments[code]
	if !ok {
		return model.AssessmentRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) ListAssessments() ([]model.AssessmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]model.AssessmentRecord, 0, len(m.assessments))
	for _, rec := range m.assessments {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Metadata.PublishedAt.After(records[j].Metadata.PublishedAt)
	})
	return records, nil
}

func (m *Memory) EndAssessment(code string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.assessments[code]
	if !ok {
		return ErrNotFound
	}
	if rec.Metadata.Status == model.StatusEnded {
		return nil
	}
	rec.Metadata.Status = model.StatusEnded
	endedAt := at
	rec.Metadata.EndedAt = &endedAt
	m.assessments[code] = rec

	for key, sess := range m.sessions {
		if key.code != code || sess.CompletedAt != nil {
			continue
		}
		completedAt := at
		sess.Status = model.SessionCompleted
		sess.CompletedAt = &completedAt
		m.sessions[key] = sess
	}
	return nil
}

func (m *Memory) CreateSession(s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{code: s.AssessmentCode, student: s.StudentName}
	if _, ok := m.sessions[key]; ok {
		return ErrDuplicateSession
	}
	m.sessions[key] = s
	return nil
}

func (m *Memory) GetSession(code, studentName string) (model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionKey{code: code, student: studentName}]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *Memory) UpdateSession(s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{code: s.AssessmentCode, student: s.StudentName}
	if _, ok := m.sessions[key]; !ok {
		return ErrNotFound
	}
	m.sessions[key] = s
	return nil
}

func (m *Memory) ListSessions(code string) ([]model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sessions []model.Session
	for key, sess := range m.sessions {
		if key.code == code {
			sessions = append(sessions, sess)
		}
	}
	sortSessions(sessions)
	return sessions, nil
}

func (m *Memory) ListAllSessions() ([]model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]model.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	sortSessions(sessions)
	return sessions, nil
}

func (m *Memory) CreateAuthToken(t model.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.Token] = t
	return nil
}

func (m *Memory) GetAuthToken(token string) (model.AuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return model.AuthToken{}, ErrNotFound
	}
	if time.Now().After(t.ExpiresAt) {
		delete(m.tokens, token)
		return model.AuthToken{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) DeleteAuthToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func sortSessions(sessions []model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].StudentName < sessions[j].StudentName
	})
}
