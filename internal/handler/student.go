package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/varna8104/AssessmentGen/internal/grade"
	appI18n "github.com/varna8104/AssessmentGen/internal/i18n"
	"github.com/varna8104/AssessmentGen/internal/model"
	"github.com/varna8104/AssessmentGen/internal/store"
)

type studentRequest struct {
	AssessmentCode string                  `json:"assessmentCode"`
	StudentName    string                  `json:"studentName"`
	Answers        map[string]model.Answer `json:"answers"`
	TimeSpent      int                     `json:"timeSpent"`
	SessionID      string                  `json:"sessionId"`
}

func (req *studentRequest) normalize() {
	req.AssessmentCode = strings.ToUpper(strings.TrimSpace(req.AssessmentCode))
	req.StudentName = strings.TrimSpace(req.StudentName)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	req.normalize()
	if req.AssessmentCode == "" {
		errorJSON(w, r, http.StatusBadRequest, "error.code_required")
		return
	}
	if req.StudentName == "" {
		errorJSON(w, r, http.StatusBadRequest, "error.name_required")
		return
	}

	rec, err := h.store.GetAssessment(req.AssessmentCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, r, http.StatusNotFound, "error.assessment_not_found")
			return
		}
		slog.Error("get assessment", "code", req.AssessmentCode, "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	if rec.Metadata.Status != model.StatusActive {
		errorJSON(w, r, http.StatusForbidden, "error.assessment_ended")
		return
	}

	sess, err := h.store.GetSession(req.AssessmentCode, req.StudentName)
	switch {
	case err == nil && sess.Completed():
		h.rejectCompleted(w, r, sess)
		return

	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"message":     "Continuing assessment...",
			"assessment":  rec.Assessment.StudentView(),
			"studentName": sess.StudentName,
			"sessionId":   sess.ID,
			"continuing":  true,
		})
		return

	case !errors.Is(err, store.ErrNotFound):
		slog.Error("get session", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	sess = model.Session{
		ID:             "session_" + uuid.NewString(),
		AssessmentCode: req.AssessmentCode,
		StudentName:    req.StudentName,
		Status:         model.SessionInProgress,
		StartedAt:      time.Now().UTC(),
		Responses:      []model.QuestionFeedback{},
	}
	if err := h.store.CreateSession(sess); err != nil {
		// Two joins racing for the same name: the loser continues the
		// winner's session.
		if errors.Is(err, store.ErrDuplicateSession) {
			existing, getErr := h.store.GetSession(req.AssessmentCode, req.StudentName)
			if getErr == nil && !existing.Completed() {
				sess = existing
			} else if getErr == nil {
				h.rejectCompleted(w, r, existing)
				return
			}
		} else {
			slog.Error("create session", "error", err)
			errorJSON(w, r, http.StatusInternalServerError, "error.internal")
			return
		}
	}

	slog.Info("student joined", "code", req.AssessmentCode, "student", req.StudentName)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Assessment loaded successfully",
		"assessment":  rec.Assessment.StudentView(),
		"studentName": sess.StudentName,
		"sessionId":   sess.ID,
	})
}

func (h *Handler) rejectCompleted(w http.ResponseWriter, r *http.Request, sess model.Session) {
	writeJSON(w, http.StatusConflict, map[string]any{
		"success":          false,
		"message":          appI18n.T(r.Context(), "error.already_completed"),
		"alreadyCompleted": true,
		"studentData": map[string]any{
			"name":        sess.StudentName,
			"score":       sess.Score,
			"completedAt": sess.CompletedAt,
			"status":      sess.Status,
		},
	})
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	req.normalize()
	if req.AssessmentCode == "" || req.StudentName == "" {
		errorJSON(w, r, http.StatusBadRequest, "error.missing_fields")
		return
	}

	rec, err := h.store.GetAssessment(req.AssessmentCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, r, http.StatusNotFound, "error.assessment_not_found")
			return
		}
		slog.Error("get assessment", "code", req.AssessmentCode, "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	mu := h.sessionLock(req.AssessmentCode, req.StudentName)
	mu.Lock()
	defer mu.Unlock()

	sess, err := h.store.GetSession(req.AssessmentCode, req.StudentName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, r, http.StatusNotFound, "error.session_not_found")
			return
		}
		slog.Error("get session", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	if sess.Completed() {
		h.rejectCompleted(w, r, sess)
		return
	}

	// Answers are graded here; a client-reported score is never trusted.
	score, feedback := grade.Answered(rec.Assessment.Questions, req.Answers)
	sess.Score = score
	sess.Responses = feedback
	if req.TimeSpent > 0 {
		sess.TimeSpentSeconds = req.TimeSpent
	}
	if err := h.store.UpdateSession(sess); err != nil {
		slog.Error("update session", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Student progress updated successfully",
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	req.normalize()
	if req.AssessmentCode == "" || req.StudentName == "" || req.Answers == nil {
		errorJSON(w, r, http.StatusBadRequest, "error.missing_fields")
		return
	}

	rec, err := h.store.GetAssessment(req.AssessmentCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, r, http.StatusNotFound, "error.assessment_not_found")
			return
		}
		slog.Error("get assessment", "code", req.AssessmentCode, "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	mu := h.sessionLock(req.AssessmentCode, req.StudentName)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	sess, err := h.store.GetSession(req.AssessmentCode, req.StudentName)
	existing := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("get session", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	if existing && sess.Completed() {
		h.rejectCompleted(w, r, sess)
		return
	}

	total, feedback := grade.Submission(rec.Assessment.Questions, req.Answers)

	if !existing {
		sess = model.Session{
			ID:             "session_" + uuid.NewString(),
			AssessmentCode: req.AssessmentCode,
			StudentName:    req.StudentName,
			StartedAt:      now.Add(-time.Duration(req.TimeSpent) * time.Second),
		}
		if req.SessionID != "" {
			sess.ID = req.SessionID
		}
	}
	sess.Status = model.SessionCompleted
	sess.CompletedAt = &now
	sess.Score = total
	sess.Responses = feedback
	sess.TimeSpentSeconds = req.TimeSpent

	if existing {
		err = h.store.UpdateSession(sess)
	} else {
		err = h.store.CreateSession(sess)
	}
	if err != nil {
		slog.Error("persist submission", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	totalPossible := totalPossibleScore(rec.Assessment)
	slog.Info("assessment submitted",
		"code", req.AssessmentCode,
		"student", req.StudentName,
		"score", total,
		"totalPossible", totalPossible)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Assessment submitted successfully",
		"result": model.SubmissionResult{
			SessionID:          sess.ID,
			StudentName:        sess.StudentName,
			AssessmentCode:     sess.AssessmentCode,
			Score:              total,
			TotalPossibleScore: totalPossible,
			Accuracy:           roundedPercent(total, totalPossible),
			TimeSpentSeconds:   sess.TimeSpentSeconds,
			CompletedAt:        now,
			Feedback:           feedback,
		},
	})
}

type studentResult struct {
	Name           string     `json:"name"`
	Score          int        `json:"score"`
	Accuracy       int        `json:"accuracy"`
	TimeSpent      int        `json:"timeSpent"`
	CompletedAt    *time.Time `json:"completedAt"`
	CorrectAnswers int        `json:"correctAnswers"`
	TotalQuestions int        `json:"totalQuestions"`
	Rank           int        `json:"rank"`
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))
	studentName := strings.TrimSpace(r.URL.Query().Get("student"))
	if code == "" {
		errorJSON(w, r, http.StatusBadRequest, "error.code_required")
		return
	}

	rec, err := h.store.GetAssessment(code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, r, http.StatusNotFound, "error.assessment_not_found")
			return
		}
		slog.Error("get assessment", "code", code, "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	sessions, err := h.store.ListSessions(code)
	if err != nil {
		slog.Error("list sessions", "code", code, "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	totalPossible := totalPossibleScore(rec.Assessment)
	totalQuestions := len(rec.Assessment.Questions)

	students := make([]studentResult, 0, len(sessions))
	for _, s := range sessions {
		if !s.Completed() {
			continue
		}
		correct := 0
		for _, fb := range s.Responses {
			if fb.IsCorrect {
				correct++
			}
		}
		students = append(students, studentResult{
			Name:           s.StudentName,
			Score:          s.Score,
			Accuracy:       roundedPercent(s.Score, totalPossible),
			TimeSpent:      s.TimeSpentSeconds,
			CompletedAt:    s.CompletedAt,
			CorrectAnswers: correct,
			TotalQuestions: totalQuestions,
		})
	}
	sort.SliceStable(students, func(i, j int) bool {
		if students[i].Score != students[j].Score {
			return students[i].Score > students[j].Score
		}
		return students[i].TimeSpent < students[j].TimeSpent
	})
	for i := range students {
		students[i].Rank = i + 1
	}

	var current *studentResult
	for i := range students {
		if studentName != "" && students[i].Name == studentName {
			current = &students[i]
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"assessmentTitle":    rec.Assessment.Title,
		"totalPossibleScore": totalPossible,
		"students":           students,
		"currentStudent":     current,
		"stats":              resultStats(students),
	})
}

func resultStats(students []studentResult) map[string]int {
	stats := map[string]int{
		"totalStudents":   len(students),
		"averageScore":    0,
		"averageAccuracy": 0,
		"averageTime":     0,
		"highestScore":    0,
		"lowestScore":     0,
	}
	if len(students) == 0 {
		return stats
	}
	var scoreSum, accSum, timeSum float64
	high, low := students[0].Score, students[0].Score
	for _, s := range students {
		scoreSum += float64(s.Score)
		accSum += float64(s.Accuracy)
		timeSum += float64(s.TimeSpent)
		if s.Score > high {
			high = s.Score
		}
		if s.Score < low {
			low = s.Score
		}
	}
	n := float64(len(students))
	stats["averageScore"] = int(math.Round(scoreSum / n))
	stats["averageAccuracy"] = int(math.Round(accSum / n))
	stats["averageTime"] = int(math.Round(timeSum / n))
	stats["highestScore"] = high
	stats["lowestScore"] = low
	return stats
}

func roundedPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
