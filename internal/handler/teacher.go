package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/varna8104/AssessmentGen/internal/model"
	"github.com/varna8104/AssessmentGen/internal/monitor"
	"github.com/varna8104/AssessmentGen/internal/normalize"
	"github.com/varna8104/AssessmentGen/internal/store"
)

func (h *Handler) handleGenerateAssessment(w http.ResponseWriter, r *http.Request) {
	var params model.GenerateParams
	if err := decodeJSON(r, &params); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	if params.AssessmentName == "" || params.AssessmentType == "" || params.Language == "" {
		errorJSON(w, r, http.StatusBadRequest, "error.missing_fields")
		return
	}

	slog.Info("generating assessment",
		"name", params.AssessmentName,
		"type", params.AssessmentType,
		"questions", params.QuestionCount())

	raw, err := h.llm.GenerateAssessment(r.Context(), params)
	if err != nil {
		slog.Error("assessment generation failed", "error", err)
		errorJSON(w, r, http.StatusBadGateway, "error.generation_failed")
		return
	}
	assessment := normalize.Assessment(*raw, params)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"assessment": assessment,
		"metadata": map[string]any{
			"source":            "ai",
			"generatedAt":       time.Now().UTC(),
			"numberOfQuestions": len(assessment.Questions),
			"assessmentName":    params.AssessmentName,
			"assessmentType":    params.AssessmentType,
			"language":          params.Language,
			"difficulty":        params.Difficulty,
			"easyToHard":        params.EasyToHard,
			"selectedTopics":    params.SelectedTopics,
		},
	})
}

func (h *Handler) handleGenerateTopics(w http.ResponseWriter, r *http.Request) {
	var params model.GenerateParams
	if err := decodeJSON(r, &params); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	if params.AssessmentName == "" {
		errorJSON(w, r, http.StatusBadRequest, "error.missing_fields")
		return
	}

	result, err := h.llm.GenerateTopics(r.Context(), params)
	if err != nil {
		slog.Error("topic generation failed", "error", err)
		errorJSON(w, r, http.StatusBadGateway, "error.generation_failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"topics":    result.Topics,
		"mainTopic": result.MainTopic,
		"metadata": map[string]any{
			"subject":     params.AssessmentName,
			"topicCount":  len(result.Topics),
			"generatedAt": time.Now().UTC(),
		},
	})
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Assessment model.Assessment `json:"assessment"`
		Metadata   model.Metadata   `json:"metadata"`
		Code       string           `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	if len(req.Assessment.Questions) == 0 {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}

	now := time.Now().UTC()
	req.Metadata.PublishedAt = now
	req.Metadata.Status = model.StatusActive
	req.Metadata.EndedAt = nil
	req.Metadata.TotalAttempts = 0

	rec := model.AssessmentRecord{
		ID:         "assess_" + uuid.NewString(),
		Assessment: req.Assessment,
		Metadata:   req.Metadata,
	}

	// Retry code generation on the rare collision; a client-supplied code
	// gets exactly one attempt.
	clientCode := strings.ToUpper(strings.TrimSpace(req.Code))
	for attempt := 0; attempt < 5; attempt++ {
		code := clientCode
		if code == "" {
			generated, err := newAssessmentCode()
			if err != nil {
				slog.Error("generate assessment code", "error", err)
				errorJSON(w, r, http.StatusInternalServerError, "error.internal")
				return
			}
			code = generated
		}
		rec.Code = code

		err := h.store.PutAssessment(rec)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicateCode) && clientCode == "" {
			continue
		}
		slog.Error("publish assessment", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	slog.Info("assessment published", "code", rec.Code, "questions", len(rec.Assessment.Questions))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Assessment published successfully",
		"data": map[string]any{
			"assessmentId":   rec.ID,
			"code":           rec.Code,
			"publishedAt":    rec.Metadata.PublishedAt,
			"totalQuestions": len(rec.Assessment.Questions),
			"totalPoints":    rec.Assessment.TotalPoints,
		},
	})
}

func (h *Handler) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListAssessments()
	if err != nil {
		slog.Error("list assessments", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	type summary struct {
		ID             string                 `json:"id"`
		Code           string                 `json:"code"`
		Title          string                 `json:"title"`
		TotalQuestions int                    `json:"totalQuestions"`
		TotalAttempts  int                    `json:"totalAttempts"`
		PublishedAt    time.Time              `json:"publishedAt"`
		Status         model.AssessmentStatus `json:"status"`
	}

	summaries := make([]summary, 0, len(records))
	for _, rec := range records {
		sessions, err := h.store.ListSessions(rec.Code)
		if err != nil {
			slog.Error("list sessions", "code", rec.Code, "error", err)
			errorJSON(w, r, http.StatusInternalServerError, "error.internal")
			return
		}
		summaries = append(summaries, summary{
			ID:             rec.ID,
			Code:           rec.Code,
			Title:          rec.Assessment.Title,
			TotalQuestions: len(rec.Assessment.Questions),
			TotalAttempts:  len(sessions),
			PublishedAt:    rec.Metadata.PublishedAt,
			Status:         rec.Metadata.Status,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"assessments": summaries,
	})
}

type assessmentDetail struct {
	Code                 string                     `json:"code"`
	Title                string                     `json:"title"`
	Description          string                     `json:"description"`
	StartedAt            time.Time                  `json:"startedAt"`
	ActiveStudents       int                        `json:"activeStudents"`
	CompletedStudents    int                        `json:"completedStudents"`
	AvgScore             int                        `json:"avgScore"`
	ActiveLeaderboard    []monitor.LeaderboardEntry `json:"activeLeaderboard"`
	CompletedLeaderboard []monitor.LeaderboardEntry `json:"completedLeaderboard"`
	TotalQuestions       int                        `json:"totalQuestions"`
	TotalPossibleScore   int                        `json:"totalPossibleScore"`
	Metadata             model.Metadata             `json:"metadata"`
}

type pastAssessment struct {
	Code             string         `json:"code"`
	Title            string         `json:"title"`
	ParticipantCount int            `json:"participantCount"`
	AvgScore         int            `json:"avgScore"`
	CompletedAt      time.Time      `json:"completedAt"`
	Metadata         model.Metadata `json:"metadata"`
}

func (h *Handler) handleMonitor(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListAssessments()
	if err != nil {
		slog.Error("list assessments", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	now := time.Now().UTC()

	var details []assessmentDetail
	var pastRecords []model.AssessmentRecord
	var activeSessions []model.Session
	totalsByCode := make(map[string]int)

	for _, rec := range records {
		if rec.Metadata.Status != model.StatusActive {
			pastRecords = append(pastRecords, rec)
			continue
		}

		sessions, err := h.store.ListSessions(rec.Code)
		if err != nil {
			slog.Error("list sessions", "code", rec.Code, "error", err)
			errorJSON(w, r, http.StatusInternalServerError, "error.internal")
			return
		}
		activeSessions = append(activeSessions, sessions...)

		totalPossible := totalPossibleScore(rec.Assessment)
		totalQuestions := len(rec.Assessment.Questions)
		totalsByCode[rec.Code] = totalPossible

		inProgress, completed := monitor.Partition(sessions)
		details = append(details, assessmentDetail{
			Code:              rec.Code,
			Title:             rec.Assessment.Title,
			Description:       rec.Assessment.Description,
			StartedAt:         rec.Metadata.PublishedAt,
			ActiveStudents:    len(inProgress),
			CompletedStudents: len(completed),
			AvgScore:          monitor.AverageScore(completed, totalPossible),
			ActiveLeaderboard: monitor.ActiveLeaderboard(
				inProgress, totalPossible, totalQuestions, rec.Assessment.EstimatedTimeMinutes, now),
			CompletedLeaderboard: monitor.CompletedLeaderboard(completed, totalPossible, totalQuestions),
			TotalQuestions:       totalQuestions,
			TotalPossibleScore:   totalPossible,
			Metadata:             rec.Metadata,
		})
	}

	stats := monitor.OverallStats(len(details), activeSessions, totalsByCode, now)
	past, err := h.pastAssessments(pastRecords)
	if err != nil {
		slog.Error("collect past assessments", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	if details == nil {
		details = []assessmentDetail{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"stats":             stats,
			"activeAssessments": details,
			"pastAssessments":   past,
		},
	})
}

// pastAssessments summarizes the six most recently ended assessments.
func (h *Handler) pastAssessments(records []model.AssessmentRecord) ([]pastAssessment, error) {
	sort.Slice(records, func(i, j int) bool {
		return endedOrPublished(records[i]).After(endedOrPublished(records[j]))
	})
	if len(records) > 6 {
		records = records[:6]
	}

	past := make([]pastAssessment, 0, len(records))
	for _, rec := range records {
		sessions, err := h.store.ListSessions(rec.Code)
		if err != nil {
			return nil, err
		}
		_, completed := monitor.Partition(sessions)
		past = append(past, pastAssessment{
			Code:             rec.Code,
			Title:            rec.Assessment.Title,
			ParticipantCount: len(sessions),
			AvgScore:         monitor.AverageScore(completed, totalPossibleScore(rec.Assessment)),
			CompletedAt:      endedOrPublished(rec),
			Metadata:         rec.Metadata,
		})
	}
	return past, nil
}

func (h *Handler) handleMonitorAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action         string `json:"action"`
		AssessmentCode string `json:"assessmentCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}
	now := time.Now().UTC()

	switch {
	case req.Action == "endAssessment" && req.AssessmentCode != "":
		code := strings.ToUpper(req.AssessmentCode)
		if err := h.store.EndAssessment(code, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				errorJSON(w, r, http.StatusNotFound, "error.assessment_not_found")
				return
			}
			slog.Error("end assessment", "code", code, "error", err)
			errorJSON(w, r, http.StatusInternalServerError, "error.internal")
			return
		}
		slog.Info("assessment ended", "code", code)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Assessment ended successfully",
		})

	case req.Action == "endAllAssessments":
		records, err := h.store.ListAssessments()
		if err != nil {
			slog.Error("list assessments", "error", err)
			errorJSON(w, r, http.StatusInternalServerError, "error.internal")
			return
		}
		for _, rec := range records {
			if rec.Metadata.Status != model.StatusActive {
				continue
			}
			if err := h.store.EndAssessment(rec.Code, now); err != nil {
				slog.Error("end assessment", "code", rec.Code, "error", err)
				errorJSON(w, r, http.StatusInternalServerError, "error.internal")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "All assessments ended successfully",
		})

	default:
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
	}
}

func totalPossibleScore(a model.Assessment) int {
	total := 0
	for _, q := range a.Questions {
		total += q.Points
	}
	return total
}

func endedOrPublished(rec model.AssessmentRecord) time.Time {
	if rec.Metadata.EndedAt != nil {
		return *rec.Metadata.EndedAt
	}
	return rec.Metadata.PublishedAt
}
