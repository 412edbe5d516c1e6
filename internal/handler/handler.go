// Package handler exposes the JSON API: teacher auth, assessment
// generation and publishing, live monitoring, and the student flow.
package handler

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/varna8104/AssessmentGen/internal/i18n"
	"github.com/varna8104/AssessmentGen/internal/llm"
	"github.com/varna8104/AssessmentGen/internal/model"
	"github.com/varna8104/AssessmentGen/internal/normalize"
	"github.com/varna8104/AssessmentGen/internal/store"
)

// Generator produces assessments and topics. Satisfied by *llm.Client;
// tests substitute a stub.
type Generator interface {
	GenerateAssessment(ctx context.Context, params model.GenerateParams) (*normalize.RawAssessment, error)
	GenerateTopics(ctx context.Context, params model.GenerateParams) (*llm.TopicsResult, error)
}

// Config holds handler settings.
type Config struct {
	// TeacherCodeHash is the bcrypt hash of the teacher access code.
	TeacherCodeHash string
	// TokenTTL bounds the lifetime of issued teacher tokens.
	TokenTTL time.Duration
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  store.Store
	llm    Generator
	config Config

	// sessionLocks serializes grade-then-persist per (code, student) key so
	// concurrent submits cannot interleave.
	locksMu      sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// New creates a new Handler.
func New(s store.Store, g Generator, cfg Config) *Handler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &Handler{
		store:        s,
		llm:          g,
		config:       cfg,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/teacher", h.handleTeacherLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireTeacher)
			r.Post("/auth/logout", h.handleTeacherLogout)
			r.Post("/generate-assessment", h.handleGenerateAssessment)
			r.Post("/generate-topics", h.handleGenerateTopics)
			r.Post("/assessments/publish", h.handlePublish)
			r.Get("/assessments", h.handleListAssessments)
			r.Get("/assessments/monitor", h.handleMonitor)
			r.Put("/assessments/monitor", h.handleMonitorAction)
		})

		r.Post("/student/join", h.handleJoin)
		r.Put("/student/progress", h.handleProgress)
		r.Post("/student/submit", h.handleSubmit)
		r.Get("/student/results", h.handleResults)
	})
}

func (h *Handler) sessionLock(code, studentName string) *sync.Mutex {
	key := code + "\x00" + studentName
	h.locksMu.Lock()
	defer h.locksMu.Unlock()
	mu, ok := h.sessionLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		h.sessionLocks[key] = mu
	}
	return mu
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// errorJSON writes the standard failure envelope with a localized message.
func errorJSON(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": appI18n.T(r.Context(), msgID),
	})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newAssessmentCode returns a 6-character shareable code. Ambiguous
// characters (0/O, 1/I) are excluded from the alphabet.
func newAssessmentCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
