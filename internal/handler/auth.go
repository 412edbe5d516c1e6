package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/varna8104/AssessmentGen/internal/model"
	"github.com/varna8104/AssessmentGen/internal/store"
)

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *Handler) handleTeacherLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeacherCode string `json:"teacherCode"`
	}
	if err := decodeJSON(r, &req); err != nil || req.TeacherCode == "" {
		errorJSON(w, r, http.StatusBadRequest, "error.invalid_request")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.config.TeacherCodeHash), []byte(req.TeacherCode)); err != nil {
		slog.Warn("teacher login rejected", "remote", r.RemoteAddr)
		errorJSON(w, r, http.StatusUnauthorized, "error.invalid_teacher_code")
		return
	}

	token, err := generateToken()
	if err != nil {
		slog.Error("generate token", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}
	now := time.Now().UTC()
	record := model.AuthToken{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(h.config.TokenTTL),
	}
	if err := h.store.CreateAuthToken(record); err != nil {
		slog.Error("persist token", "error", err)
		errorJSON(w, r, http.StatusInternalServerError, "error.internal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Teacher authenticated successfully",
		"token":     token,
		"expiresAt": record.ExpiresAt,
	})
}

func (h *Handler) handleTeacherLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := h.store.DeleteAuthToken(token); err != nil {
			slog.Error("delete token", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

// requireTeacher checks the bearer token against the store.
func (h *Handler) requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			errorJSON(w, r, http.StatusUnauthorized, "error.unauthorized")
			return
		}
		if _, err := h.store.GetAuthToken(token); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.Error("token lookup", "error", err)
			}
			errorJSON(w, r, http.StatusUnauthorized, "error.unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
