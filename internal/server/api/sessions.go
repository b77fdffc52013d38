package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/proctorvision/internal/store"
)

// SessionHandler handles HTTP requests for exam session resources.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes requests to the appropriate method.
// Expected paths: /api/sessions, /api/sessions/{id},
// /api/sessions/{id}/submit and /api/sessions/{id}/violations.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, r, id)
	case len(parts) == 2 && parts[1] == "submit":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.submit(w, r, id)
	case len(parts) == 2 && parts[1] == "violations":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.violations(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type createSessionRequest struct {
	Enrollment string `json:"enrollment" validate:"required,max=64"`
}

type submitSessionRequest struct {
	Auto bool `json:"auto"`
}

type sessionResponse struct {
	ID            string  `json:"id"`
	Enrollment    string  `json:"enrollment"`
	StartedAt     string  `json:"started_at"`
	SubmittedAt   *string `json:"submitted_at"`
	AutoSubmitted bool    `json:"auto_submitted"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type submitSessionResponse struct {
	Message string          `json:"message"`
	Session sessionResponse `json:"session"`
}

type violationResponse struct {
	ID             int64  `json:"id"`
	Type           string `json:"violation_type"`
	Description    string `json:"description"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	DetectedAt     string `json:"detected_at"`
}

type listViolationsResponse struct {
	SessionID  string              `json:"session_id"`
	Count      int                 `json:"count"`
	Violations []violationResponse `json:"violations"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:            s.ID,
		Enrollment:    s.Enrollment,
		StartedAt:     s.StartedAt.Format(time.RFC3339),
		AutoSubmitted: s.AutoSubmitted,
	}
	if s.SubmittedAt != nil {
		at := s.SubmittedAt.Format(time.RFC3339)
		resp.SubmittedAt = &at
	}
	return resp
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// create handles POST /api/sessions.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Enrollment = strings.TrimSpace(req.Enrollment)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Enrollment is required")
		return
	}

	sess := &store.Session{
		ID:         uuid.New().String(),
		Enrollment: req.Enrollment,
	}
	if err := h.store.Sessions().Create(sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// submit handles POST /api/sessions/{id}/submit. An empty body submits manually.
func (h *SessionHandler) submit(w http.ResponseWriter, r *http.Request, id string) {
	var req submitSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	sess, err := h.store.Sessions().Submit(id, req.Auto)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, store.ErrAlreadySubmitted):
			writeError(w, http.StatusConflict, "Session already submitted")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to submit session")
		}
		return
	}

	writeJSON(w, http.StatusOK, submitSessionResponse{
		Message: "Exam submitted successfully",
		Session: toSessionResponse(sess),
	})
}

// violations handles GET /api/sessions/{id}/violations.
func (h *SessionHandler) violations(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	list, err := h.store.Violations().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list violations")
		return
	}

	resp := listViolationsResponse{
		SessionID:  id,
		Count:      len(list),
		Violations: make([]violationResponse, 0, len(list)),
	}
	for _, v := range list {
		resp.Violations = append(resp.Violations, violationResponse{
			ID:             v.ID,
			Type:           string(v.Type),
			Description:    v.Description,
			ScreenshotPath: v.ScreenshotPath,
			DetectedAt:     v.DetectedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
