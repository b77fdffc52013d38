package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/proctorvision/internal/app"
	"github.com/ayusman/proctorvision/internal/capture"
	"github.com/ayusman/proctorvision/internal/logger"
	"github.com/ayusman/proctorvision/internal/store"
)

// maxFrameBytes bounds the multipart body accepted by /api/detect.
const maxFrameBytes = 10 << 20

// FrameProcessor analyzes a single decoded frame.
type FrameProcessor interface {
	Process(ctx context.Context, frame *gocv.Mat, sessionID string) (*app.Report, error)
}

// DetectHandler handles POST /api/detect.
type DetectHandler struct {
	proc  FrameProcessor
	store *store.Store
	log   *logrus.Entry
	now   func() time.Time
}

// NewDetectHandler creates a DetectHandler. The store is used to validate
// session IDs and may be nil.
func NewDetectHandler(proc FrameProcessor, s *store.Store, log logrus.FieldLogger) *DetectHandler {
	return &DetectHandler{
		proc:  proc,
		store: s,
		log:   logger.Component(log, "api.detect"),
		now:   time.Now,
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *DetectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFrameBytes)
	if err := r.ParseMultipartForm(maxFrameBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("frame")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing frame")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read frame")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID != "" && h.store != nil {
		sess, err := h.store.Sessions().GetByID(sessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to get session")
			return
		}
		if sess.Submitted() {
			writeError(w, http.StatusConflict, "Session already submitted")
			return
		}
	}

	frame, err := capture.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image format")
		return
	}
	defer frame.Close()

	report, err := h.proc.Process(r.Context(), frame, sessionID)
	if errors.Is(err, app.ErrDetectionUnavailable) {
		writeJSON(w, http.StatusOK, unavailableResponse{
			Warnings:   []string{"Detection system not available"},
			HeadStatus: "unknown",
			Gadgets:    []string{},
			Timestamp:  h.now(),
		})
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Error("Detection failed")
		writeError(w, http.StatusInternalServerError, "Detection error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type unavailableResponse struct {
	Warnings        []string  `json:"warnings"`
	HeadStatus      string    `json:"head_status"`
	HandCount       int       `json:"hand_count"`
	Gadgets         []string  `json:"gadgets"`
	Timestamp       time.Time `json:"timestamp"`
	ScreenshotSaved bool      `json:"screenshot_saved"`
}
