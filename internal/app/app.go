// Package app wires perception, the proctoring rules, evidence capture and
// notification into a single frame-processing service.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/proctorvision/internal/capture"
	"github.com/ayusman/proctorvision/internal/detector"
	"github.com/ayusman/proctorvision/internal/evidence"
	"github.com/ayusman/proctorvision/internal/logger"
	"github.com/ayusman/proctorvision/internal/notify"
	"github.com/ayusman/proctorvision/internal/proctor"
	"github.com/ayusman/proctorvision/internal/store"
)

// ErrDetectionUnavailable is returned when the perception collaborators are
// not configured.
var ErrDetectionUnavailable = errors.New("detection system not available")

// subscriberBuffer is the report channel capacity per subscriber.
const subscriberBuffer = 8

// Config holds the collaborators of an App. Only Landmarks and Objects are
// required for Process; everything else is optional.
type Config struct {
	Store     *store.Store
	Landmarks detector.LandmarkProvider
	Objects   detector.ObjectDetector
	Pipeline  *proctor.Pipeline
	Persister evidence.Persister
	Notifier  notify.Notifier
	Camera    capture.Camera
	FPS       int
	Logger    logrus.FieldLogger
}

// Report is the outcome of processing one frame.
type Report struct {
	proctor.Result
	SessionID       string    `json:"session_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	ScreenshotSaved bool      `json:"screenshot_saved"`
	ScreenshotPath  string    `json:"screenshot_path,omitempty"`
}

// App processes frames and runs the optional live monitoring loop.
type App struct {
	config   Config
	pipeline *proctor.Pipeline
	log      *logrus.Entry
	now      func() time.Time

	mu        sync.RWMutex
	enabled   bool
	sessionID string
	stopCh    chan struct{}
	done      chan struct{}
	latest    []byte
	last      *Report

	subMu  sync.Mutex
	subs   map[int]chan Report
	nextID int
}

// New creates an App from config.
func New(config Config) *App {
	pipeline := config.Pipeline
	if pipeline == nil {
		pipeline = proctor.NewPipeline(proctor.Options{})
	}
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}

	return &App{
		config:   config,
		pipeline: pipeline,
		log:      logger.Component(config.Logger, "app"),
		now:      time.Now,
		enabled:  true,
		subs:     make(map[int]chan Report),
	}
}

// Process analyzes one frame. When evidence is required the frame is
// persisted, recorded against sessionID if one is given, and announced to
// the notifier. Persistence, recording and notification failures are
// logged and do not fail the call.
func (a *App) Process(ctx context.Context, frame *gocv.Mat, sessionID string) (*Report, error) {
	if frame == nil || frame.Empty() {
		return nil, capture.ErrInvalidImage
	}
	if a.config.Landmarks == nil || a.config.Objects == nil {
		return nil, ErrDetectionUnavailable
	}

	marks, detections, err := a.perceive(frame)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := a.pipeline.Analyze(proctor.Input{
		Width:      frame.Cols(),
		Faces:      marks.Faces,
		Hands:      marks.Hands,
		Detections: detections,
	})

	report := &Report{
		Result:    result,
		SessionID: sessionID,
		Timestamp: a.now(),
	}

	log := a.log.WithFields(logger.Fields{
		"session_id":  sessionID,
		"head_status": result.HeadStatus,
		"hand_count":  result.HandCount,
	})

	if result.EvidenceRequired {
		log.WithField("warnings", len(result.Warnings)).Debug("Frame flagged")
		a.capture(ctx, log, frame, report)
	}

	a.updateLatest(frame, report)
	a.broadcast(*report)

	return report, nil
}

// perceive runs the landmark provider and object detector concurrently.
func (a *App) perceive(frame *gocv.Mat) (detector.Landmarks, []detector.Detection, error) {
	var (
		wg         sync.WaitGroup
		marks      detector.Landmarks
		detections []detector.Detection
		markErr    error
		detErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		marks, markErr = a.config.Landmarks.Landmarks(frame)
	}()
	go func() {
		defer wg.Done()
		detections, detErr = a.config.Objects.Detect(frame)
	}()
	wg.Wait()

	if markErr != nil {
		return detector.Landmarks{}, nil, fmt.Errorf("landmarks: %w", markErr)
	}
	if detErr != nil {
		return detector.Landmarks{}, nil, fmt.Errorf("object detection: %w", detErr)
	}
	return marks, detections, nil
}

// capture persists evidence, records the violation and sends the notification.
func (a *App) capture(ctx context.Context, log *logrus.Entry, frame *gocv.Mat, report *Report) {
	if a.config.Persister != nil {
		path, err := a.config.Persister.Persist(frame)
		if err != nil {
			log.WithError(err).Warn("Failed to persist evidence")
		} else {
			report.ScreenshotSaved = true
			report.ScreenshotPath = path
		}
	}

	if a.config.Store != nil && report.SessionID != "" {
		v := &store.Violation{
			SessionID:      report.SessionID,
			Type:           ViolationType(report.Result),
			Description:    strings.Join(report.Warnings, "; "),
			ScreenshotPath: report.ScreenshotPath,
			DetectedAt:     report.Timestamp.UTC(),
		}
		if err := a.config.Store.Violations().Create(v); err != nil {
			log.WithError(err).Warn("Failed to record violation")
		}
	}

	if a.config.Notifier != nil {
		ev := notify.Event{
			SessionID:      report.SessionID,
			Warnings:       report.Warnings,
			Gadgets:        report.Gadgets,
			HeadStatus:     string(report.HeadStatus),
			HandCount:      report.HandCount,
			ScreenshotPath: report.ScreenshotPath,
			Timestamp:      report.Timestamp,
		}
		if err := a.config.Notifier.Notify(ctx, ev); err != nil {
			log.WithError(err).Warn("Failed to deliver notification")
		}
	}
}

// ViolationType picks the stored category for a flagged result.
// Prohibited items outrank head signals, which outrank hand signals.
func ViolationType(r proctor.Result) store.ViolationType {
	switch {
	case len(r.Gadgets) > 0:
		return store.ViolationGadget
	case r.HeadStatus == proctor.NoFace:
		return store.ViolationFace
	case r.HeadStatus != proctor.LookingForward:
		return store.ViolationHead
	default:
		return store.ViolationHands
	}
}

// updateLatest keeps an annotated JPEG of the most recent frame.
func (a *App) updateLatest(frame *gocv.Mat, report *Report) {
	annotated := frame.Clone()
	defer annotated.Close()

	Annotate(&annotated, report.Result)

	data, err := capture.EncodeJPEG(&annotated)
	if err != nil {
		a.log.WithError(err).Debug("Failed to encode preview frame")
		return
	}

	a.mu.Lock()
	a.latest = data
	r := *report
	a.last = &r
	a.mu.Unlock()
}

// LatestFrame returns the most recent annotated frame as JPEG.
func (a *App) LatestFrame() ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest, a.latest != nil
}

// LastReport returns the most recent report, if any.
func (a *App) LastReport() (Report, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return Report{}, false
	}
	return *a.last, true
}

// Subscribe returns a channel receiving every report and a function that
// cancels the subscription. Slow subscribers miss reports.
func (a *App) Subscribe() (<-chan Report, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextID
	a.nextID++
	ch := make(chan Report, subscriberBuffer)
	a.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			delete(a.subs, id)
			close(ch)
		})
	}
}

func (a *App) broadcast(r Report) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	for _, ch := range a.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// SetEnabled enables or disables analysis in the live loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether the live loop analyzes frames.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetSession sets the session that live-loop violations are recorded against.
func (a *App) SetSession(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = id
}

// Session returns the live-loop session ID.
func (a *App) Session() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Camera returns the configured camera, which may be nil.
func (a *App) Camera() capture.Camera {
	return a.config.Camera
}
