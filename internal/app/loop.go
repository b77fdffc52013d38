package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/proctorvision/internal/capture"
)

// ErrNoCamera is returned by Start when no camera is configured.
var ErrNoCamera = errors.New("no camera configured")

// Start opens the camera and begins the live monitoring loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.config.Camera == nil {
		return ErrNoCamera
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}
	a.config.Camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	a.log.WithField("fps", a.config.FPS).Info("Monitoring loop started")
	return nil
}

// Stop halts the live loop and closes the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.config.Camera.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing camera")
	}
	a.log.Info("Monitoring loop stopped")
}

// Running reports whether the live loop is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// run reads frames at the configured rate and processes them while enabled.
// The loop ends on stop or when the camera runs out of frames.
func (a *App) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.config.Camera.ReadFrame()
			if errors.Is(err, capture.ErrNoFrames) {
				a.log.Info("Camera has no more frames")
				return
			}
			if err != nil {
				a.log.WithError(err).Warn("Error reading frame")
				continue
			}

			_, err = a.Process(ctx, frame, a.Session())
			frame.Close()
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.WithError(err).Warn("Error processing frame")
			}
		}
	}
}
