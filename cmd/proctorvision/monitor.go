package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/ayusman/proctorvision/internal/app"
	"github.com/ayusman/proctorvision/internal/capture"
)

var monitorSession string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor the webcam in a preview window (press q to quit)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd.Context())
	},
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorSession, "session", "s", "", "Session ID to record violations against")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(ctx context.Context) error {
	rt, err := buildRuntime(cfg, log, buildOptions{evidence: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	if monitorSession != "" {
		if _, err := rt.store.Sessions().GetByID(monitorSession); err != nil {
			return err
		}
	}

	cam := capture.NewCamera(cfg.CameraID)
	if err := cam.Open(); err != nil {
		return err
	}
	defer cam.Close()

	window := gocv.NewWindow("ProctorVision")
	defer window.Close()

	log.Info("Monitoring started, press q in the preview window to quit")

	return monitorLoop(ctx, cam, rt.app, window, monitorSession, log)
}

// previewWindow is the part of gocv.Window the monitor loop uses.
type previewWindow interface {
	IMShow(img gocv.Mat) error
	WaitKey(delay int) int
}

type frameProcessor interface {
	Process(ctx context.Context, frame *gocv.Mat, sessionID string) (*app.Report, error)
}

// monitorLoop shows annotated frames until q is pressed, ctx is done or the
// camera stops delivering frames.
func monitorLoop(ctx context.Context, cam capture.Camera, proc frameProcessor, win previewWindow, sessionID string, logger logrus.FieldLogger) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			return fmt.Errorf("camera stopped delivering frames: %w", err)
		}

		report, err := proc.Process(ctx, frame, sessionID)
		switch {
		case errors.Is(err, app.ErrDetectionUnavailable):
			frame.Close()
			return errDetectionUnavailable
		case err != nil:
			logger.WithError(err).Warn("Error processing frame")
		default:
			app.Annotate(frame, report.Result)
		}

		win.IMShow(*frame)
		frame.Close()

		if key := win.WaitKey(1); key == 'q' || key == 'Q' {
			return nil
		}
	}
}
