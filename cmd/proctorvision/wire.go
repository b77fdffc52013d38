package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/proctorvision/internal/app"
	"github.com/ayusman/proctorvision/internal/capture"
	"github.com/ayusman/proctorvision/internal/config"
	"github.com/ayusman/proctorvision/internal/detector"
	"github.com/ayusman/proctorvision/internal/evidence"
	"github.com/ayusman/proctorvision/internal/notify"
	"github.com/ayusman/proctorvision/internal/proctor"
	"github.com/ayusman/proctorvision/internal/store"
)

// services holds the collaborators built from configuration.
type services struct {
	store   *store.Store
	app     *app.App
	closers []func()
}

func (r *services) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Detector constructors, replaced in tests.
var (
	newLandmarkProvider = func(c detector.Config) (detector.LandmarkProvider, error) {
		return detector.NewMediaPipeProvider(c)
	}
	newObjectDetector = func(c detector.Config) (detector.ObjectDetector, error) {
		return detector.NewYOLODetector(c)
	}
)

type buildOptions struct {
	camera   bool
	evidence bool
}

// buildRuntime opens the store, starts the perception collaborators and
// connects the notifiers. Missing perception models are logged and leave
// the app reporting that detection is unavailable.
func buildRuntime(cfg *config.Config, log *logrus.Logger, opts buildOptions) (*services, error) {
	rt := &services{}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	rt.store = st
	rt.closers = append(rt.closers, func() { st.Close() })

	appCfg := app.Config{
		Store:    st,
		Pipeline: proctor.NewPipeline(cfg.PipelineOptions()),
		FPS:      cfg.FPS,
		Logger:   log,
	}

	detCfg := cfg.DetectorConfig()
	if lp, err := newLandmarkProvider(detCfg); err == nil {
		appCfg.Landmarks = lp
		rt.closers = append(rt.closers, closeLogged(log, "landmark provider", lp))
		log.Info("Using MediaPipe landmark service")
	} else {
		log.WithError(err).Warn("Landmark service not available")
	}
	if od, err := newObjectDetector(detCfg); err == nil {
		appCfg.Objects = od
		rt.closers = append(rt.closers, closeLogged(log, "object detector", od))
		log.WithField("model", detCfg.ModelPath).Info("Using YOLO object detector")
	} else {
		log.WithError(err).Warn("Object detector not available")
	}

	if opts.evidence {
		p, err := evidence.NewFilePersister(cfg.EvidenceDir)
		if err != nil {
			rt.Close()
			return nil, err
		}
		appCfg.Persister = p
	}

	notifiers, err := buildNotifiers(cfg, log, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if len(notifiers) > 0 {
		appCfg.Notifier = notifiers
	}

	if opts.camera {
		appCfg.Camera = capture.NewCamera(cfg.CameraID)
	}

	a := app.New(appCfg)
	rt.app = a
	rt.closers = append(rt.closers, a.Stop)

	return rt, nil
}

func closeLogged(log *logrus.Logger, name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.WithError(err).Warnf("Error closing %s", name)
		}
	}
}

func buildNotifiers(cfg *config.Config, log *logrus.Logger, rt *services) (notify.Multi, error) {
	var out notify.Multi

	if cfg.MQTT.Broker != "" {
		n, err := notify.NewMQTTNotifier(notify.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, n.Close)
		out = append(out, n)
		log.WithField("topic", n.Topic()).Info("Publishing violations to MQTT")
	}

	if cfg.Hooks.Dir != "" {
		n, err := notify.NewHookNotifier(cfg.Hooks.Dir, time.Duration(cfg.Hooks.TimeoutMs)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		hooks := n.Registry().List()
		if len(hooks) > 0 {
			out = append(out, n)
		}
		log.WithField("hooks", len(hooks)).Info("Discovered violation hooks")
	}

	return out, nil
}

// errDetectionUnavailable is shown by commands that need perception.
var errDetectionUnavailable = errors.New("detection system not available: check the landmark service and model path")
