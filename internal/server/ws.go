package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/proctorvision/internal/app"
	"github.com/ayusman/proctorvision/internal/logger"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ReportSource publishes frame reports.
type ReportSource interface {
	Subscribe() (<-chan app.Report, func())
}

// MonitorHandler pushes every frame report to websocket clients as JSON.
type MonitorHandler struct {
	source ReportSource
	log    *logrus.Entry
}

// NewMonitorHandler creates a new MonitorHandler over source.
func NewMonitorHandler(source ReportSource, log logrus.FieldLogger) *MonitorHandler {
	return &MonitorHandler{
		source: source,
		log:    logger.Component(log, "server.monitor"),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *MonitorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	reports, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// Reading detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case report, ok := <-reports:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(report); err != nil {
				h.log.WithError(err).Debug("Websocket write failed")
				return
			}
		}
	}
}
