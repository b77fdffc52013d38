package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/proctorvision/internal/app"
	"github.com/ayusman/proctorvision/internal/capture"
	"github.com/ayusman/proctorvision/internal/detector"
	"github.com/ayusman/proctorvision/internal/evidence"
	"github.com/ayusman/proctorvision/internal/store"
)

type testEnv struct {
	server    *httptest.Server
	store     *store.Store
	landmarks *detector.MockLandmarkProvider
	objects   *detector.MockObjectDetector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	persister, err := evidence.NewFilePersister(filepath.Join(tmpDir, "screenshots"))
	if err != nil {
		t.Fatalf("NewFilePersister() error = %v", err)
	}

	env := &testEnv{
		store:     s,
		landmarks: detector.NewMockLandmarkProvider(),
		objects:   detector.NewMockObjectDetector(),
	}
	a := app.New(app.Config{
		Store:     s,
		Landmarks: env.landmarks,
		Objects:   env.objects,
		Persister: persister,
	})

	env.server = httptest.NewServer(New(Config{
		Store:       s,
		App:         a,
		EvidenceDir: persister.Dir(),
	}))
	t.Cleanup(env.server.Close)
	return env
}

func postFrame(t *testing.T, url, sessionID string) *http.Response {
	t.Helper()

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()
	data, err := capture.EncodeJPEG(&mat)
	if err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("frame", "frame.jpg")
	fw.Write(data)
	if sessionID != "" {
		mw.WriteField("session_id", sessionID)
	}
	mw.Close()

	resp, err := http.Post(url+"/api/detect", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/detect error = %v", err)
	}
	return resp
}

func TestAPI_ExamWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := newTestEnv(t)
	client := env.server.Client()

	// 1. Start a session
	resp, err := client.Post(env.server.URL+"/api/sessions", "application/json", bytes.NewBufferString(`{"enrollment":"2024CS101"}`))
	if err != nil {
		t.Fatalf("POST /api/sessions error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var session struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&session)
	resp.Body.Close()

	// 2. A compliant frame records nothing
	env.landmarks.SetFaces([]detector.FaceLandmarks{detector.FaceWithNoseAt(0.5)})
	env.landmarks.SetHands([]detector.HandLandmarks{detector.HandOnDesk("Left"), detector.HandOnDesk("Right")})

	resp = postFrame(t, env.server.URL, session.ID)
	var report struct {
		Warnings        []string `json:"warnings"`
		Compliant       bool     `json:"compliant"`
		ScreenshotSaved bool     `json:"screenshot_saved"`
		ScreenshotPath  string   `json:"screenshot_path"`
	}
	json.NewDecoder(resp.Body).Decode(&report)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !report.Compliant || len(report.Warnings) != 0 {
		t.Fatalf("compliant frame: status=%d report=%+v", resp.StatusCode, report)
	}

	// 3. A phone appears
	env.objects.SetDetections([]detector.Detection{{Label: "cell phone", Confidence: 0.9}})

	resp = postFrame(t, env.server.URL, session.ID)
	json.NewDecoder(resp.Body).Decode(&report)
	resp.Body.Close()
	if !report.ScreenshotSaved {
		t.Fatal("violation frame should be saved")
	}
	if len(report.Warnings) != 1 || report.Warnings[0] != "PROHIBITED DEVICE: Mobile Phone - Remove immediately" {
		t.Errorf("warnings = %v", report.Warnings)
	}

	// 4. The evidence is served
	resp, err = client.Get(env.server.URL + "/screenshots/" + filepath.Base(report.ScreenshotPath))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET screenshot status = %d", resp.StatusCode)
	}

	// 5. The violation is listed
	resp, _ = client.Get(env.server.URL + "/api/sessions/" + session.ID + "/violations")
	var violations struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&violations)
	resp.Body.Close()
	if violations.Count != 1 {
		t.Errorf("violation count = %d, want 1", violations.Count)
	}

	// 6. Submit, after which frames are refused
	resp, _ = client.Post(env.server.URL+"/api/sessions/"+session.ID+"/submit", "application/json", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	resp = postFrame(t, env.server.URL, session.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("detect after submit status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// 7. Stats reflect the session
	resp, _ = client.Get(env.server.URL + "/api/stats")
	var stats map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	if stats["exam_sessions"] != float64(1) || stats["submitted_sessions"] != float64(1) {
		t.Errorf("stats = %v", stats)
	}
}

func TestAPI_MonitorWebsocket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := newTestEnv(t)
	env.landmarks.SetFaces([]detector.FaceLandmarks{detector.FaceWithNoseAt(0.05)})

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/monitor"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	// The subscription is registered after the upgrade; retry until a report arrives.
	deadline := time.Now().Add(5 * time.Second)
	conn.SetReadDeadline(deadline)
	received := make(chan map[string]interface{}, 1)
	go func() {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}()

	for time.Now().Before(deadline) {
		resp := postFrame(t, env.server.URL, "")
		resp.Body.Close()

		select {
		case msg := <-received:
			if msg["head_status"] != "Looking Left" {
				t.Errorf("head_status = %v", msg["head_status"])
			}
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
	t.Fatal("no report received over websocket")
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
