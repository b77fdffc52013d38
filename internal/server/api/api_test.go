package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/proctorvision/internal/capture"
	"github.com/ayusman/proctorvision/internal/store"
)

// setupTestStore creates a temporary store for testing.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// jpegFrame returns an encoded blank 640x480 frame.
func jpegFrame(t *testing.T) []byte {
	t.Helper()

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()

	data, err := capture.EncodeJPEG(&mat)
	if err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	return data
}

// multipartRequest builds a POST request with the frame and optional fields.
func multipartRequest(t *testing.T, url string, frame []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if frame != nil {
		fw, err := mw.CreateFormFile("frame", "frame.jpg")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(frame)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
