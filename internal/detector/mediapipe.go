package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// IdleTimeout is how long the landmark service may sit unused before it is stopped.
const IdleTimeout = 30 * time.Second

const serviceScript = "landmark_service.py"

// MediaPipeProvider implements LandmarkProvider using a Python subprocess that
// runs the MediaPipe face mesh and hands solutions.
//
// Protocol: each request is a 4-byte big-endian length followed by a JPEG
// frame; each response is one JSON line with "faces" and "hands" arrays.
// The service is single-threaded, so requests are serialized by mu.
type MediaPipeProvider struct {
	config    Config
	script    string
	python    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeProvider creates a new landmark provider.
// The Python process is started lazily on the first frame.
func NewMediaPipeProvider(config Config) (*MediaPipeProvider, error) {
	script := config.ScriptPath
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceScript)
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, script)
	}

	python := config.PythonPath
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeProvider{
		config: config,
		script: script,
		python: python,
	}, nil
}

// Landmarks sends the frame to the service and returns its faces and hands.
func (p *MediaPipeProvider) Landmarks(frame *gocv.Mat) (Landmarks, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Landmarks{}, nil
	}

	if err := p.ensureStarted(); err != nil {
		return Landmarks{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Landmarks{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := p.stdin.Write(length); err != nil {
		p.abort()
		return Landmarks{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := p.stdin.Write(data); err != nil {
		p.abort()
		return Landmarks{}, fmt.Errorf("write data: %w", err)
	}

	line, err := p.stdout.ReadBytes('\n')
	if err != nil {
		p.abort()
		return Landmarks{}, fmt.Errorf("read response: %w", err)
	}

	lm, err := parseServiceResponse(line)
	if err != nil {
		return Landmarks{}, err
	}

	p.lastUsed = time.Now()
	p.resetIdleTimer()

	return lm, nil
}

// Close shuts down the Python process.
func (p *MediaPipeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdown()
}

func (p *MediaPipeProvider) ensureStarted() error {
	if p.started {
		return nil
	}

	p.cmd = exec.Command(p.python, p.script,
		"--max-faces", strconv.Itoa(p.config.MaxFaces),
		"--max-hands", strconv.Itoa(p.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(p.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(p.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	p.cmd.Stderr = os.Stderr

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.started = true
	p.lastUsed = time.Now()

	return nil
}

// abort tears the process down after a broken exchange so the next frame restarts it.
func (p *MediaPipeProvider) abort() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.shutdown()
}

func (p *MediaPipeProvider) shutdown() error {
	if !p.started {
		return nil
	}

	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}

	if p.stdin != nil {
		p.stdin.Close()
	}

	err := p.cmd.Wait()
	p.started = false
	p.cmd = nil
	p.stdin = nil
	p.stdout = nil

	return err
}

func (p *MediaPipeProvider) resetIdleTimer() {
	if p.idleTimer != nil {
		p.idleTimer.Stop()
	}
	p.idleTimer = time.AfterFunc(IdleTimeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.shutdown()
	})
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".proctorvision", "scripts", serviceScript),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".proctorvision/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// serviceResponse is the JSON line written by the landmark service.
type serviceResponse struct {
	Faces []jsonFace `json:"faces"`
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error,omitempty"`
}

type jsonFace struct {
	Points []jsonPoint `json:"points"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func parseServiceResponse(line []byte) (Landmarks, error) {
	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return Landmarks{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return Landmarks{}, fmt.Errorf("landmark service: %s", resp.Error)
	}

	lm := Landmarks{
		Faces: make([]FaceLandmarks, len(resp.Faces)),
		Hands: make([]HandLandmarks, len(resp.Hands)),
	}
	for i, f := range resp.Faces {
		lm.Faces[i] = f.toFaceLandmarks()
	}
	for i, h := range resp.Hands {
		lm.Hands[i] = h.toHandLandmarks()
	}
	return lm, nil
}

func (f jsonFace) toFaceLandmarks() FaceLandmarks {
	points := make([]Point3D, len(f.Points))
	for i, p := range f.Points {
		points[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
	}
	return FaceLandmarks{Points: points}
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i := 0; i < NumHandLandmarks && i < len(h.Points); i++ {
		lm.Points[i] = Point3D{
			X: h.Points[i].X,
			Y: h.Points[i].Y,
			Z: h.Points[i].Z,
		}
	}

	return lm
}
