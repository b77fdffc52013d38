// Package config loads runtime configuration for the proctoring service.
//
// Values come from DefaultConfig, then an optional JSON file, then a .env file
// and PROCTOR_* environment variables. Command-line flags are applied last by
// the caller before Validate.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ayusman/proctorvision/internal/detector"
	"github.com/ayusman/proctorvision/internal/proctor"
)

// Config holds runtime configuration for the service.
type Config struct {
	Addr        string `json:"addr" validate:"required"`
	DataDir     string `json:"data_dir" validate:"required"`
	DBPath      string `json:"db_path"`
	EvidenceDir string `json:"evidence_dir"`
	StaticDir   string `json:"static_dir"`
	CameraID    int    `json:"camera_id" validate:"gte=0"`
	FPS         int    `json:"fps" validate:"gte=1,lte=30"`

	Detection DetectionConfig `json:"detection"`
	Log       LogConfig       `json:"log"`
	MQTT      MQTTConfig      `json:"mqtt"`
	Hooks     HooksConfig     `json:"hooks"`
}

// DetectionConfig configures the perception collaborators and the pipeline.
type DetectionConfig struct {
	ScriptPath         string  `json:"script_path"`
	PythonPath         string  `json:"python_path"`
	ModelPath          string  `json:"model_path"`
	MaxFaces           int     `json:"max_faces" validate:"gte=1"`
	MaxHands           int     `json:"max_hands" validate:"gte=1"`
	LandmarkConfidence float64 `json:"landmark_confidence" validate:"gte=0,lte=1"`
	ObjectScore        float64 `json:"object_score" validate:"gte=0,lte=1"`

	// MinConfidence is applied by the gadget filter; 0 keeps every detection.
	MinConfidence float64 `json:"min_confidence" validate:"gte=0,lte=1"`
	FaceSelection string  `json:"face_selection" validate:"oneof=last first"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `json:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	File  string `json:"file"`
}

// MQTTConfig enables publishing violation events. Empty Broker disables it.
type MQTTConfig struct {
	Broker   string `json:"broker" validate:"omitempty,url"`
	Topic    string `json:"topic" validate:"required_with=Broker"`
	ClientID string `json:"client_id"`
}

// HooksConfig points at a directory of violation hook executables.
type HooksConfig struct {
	Dir       string `json:"dir"`
	TimeoutMs int    `json:"timeout_ms" validate:"gte=100"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	dataDir := ".proctorvision"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".proctorvision")
	}

	det := detector.DefaultConfig()

	return &Config{
		Addr:     ":8002",
		DataDir:  dataDir,
		CameraID: 0,
		FPS:      5,
		Detection: DetectionConfig{
			ModelPath:          det.ModelPath,
			MaxFaces:           det.MaxFaces,
			MaxHands:           det.MaxHands,
			LandmarkConfidence: det.MinConfidence,
			ObjectScore:        float64(det.ScoreThreshold),
			MinConfidence:      0,
			FaceSelection:      string(proctor.SelectLast),
		},
		Log: LogConfig{
			Level: "info",
		},
		MQTT: MQTTConfig{
			Topic:    "proctorvision/violations",
			ClientID: "proctorvision",
		},
		Hooks: HooksConfig{
			TimeoutMs: 5000,
		},
	}
}

// Load builds a Config from defaults, the optional JSON file at path, .env and
// the environment. Derived paths are filled in; Validate is not called.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.Resolve()
	return cfg, nil
}

// Resolve fills paths that default to locations under DataDir.
func (c *Config) Resolve() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "proctorvision.db")
	}
	if c.EvidenceDir == "" {
		c.EvidenceDir = filepath.Join(c.DataDir, "screenshots")
	}
}

var validate = validator.New()

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DetectorConfig returns the collaborator settings.
func (c *Config) DetectorConfig() detector.Config {
	det := detector.DefaultConfig()
	det.MaxFaces = c.Detection.MaxFaces
	det.MaxHands = c.Detection.MaxHands
	det.MinConfidence = c.Detection.LandmarkConfidence
	det.MinTrackingConf = c.Detection.LandmarkConfidence
	det.ScriptPath = c.Detection.ScriptPath
	det.PythonPath = c.Detection.PythonPath
	det.ModelPath = c.Detection.ModelPath
	det.ScoreThreshold = float32(c.Detection.ObjectScore)
	return det
}

// PipelineOptions returns the options for proctor.NewPipeline.
func (c *Config) PipelineOptions() proctor.Options {
	return proctor.Options{
		MinConfidence: c.Detection.MinConfidence,
		FaceSelection: proctor.FaceSelection(c.Detection.FaceSelection),
	}
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"PROCTOR_ADDR":            &c.Addr,
		"PROCTOR_DATA_DIR":        &c.DataDir,
		"PROCTOR_DB_PATH":         &c.DBPath,
		"PROCTOR_EVIDENCE_DIR":    &c.EvidenceDir,
		"PROCTOR_STATIC_DIR":      &c.StaticDir,
		"PROCTOR_LANDMARK_SCRIPT": &c.Detection.ScriptPath,
		"PROCTOR_PYTHON":          &c.Detection.PythonPath,
		"PROCTOR_MODEL_PATH":      &c.Detection.ModelPath,
		"PROCTOR_FACE_SELECTION":  &c.Detection.FaceSelection,
		"PROCTOR_LOG_LEVEL":       &c.Log.Level,
		"PROCTOR_LOG_FILE":        &c.Log.File,
		"PROCTOR_MQTT_BROKER":     &c.MQTT.Broker,
		"PROCTOR_MQTT_TOPIC":      &c.MQTT.Topic,
		"PROCTOR_HOOK_DIR":        &c.Hooks.Dir,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PROCTOR_CAMERA_ID":       &c.CameraID,
		"PROCTOR_FPS":             &c.FPS,
		"PROCTOR_HOOK_TIMEOUT_MS": &c.Hooks.TimeoutMs,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv("PROCTOR_MIN_CONFIDENCE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PROCTOR_MIN_CONFIDENCE: %w", err)
		}
		c.Detection.MinConfidence = f
	}

	return nil
}
