// Package config loads the Hands-On configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/handson/internal/app"
	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/plugin"
)

const (
	defaultDirName  = ".handson"
	defaultFileName = "config.json"
	defaultAddr     = ":8080"
)

// CameraConfig selects camera devices, capture size and frame rate. Facing
// ("front" or "back") is the camera used when none was saved.
type CameraConfig struct {
	Devices capture.Devices `json:"devices"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	FPS     int             `json:"fps"`
	Facing  string          `json:"facing"`
}

// Config is the on-disk configuration.
type Config struct {
	Addr            string             `json:"addr"`
	DataDir         string             `json:"dataDir"`
	DBPath          string             `json:"dbPath"`
	PluginDir       string             `json:"pluginDir"`
	PluginTimeoutMs int                `json:"pluginTimeoutMs"`
	WebDir          string             `json:"webDir,omitempty"`
	CatalogPath     string             `json:"catalogPath,omitempty"`
	Tray            bool               `json:"tray"`
	Gesture         string             `json:"gesture,omitempty"`
	Camera          CameraConfig       `json:"camera"`
	Detector        detector.Config    `json:"detector"`
	Pipeline        app.PipelineConfig `json:"pipeline"`
}

// DefaultDir returns ~/.handson, or .handson if the home directory is
// unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), defaultFileName)
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDir()
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "handson.db")
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	if c.PluginTimeoutMs <= 0 {
		c.PluginTimeoutMs = plugin.DefaultTimeoutMs
	}
	if c.Camera.Devices == (capture.Devices{}) {
		c.Camera.Devices = capture.Devices{Front: 0, Back: 1}
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		c.Camera.Width, c.Camera.Height = capture.DefaultWidth, capture.DefaultHeight
	}
	if c.Camera.FPS <= 0 {
		c.Camera.FPS = capture.DefaultFPS
	}
	if _, err := capture.ParseFacing(c.Camera.Facing); err != nil {
		c.Camera.Facing = string(capture.FacingFront)
	}

	det := detector.DefaultConfig()
	if c.Detector.MaxHands <= 0 {
		c.Detector.MaxHands = det.MaxHands
	}
	if c.Detector.MinConfidence <= 0 {
		c.Detector.MinConfidence = det.MinConfidence
	}
	if c.Detector.MinTrackingConf <= 0 {
		c.Detector.MinTrackingConf = det.MinTrackingConf
	}

	pipe := app.DefaultPipelineConfig()
	if c.Pipeline.MinKeypointConfidence <= 0 {
		c.Pipeline.MinKeypointConfidence = pipe.MinKeypointConfidence
	}
	if c.Pipeline.MaxRepetitions <= 0 {
		c.Pipeline.MaxRepetitions = pipe.MaxRepetitions
	}
	if c.Pipeline.ReportBuffer <= 0 {
		c.Pipeline.ReportBuffer = pipe.ReportBuffer
	}
}

// Facing returns the configured default camera facing.
func (c *Config) Facing() capture.Facing {
	f, err := capture.ParseFacing(c.Camera.Facing)
	if err != nil {
		return capture.FacingFront
	}
	return f
}

// Load reads configuration from path, or DefaultPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// Save persists configuration to path, or DefaultPath when path is empty.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
