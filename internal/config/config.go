package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/slopreel/internal/highlights"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir string `yaml:"work_dir"`
	TempDir string `yaml:"temp_dir"`

	// Highlight selection budget
	Analysis highlights.Config `yaml:"analysis"`

	// Keyframe extraction
	Keyframes KeyframeConfig `yaml:"keyframes"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Highlight rendering
	Render RenderConfig `yaml:"render"`

	Metrics MetricsConfig `yaml:"metrics"`
}

type KeyframeConfig struct {
	Interval    float64 `yaml:"interval"`
	Quality     int     `yaml:"quality"`
	MinDistance int     `yaml:"min_distance"`
}

type FFmpegConfig struct {
	BinaryPath   string        `yaml:"binary_path"`
	ProbePath    string        `yaml:"probe_path"`
	Threads      int           `yaml:"threads"`
	FrameTimeout time.Duration `yaml:"frame_timeout"`
}

type RenderConfig struct {
	CRF          int     `yaml:"crf"`
	Preset       string  `yaml:"preset"`
	FadeDuration float64 `yaml:"fade_duration"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
}

type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus text dump after each command
	Textfile string `yaml:"textfile"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if !(c.Keyframes.Interval > 0) {
		return fmt.Errorf("keyframes.interval must be positive, got %v", c.Keyframes.Interval)
	}
	if c.Keyframes.Quality < 1 || c.Keyframes.Quality > 100 {
		return fmt.Errorf("keyframes.quality must be within 1-100, got %d", c.Keyframes.Quality)
	}
	if c.FFmpeg.Threads < 0 {
		return fmt.Errorf("ffmpeg.threads must not be negative, got %d", c.FFmpeg.Threads)
	}
	if c.FFmpeg.FrameTimeout < 0 {
		return fmt.Errorf("ffmpeg.frame_timeout must not be negative, got %s", c.FFmpeg.FrameTimeout)
	}
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return fmt.Errorf("render.crf must be within 0-51, got %d", c.Render.CRF)
	}
	if c.Render.FadeDuration < 0 {
		return fmt.Errorf("render.fade_duration must not be negative, got %v", c.Render.FadeDuration)
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		WorkDir:  "./work",
		TempDir:  "./temp",
		Analysis: highlights.DefaultConfig(),
		Keyframes: KeyframeConfig{
			Interval: 30.0,
			Quality:  70,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath:   "ffmpeg",
			ProbePath:    "ffprobe",
			Threads:      0,
			FrameTimeout: 30 * time.Second,
		},
		Render: RenderConfig{
			CRF:          23,
			Preset:       "medium",
			FadeDuration: 0.5,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./slopreel.yaml",
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".slopreel", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
