package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir string `yaml:"work_dir"`

	// Engine settings
	Engine EngineConfig `yaml:"engine"`

	// Slideshow timing settings
	Slideshow SlideshowConfig `yaml:"slideshow"`

	// Output encoding settings
	Encode EncodeConfig `yaml:"encode"`
}

type EngineConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
}

type SlideshowConfig struct {
	DisplaySeconds    float64 `yaml:"display_seconds"`
	TransitionSeconds float64 `yaml:"transition_seconds"`
	FPS               float64 `yaml:"fps"`
	MaxInputs         int     `yaml:"max_inputs"`

	// Accepted ranges for the user-tunable durations.
	DisplayMin    float64 `yaml:"display_min"`
	DisplayMax    float64 `yaml:"display_max"`
	TransitionMin float64 `yaml:"transition_min"`
	TransitionMax float64 `yaml:"transition_max"`
}

type EncodeConfig struct {
	VideoCodec  string `yaml:"video_codec"`
	PixelFormat string `yaml:"pixel_format"`
	Preset      string `yaml:"preset"`
	CRF         int    `yaml:"crf"`
	OutputName  string `yaml:"output_name"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

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
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Dump renders the configuration as yaml
func (c *Config) Dump() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations whose bounds cannot admit any run.
func (c *Config) Validate() error {
	s := c.Slideshow
	if s.DisplayMin <= 0 || s.DisplayMax < s.DisplayMin {
		return fmt.Errorf("invalid display duration bounds [%v, %v]", s.DisplayMin, s.DisplayMax)
	}
	if s.TransitionMin < 0 || s.TransitionMax < s.TransitionMin {
		return fmt.Errorf("invalid transition duration bounds [%v, %v]", s.TransitionMin, s.TransitionMax)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %v", s.FPS)
	}
	if s.MaxInputs < 2 {
		return fmt.Errorf("max_inputs must be at least 2, got %d", s.MaxInputs)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		WorkDir: "",
		Engine: EngineConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
		},
		Slideshow: SlideshowConfig{
			DisplaySeconds:    3.0,
			TransitionSeconds: 0.5,
			FPS:               30,
			MaxInputs:         20,
			DisplayMin:        0.5,
			DisplayMax:        10,
			TransitionMin:     0.1,
			TransitionMax:     3,
		},
		Encode: EncodeConfig{
			VideoCodec:  "libx264",
			PixelFormat: "yuv420p",
			Preset:      "medium",
			CRF:         23,
			OutputName:  "slideshow.mp4",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".fadereel", "config.yaml"),
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
	return defaultConfig()
}
