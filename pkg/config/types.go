package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment  string           `mapstructure:"environment"`
	Server       ServerConfig     `mapstructure:"server"`
	Database     DatabaseConfig   `mapstructure:"database"`
	Processing   ProcessingConfig `mapstructure:"processing"`
	Storage      StorageConfig    `mapstructure:"storage"`
	Visualizer   VisualizerConfig `mapstructure:"visualizer"`
	RateLimiting RateLimitConfig  `mapstructure:"rate_limiting"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// ProcessingConfig contains background job processing settings
type ProcessingConfig struct {
	Workers      int           `mapstructure:"workers"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// StorageConfig contains artifact storage settings
type StorageConfig struct {
	ArtifactsDir string `mapstructure:"artifacts_dir"`
	ShareDir     string `mapstructure:"share_dir"`
}

// VisualizerConfig contains live visualization settings
type VisualizerConfig struct {
	FrameRate int `mapstructure:"frame_rate"`
	FFTSize   int `mapstructure:"fft_size"`
	Bands     int `mapstructure:"bands"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
