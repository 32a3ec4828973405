package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
	Limiter    LimiterConfig    `yaml:"limiter"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Generation GenerationConfig `yaml:"generation"`
	Export     ExportConfig     `yaml:"export"`
}

type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HTTPClientConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type LimiterConfig struct {
	MaxConcurrent int     `yaml:"max_concurrent"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ImageModel string `yaml:"image_model"`
	TextModel  string `yaml:"text_model"`
}

type GenerationConfig struct {
	// SimpleMaxAttempts bounds retries on the simple call path (text, edits).
	SimpleMaxAttempts int `yaml:"simple_max_attempts"`
	// PlanMaxAttempts bounds retries on the architectural-image path.
	PlanMaxAttempts int `yaml:"plan_max_attempts"`
	BaseDelayMs     int `yaml:"base_delay_ms"`
	MaxDelayMs      int `yaml:"max_delay_ms"`
}

type ExportConfig struct {
	BasePath string `yaml:"base_path"`
	BaseURL  string `yaml:"base_url"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfig, "parse "+configPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.ErrCodeConfig, "read "+configPath)
	}

	applyEnvOverrides(cfg)

	// The API credential is the one non-defaultable setting. Missing means
	// the process cannot do anything useful, so refuse to start.
	if cfg.Gemini.APIKey == "" {
		return nil, errors.New(errors.ErrCodeConfig, "GEMINI_API_KEY is not set")
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTPClient: HTTPClientConfig{
			TimeoutSeconds: 120,
		},
		Limiter: LimiterConfig{
			MaxConcurrent: 8,
			RatePerSecond: 4,
		},
		Gemini: GeminiConfig{
			BaseURL:    "https://generativelanguage.googleapis.com",
			ImageModel: "gemini-2.5-flash-image",
			TextModel:  "gemini-3-pro-preview",
		},
		Generation: GenerationConfig{
			SimpleMaxAttempts: 3,
			PlanMaxAttempts:   7,
			BaseDelayMs:       1000,
			MaxDelayMs:        60000,
		},
		Export: ExportConfig{
			BasePath: "./output",
			BaseURL:  "/files",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.Gemini.BaseURL = v
	}
	if v := os.Getenv("GEMINI_IMAGE_MODEL"); v != "" {
		cfg.Gemini.ImageModel = v
	}
	if v := os.Getenv("GEMINI_TEXT_MODEL"); v != "" {
		cfg.Gemini.TextModel = v
	}
	if v := os.Getenv("EXPORT_BASE_PATH"); v != "" {
		cfg.Export.BasePath = v
	}
	if v := os.Getenv("EXPORT_BASE_URL"); v != "" {
		cfg.Export.BaseURL = v
	}
	if v := os.Getenv("MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Limiter.MaxConcurrent = n
		}
	}
}
