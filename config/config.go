package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort  string
	MaxFileSize int64
	UploadDir   string
	LogLevel    string
	OCR         OCRConfig
	LLM         LLMConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TesseractDataPath     string
	Language              string
	MinEmbeddedTextLength int
	EnableQR              bool
}

// LLMConfig points at an OpenAI-compatible completion server (llama.cpp server, vLLM, ...)
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Stop        []string
	Temperature float64
	Timeout     time.Duration // HTTP client timeout
	CallTimeout time.Duration // budget for one field, retries included
	MaxRetries  int
	Concurrency int // in-flight completions; 1 serializes calls into the model
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_file_size", 10*1024*1024) // 10 MB
	v.SetDefault("server.upload_dir", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("ocr.tessdata_prefix", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.min_embedded_text_length", 20)
	v.SetDefault("ocr.enable_qr", true)

	v.SetDefault("llm.base_url", "http://127.0.0.1:8081/v1")
	v.SetDefault("llm.api_key", "sk-no-key-required")
	v.SetDefault("llm.model", "mistral-7b-instruct-v0.1.Q4_K_M")
	v.SetDefault("llm.max_tokens", 128)
	v.SetDefault("llm.stop", []string{"###"})
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.call_timeout", 90*time.Second)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.concurrency", 1)
}

// LoadConfig reads configuration from defaults and environment variables
func LoadConfig() *Config {
	cfg, err := Load("")
	if err != nil {
		// Load only fails on config file errors, and no file was requested.
		panic(err)
	}
	return cfg
}

// Load reads configuration from defaults, an optional config file
// (yaml, json or toml) and environment variables, in increasing precedence.
// Nested keys map to env vars with '.' replaced by '_', e.g. LLM_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional names used by Tesseract and container platforms.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("ocr.tessdata_prefix", "TESSDATA_PREFIX", "OCR_TESSDATA_PREFIX")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return &Config{
		ServerPort:  v.GetString("server.port"),
		MaxFileSize: v.GetInt64("server.max_file_size"),
		UploadDir:   v.GetString("server.upload_dir"),
		LogLevel:    v.GetString("log.level"),
		OCR: OCRConfig{
			TesseractDataPath:     v.GetString("ocr.tessdata_prefix"),
			Language:              v.GetString("ocr.language"),
			MinEmbeddedTextLength: v.GetInt("ocr.min_embedded_text_length"),
			EnableQR:              v.GetBool("ocr.enable_qr"),
		},
		LLM: LLMConfig{
			BaseURL:     v.GetString("llm.base_url"),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Stop:        v.GetStringSlice("llm.stop"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     v.GetDuration("llm.timeout"),
			CallTimeout: v.GetDuration("llm.call_timeout"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			Concurrency: v.GetInt("llm.concurrency"),
		},
	}, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max file size must be positive"))
	}
	if c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm base url is required"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm max tokens must be positive"))
	}
	if c.LLM.Concurrency <= 0 {
		errs = append(errs, errors.New("llm concurrency must be positive"))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("llm max retries must not be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
