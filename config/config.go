package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eduintel/grader/internal"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

var validate = validator.New()

const EnvPrefix = "GRADER"

// defaults: all-MiniLM-L6-v2 served by a local NLP server, tesseract for OCR and the two
// frontends allowed by CORS.
var defaults = map[string]any{
	"server.host":             "",
	"server.port":             8000,
	"server.max_request_size": "64 MB",
	"server.max_memory":       "16 MB",
	"server.allowed_origins": []string{
		"https://edu-intel-frontend-iota.vercel.app",
		"http://localhost:3000",
	},
	"log.level":                   "info",
	"log.format":                  "text",
	"auth.secret":                 "",
	"auth.required":               false,
	"embeddings.service":          "local",
	"embeddings.server_url":       "http://localhost:5557",
	"embeddings.openai_base_url":  "https://api.openai.com/v1",
	"embeddings.openai_api_key":   "",
	"embeddings.model":            "all-MiniLM-L6-v2",
	"embeddings.dimensions":       0,
	"embeddings.timeout":          30 * time.Second,
	"embeddings.max_retries":      3,
	"extractor.min_text_length":   50,
	"extractor.ocr.enabled":       true,
	"extractor.ocr.tesseract_cmd": "/usr/bin/tesseract",
	"extractor.ocr.pdftoppm_cmd":  "pdftoppm",
	"extractor.ocr.language":      "eng",
	"extractor.ocr.dpi":           200,
	"extractor.ocr.concurrency":   4,
	"grading.min_answer_length":   20,
	"grading.workers":             4,
	"grading.request_timeout":     5 * time.Minute,
}

// LoadConfig loads the config file and ENV variables into a Config struct.
// When configFile is empty a config.yaml in the working directory is used if present;
// otherwise defaults and environment variables apply.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug("no config.yaml found, using defaults and environment variables")
	}

	// Environment variables take precedence over config file
	loadDotEnv()

	err := v.BindEnv("embeddings.openai_api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	if err != nil {
		return nil, fmt.Errorf("error binding environment variable: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of a Config.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level and format based on the config file.
// Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	internal.SetLogFormat(cfg.Log.Format)
	log.Info("Log level set to: ", level)
}
