package config

import "time"

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     yaml:"server"     json:"server"`
	Log        LogConfig        `mapstructure:"log"        yaml:"log"        json:"log"`
	Auth       AuthConfig       `mapstructure:"auth"       yaml:"auth"       json:"auth"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings" yaml:"embeddings" json:"embeddings"`
	Extractor  ExtractorConfig  `mapstructure:"extractor"  yaml:"extractor"  json:"extractor"`
	Grading    GradingConfig    `mapstructure:"grading"    yaml:"grading"    json:"grading"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host" json:"host"`
	Port int    `mapstructure:"port" yaml:"port" json:"port" validate:"gt=0,lte=65535"`
	// MaxRequestSize is a human readable size, e.g. "32 MB".
	MaxRequestSize string `mapstructure:"max_request_size" yaml:"max_request_size" json:"max_request_size" validate:"required"`
	// MaxMemory bounds the part of a multipart upload kept in memory; the rest is spooled to disk.
	MaxMemory      string   `mapstructure:"max_memory"      yaml:"max_memory"      json:"max_memory"      validate:"required"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
}

type AuthConfig struct {
	// Secret is loaded from ENV not config file.
	Secret   string `mapstructure:"secret"   yaml:"-"        json:"-"`
	Required bool   `mapstructure:"required" yaml:"required" json:"required"`
}

type EmbeddingsConfig struct {
	// Service is one of "local" (sentence-transformers NLP server) or "openai".
	Service   string `mapstructure:"service"    yaml:"service"    json:"service"    validate:"oneof=local openai"`
	ServerURL string `mapstructure:"server_url" yaml:"server_url" json:"server_url" validate:"omitempty,url"`
	// OpenAIBaseURL is only used by the "openai" service.
	OpenAIBaseURL string `mapstructure:"openai_base_url" yaml:"openai_base_url" json:"openai_base_url" validate:"omitempty,url"`
	Model         string `mapstructure:"model"           yaml:"model"           json:"model"`
	// Dimensions, when non-zero, is enforced on every returned vector.
	Dimensions int `mapstructure:"dimensions" yaml:"dimensions" json:"dimensions" validate:"gte=0"`
	// OpenAIAPIKey is loaded from ENV not config file.
	OpenAIAPIKey string        `mapstructure:"openai_api_key" yaml:"-"           json:"-"`
	Timeout      time.Duration `mapstructure:"timeout"        yaml:"timeout"     json:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"    yaml:"max_retries" json:"max_retries" validate:"gte=0"`
}

type ExtractorConfig struct {
	// MinTextLength is the trimmed length structured text must exceed to skip recognition.
	MinTextLength int       `mapstructure:"min_text_length" yaml:"min_text_length" json:"min_text_length" validate:"gte=0"`
	OCR           OCRConfig `mapstructure:"ocr"             yaml:"ocr"             json:"ocr"`
}

type OCRConfig struct {
	Enabled      bool   `mapstructure:"enabled"       yaml:"enabled"       json:"enabled"`
	TesseractCmd string `mapstructure:"tesseract_cmd" yaml:"tesseract_cmd" json:"tesseract_cmd"`
	PdftoppmCmd  string `mapstructure:"pdftoppm_cmd"  yaml:"pdftoppm_cmd"  json:"pdftoppm_cmd"`
	Language     string `mapstructure:"language"      yaml:"language"      json:"language"`
	DPI          int    `mapstructure:"dpi"           yaml:"dpi"           json:"dpi"         validate:"gte=0"`
	Concurrency  int    `mapstructure:"concurrency"   yaml:"concurrency"   json:"concurrency" validate:"gte=0"`
}

type GradingConfig struct {
	MinAnswerLength int           `mapstructure:"min_answer_length" yaml:"min_answer_length" json:"min_answer_length" validate:"gte=0"`
	Workers         int           `mapstructure:"workers"           yaml:"workers"           json:"workers"           validate:"gte=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"   json:"request_timeout"`
}
