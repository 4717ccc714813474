package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the speech gateway service
type Config struct {
	// Server configuration
	Port               string `envconfig:"PORT" default:"8080"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"` // Comma separated

	// Caller authentication. Tokens are <uid>.<hex hmac>.
	AuthSecret string `envconfig:"AUTH_SECRET" required:"true"`

	// Text-to-Speech upstream. SpeechAPIKeySecret is the name of the secret
	// holding the API key, not the key itself.
	SpeechAPIKeySecret string `envconfig:"SPEECH_API_KEY_SECRET" default:"GOOGLE_CLOUD_API_KEY"`
	TTSAPIURL          string `envconfig:"TTS_API_URL" default:"https://texttospeech.googleapis.com/v1/text:synthesize"`
	TTSTimeout         int    `envconfig:"TTS_TIMEOUT" default:"30"` // seconds

	// Vertex AI generative upstream
	GoogleCloudProjectID string `envconfig:"GOOGLE_CLOUD_PROJECT_ID" default:""`
	GeminiLocation       string `envconfig:"GEMINI_LOCATION" default:"us-central1"`
	GeminiAPIEndpoint    string `envconfig:"GEMINI_API_ENDPOINT" default:"us-central1-aiplatform.googleapis.com"`
	GeminiModel          string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-exp"`
	GeminiTimeout        int    `envconfig:"GEMINI_TIMEOUT" default:"60"` // seconds

	// Transcript generation parameters
	TranscriptPrompt          string  `envconfig:"TRANSCRIPT_PROMPT" default:"Transcribe the text in this image and return it as a JSON object."`
	TranscriptTemperature     float64 `envconfig:"TRANSCRIPT_TEMPERATURE" default:"1.0"`
	TranscriptMaxOutputTokens int     `envconfig:"TRANSCRIPT_MAX_OUTPUT_TOKENS" default:"8192"`
	TranscriptTopP            float64 `envconfig:"TRANSCRIPT_TOP_P" default:"0.95"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required")
	}

	if strings.TrimSpace(cfg.TranscriptPrompt) == "" {
		return nil, fmt.Errorf("TRANSCRIPT_PROMPT must not be empty")
	}

	if cfg.GoogleCloudProjectID == "" {
		cfg.GoogleCloudProjectID = GetEnv("GCLOUD_PROJECT", "")
	}

	return &cfg, nil
}

// GeminiURL returns the streamGenerateContent endpoint for the configured model
func (c *Config) GeminiURL() string {
	return fmt.Sprintf(
		"https://%s/v1/projects/%s/locations/%s/publishers/google/models/%s:streamGenerateContent",
		c.GeminiAPIEndpoint, c.GoogleCloudProjectID, c.GeminiLocation, c.GeminiModel,
	)
}

// AllowedOrigins splits CORSAllowedOrigins into a list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// TTSTimeoutDuration returns the speech upstream timeout
func (c *Config) TTSTimeoutDuration() time.Duration {
	return time.Duration(c.TTSTimeout) * time.Second
}

// GeminiTimeoutDuration returns the generative upstream timeout
func (c *Config) GeminiTimeoutDuration() time.Duration {
	return time.Duration(c.GeminiTimeout) * time.Second
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
