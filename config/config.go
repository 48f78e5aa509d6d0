package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// OpenAI configuration
	OpenAIAPIKey    string
	OpenAIChatURL   string
	OpenAITTSURL    string
	OpenAIImagesURL string

	// Object storage
	S3Bucket  string
	AWSRegion string

	// Pipeline tuning
	BatchDelay      time.Duration
	NarrationDelay  time.Duration
	AudioLimit      int
	InsertChunkSize int
}

// Load creates a new Config instance from environment variables. Secrets
// may alternatively be supplied through *_FILE variables pointing at files
// (Docker secrets).
func Load() (*Config, error) {
	apiKey, err := secret("OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	jwtSecret, err := secret("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort: envOr("SERVER_PORT", "8080"),
		ServerHost: envOr("SERVER_HOST", "0.0.0.0"),

		DBHost:     envOr("DB_HOST", "localhost"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     envOr("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     envOr("DB_NAME", "tastegen"),
		DBSSLMode:  envOr("DB_SSL_MODE", "disable"),

		RedisHost:     envOr("REDIS_HOST", "localhost"),
		RedisPort:     envOr("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisURL:      os.Getenv("REDIS_URL"),

		JWTSecret: jwtSecret,

		OpenAIAPIKey:    apiKey,
		OpenAIChatURL:   envOr("OPENAI_CHAT_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAITTSURL:    envOr("OPENAI_TTS_API_URL", "https://api.openai.com/v1/audio/speech"),
		OpenAIImagesURL: envOr("OPENAI_IMAGES_API_URL", "https://api.openai.com/v1/images/generations"),

		S3Bucket:  envOr("S3_BUCKET_NAME", "tastegen-recipe-media"),
		AWSRegion: os.Getenv("AWS_REGION"),

		BatchDelay:      envDurationOr("GENERATION_BATCH_DELAY", 2*time.Second),
		NarrationDelay:  envDurationOr("NARRATION_DELAY", 1500*time.Millisecond),
		AudioLimit:      envIntOr("PIPELINE_AUDIO_LIMIT", 50),
		InsertChunkSize: envIntOr("INSERT_CHUNK_SIZE", 100),
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.RedisDB = n
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the loaded configuration for values the server cannot
// run without.
func Validate(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET or JWT_SECRET_FILE must be set")
	}
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY or OPENAI_API_KEY_FILE must be set")
	}
	if cfg.InsertChunkSize < 1 {
		return fmt.Errorf("INSERT_CHUNK_SIZE must be positive")
	}
	return nil
}

// secret reads NAME from the environment, falling back to the contents of
// the file named by NAME_FILE.
func secret(name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}

	path := os.Getenv(name + "_FILE")
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file for %s: %w", name, err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret file for %s is empty", name)
	}
	return value, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envIntOr(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(name string, fallback time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
