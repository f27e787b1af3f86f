// Package config loads engine configuration from the environment.
//
// All adapter settings (API keys, device selection, timeouts) live in this
// explicit struct and are passed into the pipeline at construction; nothing
// reads the environment after Load returns.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the detection and correction engine.
type Config struct {
	// External vision service (first-pass counter)
	ExternalVisionEnabled bool
	ExternalVisionURL     string
	ExternalVisionKey     string
	ExternalVisionModel   string
	RequestTimeout        time.Duration

	// Learned object detector (second pass)
	LearnedModelEnabled bool
	ModelPath           string
	ModelConfigPath     string
	ComputeDevice       string // "cpu" or "gpu"

	// Count plausibility for the geometric cascade. Target is the typical
	// load of this deployment; the band bounds what counts are accepted
	// without a hint.
	CountTarget  int
	CountBandMin int
	CountBandMax int

	AutoCrop bool

	DBPath   string
	LogLevel string
}

// Load reads configuration from a .env file (when present) and the process
// environment, falling back to defaults matching the reference deployment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ExternalVisionEnabled: getEnvAsBool("EXTERNAL_VISION_ENABLED", false),
		ExternalVisionURL:     getEnv("EXTERNAL_VISION_URL", "https://api.mistral.ai/v1/chat/completions"),
		ExternalVisionKey:     getEnv("EXTERNAL_VISION_KEY", ""),
		ExternalVisionModel:   getEnv("EXTERNAL_VISION_MODEL", "pixtral-12b-2409"),
		RequestTimeout:        time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,

		LearnedModelEnabled: getEnvAsBool("LEARNED_MODEL_ENABLED", false),
		ModelPath:           getEnv("MODEL_PATH", ""),
		ModelConfigPath:     getEnv("MODEL_CONFIG_PATH", ""),
		ComputeDevice:       getEnv("COMPUTE_DEVICE", "cpu"),

		CountTarget:  getEnvAsInt("COUNT_TARGET", 109),
		CountBandMin: getEnvAsInt("COUNT_BAND_MIN", 90),
		CountBandMax: getEnvAsInt("COUNT_BAND_MAX", 130),

		AutoCrop: getEnvAsBool("AUTO_CROP", true),

		DBPath:   getEnv("DB_PATH", "rollcount.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
