package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rehabit/internal/anomaly"
)

// Config is the full application configuration, read from environment
// variables (optionally seeded from a .env file). The anomaly threshold
// table can additionally be overridden from a YAML file, since those
// cutoffs are tunable constants rather than invariants.
type Config struct {
	ServerPort    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabasePath string
	ArtifactsDir string

	CacheTTL        time.Duration
	ForecastPeriods int
	Contamination   float64
	TrainingSeed    int64

	Thresholds anomaly.Thresholds
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DatabasePath: getEnv("DATABASE_PATH", "rehabit.db"),
		ArtifactsDir: getEnv("ARTIFACTS_DIR", "artifacts"),

		CacheTTL:        time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 5)) * time.Minute,
		ForecastPeriods: getEnvAsInt("FORECAST_PERIODS", 24),
		Contamination:   getEnvAsFloat("ANOMALY_CONTAMINATION", anomaly.DefaultContamination),
		TrainingSeed:    int64(getEnvAsInt("TRAINING_SEED", anomaly.DefaultSeed)),

		Thresholds: anomaly.DefaultThresholds(),
	}

	if path := getEnv("THRESHOLDS_FILE", ""); path != "" {
		if err := loadThresholds(path, &cfg.Thresholds); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func loadThresholds(path string, t *anomaly.Thresholds) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read thresholds file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("failed to parse thresholds file: %w", err)
	}
	return nil
}

// getEnv returns the environment variable or a default.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt returns the environment variable parsed as int.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat returns the environment variable parsed as float64.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var value float64
	if _, err := fmt.Sscanf(valueStr, "%f", &value); err != nil {
		return defaultValue
	}
	return value
}
