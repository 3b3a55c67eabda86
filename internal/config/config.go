package config

import (
	"os"
	"strconv"

	"gohypo/internal/errors"
)

// Config is the complete bias-engine configuration, assembled from
// environment variables read via Load().
type Config struct {
	Storage StorageConfig
	Engine  EngineConfig
	History HistoryConfig
}

// StorageConfig selects and parameterizes the result sink and input
// loader (spec §6: STORAGE_MODE, --storage-mode).
type StorageConfig struct {
	Mode      string // auto | local | s3
	DataRoot  string // local filesystem root for corporate_bias_datasets/
	S3Bucket  string
	S3Prefix  string
}

// EngineConfig holds the engine's own operational settings.
type EngineConfig struct {
	Seed          int64
	AnalysisVersion string
}

// HistoryConfig configures the optional postgres-backed run history
// recorded alongside the primary JSON sink (--history-db).
type HistoryConfig struct {
	DSN string
}

// Load reads configuration from environment variables. Callers are
// expected to call godotenv.Load() beforehand (see cmd/cli); a missing
// .env file is not itself an error.
func Load() (*Config, error) {
	cfg := &Config{
		Storage: loadStorageConfig(),
		Engine:  loadEngineConfig(),
		History: HistoryConfig{DSN: getEnvOrDefault("BIAS_HISTORY_DB_DSN", "")},
	}
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:     getEnvOrDefault("STORAGE_MODE", "auto"),
		DataRoot: getEnvOrDefault("BIAS_DATA_ROOT", "corporate_bias_datasets"),
		S3Bucket: getEnvOrDefault("BIAS_S3_BUCKET", ""),
		S3Prefix: getEnvOrDefault("BIAS_S3_PREFIX", "corporate_bias_datasets"),
	}
}

func loadEngineConfig() EngineConfig {
	return EngineConfig{
		Seed:            int64(getEnvIntOrDefault("BIAS_ENGINE_SEED", 42)),
		AnalysisVersion: getEnvOrDefault("BIAS_ANALYSIS_VERSION", "1.0.0"),
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Mode {
	case "auto", "local", "s3":
	default:
		return errors.ConfigInvalid("STORAGE_MODE must be one of auto, local, s3")
	}
	if cfg.Storage.Mode == "s3" && cfg.Storage.S3Bucket == "" {
		return errors.ConfigInvalid("BIAS_S3_BUCKET is required when STORAGE_MODE=s3")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
