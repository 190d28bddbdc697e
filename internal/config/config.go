package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration: where data and
// logs live, plus the default request parameters the CLI falls back to when
// no flag is given.
type AppConfig struct {
	DataPath string
	LogDir   string

	// Alpha is the default significance level for interval commands.
	Alpha float64

	// Draws is the default simulation draw or bootstrap replicate count;
	// 0 lets each command pick its own default.
	Draws int

	// Seed pins the random source when non-zero.
	Seed uint64

	// Workers bounds concurrent bootstrap refits; 0 means one per CPU.
	Workers int
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	cfg := &AppConfig{
		DataPath: dataPath,
		LogDir:   logDir,
		Alpha:    getEnvFloat("PREDBAND_ALPHA", 0.05),
		Draws:    getEnvInt("PREDBAND_DRAWS", 0),
		Seed:     uint64(getEnvInt("PREDBAND_SEED", 0)),
		Workers:  getEnvInt("PREDBAND_WORKERS", 0),
	}

	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		log.Warn().Float64("alpha", cfg.Alpha).Msg("PREDBAND_ALPHA outside (0,1), falling back to 0.05")
		cfg.Alpha = 0.05
	}

	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
