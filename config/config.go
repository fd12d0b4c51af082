package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the player configuration.
type Config struct {
	MusicDir         string        // Directory the file picker opens in
	Volume           float64       // Starting volume, 0 to 1
	IndicatorTimeout time.Duration // How long the volume bar stays up after a gesture
	PositionInterval time.Duration // How often the engine reports the play position
	SeekStep         time.Duration // Distance of one seek gesture
	Artwork          bool          // Render embedded cover art (kitty graphics terminals)
	LogFile          string        // Empty disables logging
	LogLevel         string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load reads configuration from the environment, after merging in a .env
// file from the working directory if there is one. Variables already set in
// the environment win over the file.
func Load(files ...string) *Config {
	// A missing .env is the normal case.
	_ = godotenv.Load(files...)

	logFile := getEnv("CLICKWHEEL_LOG_FILE", "")
	if logFile == "" && len(os.Getenv("DEBUG")) > 0 {
		logFile = "debug.log"
	}

	return &Config{
		MusicDir:         getEnv("CLICKWHEEL_MUSIC_DIR", "."),
		Volume:           getEnvFloat("CLICKWHEEL_VOLUME", 0.5),
		IndicatorTimeout: getEnvDuration("CLICKWHEEL_INDICATOR_TIMEOUT", 5*time.Second),
		PositionInterval: getEnvDuration("CLICKWHEEL_POSITION_INTERVAL", time.Second),
		SeekStep:         getEnvDuration("CLICKWHEEL_SEEK_STEP", 5*time.Second),
		Artwork:          getEnvBool("CLICKWHEEL_ART", false),
		LogFile:          logFile,
		LogLevel:         getEnv("CLICKWHEEL_LOG_LEVEL", "debug"),
	}
}
