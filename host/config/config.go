// Package config provides environment configuration for the host tools.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"multipwm/host/serial"
)

// Config holds all configuration values for the host tools.
type Config struct {
	// Serial link
	Device      string
	Baud        int
	ReadTimeout time.Duration
	AckTimeout  time.Duration

	// Logging: debug, info, warn or error
	LogLevel string

	// Board description for the soft PWM daemon
	BoardConfig string

	// Soft PWM timer resolution
	TickDuration time.Duration

	// Talk to an in-process simulated board instead of a device
	Simulate bool
}

// LoadDotenv loads .env style files into the environment. With no paths it
// reads ./.env. A missing file is not an error.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Device:       getEnv("DIMMER_DEVICE", "/dev/ttyACM0"),
		Baud:         getEnvInt("DIMMER_BAUD", 250000),
		ReadTimeout:  time.Duration(getEnvInt("DIMMER_READ_TIMEOUT_MS", 100)) * time.Millisecond,
		AckTimeout:   time.Duration(getEnvInt("DIMMER_ACK_TIMEOUT_MS", 500)) * time.Millisecond,
		LogLevel:     getEnv("DIMMER_LOG_LEVEL", "info"),
		BoardConfig:  getEnv("DIMMER_BOARD_CONFIG", ""),
		TickDuration: time.Duration(getEnvInt("DIMMER_TICK_US", 10)) * time.Microsecond,
		Simulate:     getEnvBool("DIMMER_SIMULATE", false),
	}
}

// SerialConfig returns the serial settings for the configured device.
func (c *Config) SerialConfig() *serial.Config {
	return &serial.Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeout,
	}
}

// Logger builds a console logger at the configured level. Unknown levels
// fall back to info.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	return zc.Build()
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
