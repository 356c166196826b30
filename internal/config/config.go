// Package config reads runtime settings from the environment. Load pulls in
// the .env file named by MLP_ENV (or .env by default); every accessor then
// reads a flat env var and falls back to a default when it is unset or
// unparsable.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cwbudde/algo-mlp/mlp"
)

// Load reads the env file named by MLP_ENV, then its .local sidecar. Missing
// files are ignored and variables already set in the environment win.
func Load() error {
	envFile := os.Getenv("MLP_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".local")

	return nil
}

// Slope returns the psychometric slope k.
func Slope() float64 {
	return floatOr("MLP_SLOPE", mlp.DefaultConfig().Slope)
}

// HypMin returns the lowest hypothesised midpoint.
func HypMin() float64 {
	return floatOr("MLP_HYP_MIN", mlp.DefaultConfig().HypMin)
}

// HypMax returns the highest hypothesised midpoint.
func HypMax() float64 {
	return floatOr("MLP_HYP_MAX", mlp.DefaultConfig().HypMax)
}

// HypN returns the number of midpoints.
func HypN() int {
	n, err := strconv.Atoi(os.Getenv("MLP_HYP_N"))
	if err != nil || n <= 0 {
		return mlp.DefaultConfig().HypN
	}
	return n
}

// FalseAlarmRates returns the comma-separated MLP_FALSE_ALARM_RATES list.
// Any unparsable entry discards the whole list.
func FalseAlarmRates() []float64 {
	raw := strings.TrimSpace(os.Getenv("MLP_FALSE_ALARM_RATES"))
	if raw == "" {
		return mlp.DefaultConfig().FalseAlarmRates
	}

	parts := strings.Split(raw, ",")
	rates := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mlp.DefaultConfig().FalseAlarmRates
		}
		rates = append(rates, v)
	}
	return rates
}

// Estimator assembles an estimator configuration from the env. It is not
// validated here; mlp.New reports bad values.
func Estimator() mlp.Config {
	return mlp.Config{
		Slope:           Slope(),
		HypMin:          HypMin(),
		HypMax:          HypMax(),
		HypN:            HypN(),
		FalseAlarmRates: FalseAlarmRates(),
	}
}

// DataDir returns where trial logs are written.
// Defaults to "data" if not set.
func DataDir() string {
	d := os.Getenv("MLP_DATA_DIR")
	if d == "" {
		return "data"
	}
	return d
}

// Seed returns the random seed for tie-breaking and shuffling.
// Defaults to 1 if not set.
func Seed() uint64 {
	s, err := strconv.ParseUint(os.Getenv("MLP_SEED"), 10, 64)
	if err != nil {
		return 1
	}
	return s
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// NewLogger returns a console logger at LogLevel. Unknown levels fall back
// to info.
func NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(LogLevel())
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func floatOr(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}
