package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the resolved service configuration.
type Settings struct {
	Port               int
	ModelPath          string
	DataPath           string // optional; enables the run log
	MaxFeatures        int
	NGramMin           int
	NGramMax           int
	MaxIter            int
	RegularizationC    float64
	Tolerance          float64
	MaxBatchSize       int
	MinTrainingSamples int
	LabelPolicy        string
	Lemmatizer         string
	CacheSize          int
	AutoSave           bool
	LogLevel           string
	LogFormat          string
	CORSOrigins        []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	StreamPingInterval time.Duration
}

// Addr is the listen address for the HTTP server.
func (s Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// RunLogEnabled reports whether a data directory for the run log is set.
func (s Settings) RunLogEnabled() bool {
	return s.DataPath != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
