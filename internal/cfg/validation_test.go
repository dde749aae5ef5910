package cfg

import (
	"strings"
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	s := Defaults()
	return &s
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantMsg string
	}{
		{"port zero", func(s *Settings) { s.Port = 0 }, "port"},
		{"port too high", func(s *Settings) { s.Port = 70000 }, "port"},
		{"empty model path", func(s *Settings) { s.ModelPath = "" }, "model path"},
		{"zero max features", func(s *Settings) { s.MaxFeatures = 0 }, "max features"},
		{"huge max features", func(s *Settings) { s.MaxFeatures = 5000000 }, "max features"},
		{"ngram min zero", func(s *Settings) { s.NGramMin = 0 }, "n-gram"},
		{"ngram inverted", func(s *Settings) { s.NGramMin, s.NGramMax = 3, 2 }, "n-gram"},
		{"ngram too wide", func(s *Settings) { s.NGramMax = 9 }, "n-gram"},
		{"unknown lemmatizer", func(s *Settings) { s.Lemmatizer = "wordnet" }, "lemmatizer"},
		{"zero iterations", func(s *Settings) { s.MaxIter = 0 }, "max iterations"},
		{"negative C", func(s *Settings) { s.RegularizationC = -1 }, "regularization"},
		{"zero tolerance", func(s *Settings) { s.Tolerance = 0 }, "tolerance"},
		{"zero batch", func(s *Settings) { s.MaxBatchSize = 0 }, "batch size"},
		{"one training sample", func(s *Settings) { s.MinTrainingSamples = 1 }, "training samples"},
		{"unknown label policy", func(s *Settings) { s.LabelPolicy = "fuzzy" }, "label policy"},
		{"negative cache", func(s *Settings) { s.CacheSize = -1 }, "cache size"},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, "log level"},
		{"empty log level", func(s *Settings) { s.LogLevel = "" }, "log level"},
		{"bad log format", func(s *Settings) { s.LogFormat = "xml" }, "log format"},
		{"no cors origins", func(s *Settings) { s.CORSOrigins = nil }, "CORS"},
		{"read timeout too short", func(s *Settings) { s.ReadTimeout = 100 * time.Millisecond }, "read timeout"},
		{"write timeout too long", func(s *Settings) { s.WriteTimeout = 2 * time.Hour }, "write timeout"},
		{"shutdown timeout zero", func(s *Settings) { s.ShutdownTimeout = 0 }, "shutdown timeout"},
		{"ping interval too long", func(s *Settings) { s.StreamPingInterval = 10 * time.Minute }, "ping interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestValidateSettings_Boundaries(t *testing.T) {
	settings := createValidSettings()
	settings.Port = 65535
	settings.MaxFeatures = 1
	settings.NGramMin, settings.NGramMax = 5, 5
	settings.MinTrainingSamples = 2
	settings.CacheSize = 0
	settings.LabelPolicy = "strict"
	settings.Lemmatizer = "porter"
	settings.LogLevel = "trace"
	settings.LogFormat = "console"
	settings.StreamPingInterval = time.Second

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected boundary values to pass, got: %v", err)
	}
}
