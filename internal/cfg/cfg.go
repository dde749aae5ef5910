package cfg

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"sentiment-service/internal/common"
)

// Timeout defaults.
const (
	defaultReadTimeout        = 30 * time.Second
	defaultWriteTimeout       = 5 * time.Minute
	defaultShutdownTimeout    = 10 * time.Second
	defaultStreamPingInterval = 30 * time.Second
)

type ConfigFile struct {
	Server struct {
		Port               int      `yaml:"port"`
		ReadTimeout        string   `yaml:"readTimeout"`
		WriteTimeout       string   `yaml:"writeTimeout"`
		ShutdownTimeout    string   `yaml:"shutdownTimeout"`
		CORSOrigins        []string `yaml:"corsOrigins"`
		MaxBatchSize       int      `yaml:"maxBatchSize"`
		StreamPingInterval string   `yaml:"streamPingInterval"`
	} `yaml:"server"`

	Model struct {
		Path               string `yaml:"path"`
		AutoSave           *bool  `yaml:"autoSave"`
		LabelPolicy        string `yaml:"labelPolicy"`
		MinTrainingSamples int    `yaml:"minTrainingSamples"`
	} `yaml:"model"`

	Features struct {
		MaxFeatures int    `yaml:"maxFeatures"`
		NGramMin    int    `yaml:"ngramMin"`
		NGramMax    int    `yaml:"ngramMax"`
		Lemmatizer  string `yaml:"lemmatizer"`
	} `yaml:"features"`

	Classifier struct {
		MaxIter         int     `yaml:"maxIter"`
		RegularizationC float64 `yaml:"regularizationC"`
		Tolerance       float64 `yaml:"tolerance"`
	} `yaml:"classifier"`

	Cache struct {
		Size *int `yaml:"size"`
	} `yaml:"cache"`

	System struct {
		DataPath  string `yaml:"dataPath"`
		LogLevel  string `yaml:"logLevel"`
		LogFormat string `yaml:"logFormat"`
	} `yaml:"system"`
}

// Defaults returns the settings used when neither a config file nor the
// environment provides a value.
func Defaults() Settings {
	return Settings{
		Port:               common.DefaultPort,
		ModelPath:          common.DefaultModelPath,
		MaxFeatures:        common.DefaultMaxFeatures,
		NGramMin:           common.DefaultNGramMin,
		NGramMax:           common.DefaultNGramMax,
		MaxIter:            common.DefaultMaxIter,
		RegularizationC:    common.DefaultRegularizationC,
		Tolerance:          common.DefaultTolerance,
		MaxBatchSize:       common.DefaultMaxBatchSize,
		MinTrainingSamples: common.DefaultMinTrainingSamples,
		LabelPolicy:        common.DefaultLabelPolicy,
		Lemmatizer:         common.DefaultLemmatizer,
		CacheSize:          common.DefaultCacheSize,
		AutoSave:           common.DefaultAutoSave,
		LogLevel:           common.DefaultLogLevel,
		LogFormat:          common.DefaultLogFormat,
		CORSOrigins:        []string{common.DefaultCORSOrigins},
		ReadTimeout:        defaultReadTimeout,
		WriteTimeout:       defaultWriteTimeout,
		ShutdownTimeout:    defaultShutdownTimeout,
		StreamPingInterval: defaultStreamPingInterval,
	}
}

// Load resolves settings from the YAML file named by CONFIG_FILE, when set,
// then applies environment overrides and validates the result.
func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	base, err := applyConfigFile(Defaults(), config)
	if err != nil {
		return Settings{}, err
	}

	settings := applyEnv(base)
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := applyEnv(Defaults())

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// applyConfigFile overlays every value the file sets on s.
func applyConfigFile(s Settings, config ConfigFile) (Settings, error) {
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"server.readTimeout", config.Server.ReadTimeout, &s.ReadTimeout},
		{"server.writeTimeout", config.Server.WriteTimeout, &s.WriteTimeout},
		{"server.shutdownTimeout", config.Server.ShutdownTimeout, &s.ShutdownTimeout},
		{"server.streamPingInterval", config.Server.StreamPingInterval, &s.StreamPingInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid duration for %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	s.Port = intOr(config.Server.Port, s.Port)
	s.MaxBatchSize = intOr(config.Server.MaxBatchSize, s.MaxBatchSize)
	if len(config.Server.CORSOrigins) > 0 {
		s.CORSOrigins = config.Server.CORSOrigins
	}

	s.ModelPath = stringOr(config.Model.Path, s.ModelPath)
	if config.Model.AutoSave != nil {
		s.AutoSave = *config.Model.AutoSave
	}
	s.LabelPolicy = stringOr(config.Model.LabelPolicy, s.LabelPolicy)
	s.MinTrainingSamples = intOr(config.Model.MinTrainingSamples, s.MinTrainingSamples)

	s.MaxFeatures = intOr(config.Features.MaxFeatures, s.MaxFeatures)
	s.NGramMin = intOr(config.Features.NGramMin, s.NGramMin)
	s.NGramMax = intOr(config.Features.NGramMax, s.NGramMax)
	s.Lemmatizer = stringOr(config.Features.Lemmatizer, s.Lemmatizer)

	s.MaxIter = intOr(config.Classifier.MaxIter, s.MaxIter)
	if config.Classifier.RegularizationC != 0 {
		s.RegularizationC = config.Classifier.RegularizationC
	}
	if config.Classifier.Tolerance != 0 {
		s.Tolerance = config.Classifier.Tolerance
	}

	if config.Cache.Size != nil {
		s.CacheSize = *config.Cache.Size
	}

	s.DataPath = stringOr(config.System.DataPath, s.DataPath)
	s.LogLevel = stringOr(config.System.LogLevel, s.LogLevel)
	s.LogFormat = stringOr(config.System.LogFormat, s.LogFormat)

	return s, nil
}

// applyEnv overrides s with every environment variable that is set.
func applyEnv(s Settings) Settings {
	s.Port = getIntOrDefault(common.EnvPort, s.Port)
	s.ModelPath = getEnvOrDefault(common.EnvModelPath, s.ModelPath)
	s.DataPath = getEnv(common.EnvDataPath, s.DataPath) // may be set empty to disable the run log
	s.MaxFeatures = getIntOrDefault(common.EnvMaxFeatures, s.MaxFeatures)
	s.NGramMin = getIntOrDefault(common.EnvNGramMin, s.NGramMin)
	s.NGramMax = getIntOrDefault(common.EnvNGramMax, s.NGramMax)
	s.MaxIter = getIntOrDefault(common.EnvMaxIter, s.MaxIter)
	s.RegularizationC = getFloatOrDefault(common.EnvRegularizationC, s.RegularizationC)
	s.Tolerance = getFloatOrDefault(common.EnvTolerance, s.Tolerance)
	s.MaxBatchSize = getIntOrDefault(common.EnvMaxBatchSize, s.MaxBatchSize)
	s.MinTrainingSamples = getIntOrDefault(common.EnvMinTrainingSamples, s.MinTrainingSamples)
	s.LabelPolicy = strings.ToLower(getEnvOrDefault(common.EnvLabelPolicy, s.LabelPolicy))
	s.Lemmatizer = strings.ToLower(getEnvOrDefault(common.EnvLemmatizer, s.Lemmatizer))
	s.CacheSize = getIntOrDefault(common.EnvCacheSize, s.CacheSize)
	s.AutoSave = getBoolOrDefault(common.EnvAutoSave, s.AutoSave)
	s.LogLevel = strings.ToLower(getEnvOrDefault(common.EnvLogLevel, s.LogLevel))
	s.LogFormat = strings.ToLower(getEnvOrDefault(common.EnvLogFormat, s.LogFormat))
	s.CORSOrigins = splitOrDefault(os.Getenv(common.EnvCORSOrigins), s.CORSOrigins)
	s.ReadTimeout = getDurationOrDefault(common.EnvReadTimeout, s.ReadTimeout)
	s.WriteTimeout = getDurationOrDefault(common.EnvWriteTimeout, s.WriteTimeout)
	s.ShutdownTimeout = getDurationOrDefault(common.EnvShutdownTimeout, s.ShutdownTimeout)
	s.StreamPingInterval = getDurationOrDefault(common.EnvStreamPingInterval, s.StreamPingInterval)
	return s
}

func intOr(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func stringOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	// Feature extraction
	if settings.MaxFeatures <= 0 || settings.MaxFeatures > common.MaxFeaturesLimit {
		return fmt.Errorf("max features must be between 1 and %d, got %d", common.MaxFeaturesLimit, settings.MaxFeatures)
	}
	if settings.NGramMin < 1 || settings.NGramMax < settings.NGramMin || settings.NGramMax > common.MaxNGram {
		return fmt.Errorf("n-gram range must satisfy 1 <= min <= max <= %d, got [%d, %d]", common.MaxNGram, settings.NGramMin, settings.NGramMax)
	}
	switch settings.Lemmatizer {
	case common.LemmatizerDictionary, common.LemmatizerSnowball, common.LemmatizerPorter:
	default:
		return fmt.Errorf("lemmatizer must be %q, %q or %q, got %q",
			common.LemmatizerDictionary, common.LemmatizerSnowball, common.LemmatizerPorter, settings.Lemmatizer)
	}

	// Classifier
	if settings.MaxIter <= 0 || settings.MaxIter > common.MaxIterLimit {
		return fmt.Errorf("max iterations must be between 1 and %d, got %d", common.MaxIterLimit, settings.MaxIter)
	}
	if settings.RegularizationC <= 0 || settings.RegularizationC > common.MaxRegularizationC {
		return fmt.Errorf("regularization C must be in (0, %g], got %g", common.MaxRegularizationC, settings.RegularizationC)
	}
	if settings.Tolerance <= 0 || settings.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in (0, 1), got %g", settings.Tolerance)
	}

	// Request limits
	if settings.MaxBatchSize <= 0 || settings.MaxBatchSize > common.MaxBatchSizeLimit {
		return fmt.Errorf("max batch size must be between 1 and %d, got %d", common.MaxBatchSizeLimit, settings.MaxBatchSize)
	}
	if settings.MinTrainingSamples < common.MinTrainingSamplesMin {
		return fmt.Errorf("min training samples must be at least %d, got %d", common.MinTrainingSamplesMin, settings.MinTrainingSamples)
	}
	switch settings.LabelPolicy {
	case common.LabelPolicyLenient, common.LabelPolicyStrict:
	default:
		return fmt.Errorf("label policy must be %q or %q, got %q", common.LabelPolicyLenient, common.LabelPolicyStrict, settings.LabelPolicy)
	}
	if settings.CacheSize < 0 || settings.CacheSize > common.MaxCacheSize {
		return fmt.Errorf("cache size must be between 0 and %d, got %d", common.MaxCacheSize, settings.CacheSize)
	}

	// Logging
	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil || settings.LogLevel == "" {
		return fmt.Errorf("invalid log level %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case common.LogFormatJSON, common.LogFormatConsole:
	default:
		return fmt.Errorf("log format must be %q or %q, got %q", common.LogFormatJSON, common.LogFormatConsole, settings.LogFormat)
	}

	// HTTP
	if len(settings.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be specified")
	}
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 10*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 10m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > time.Hour {
		return fmt.Errorf("write timeout must be between 1s and 1h, got %v", settings.WriteTimeout)
	}
	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 5m, got %v", settings.ShutdownTimeout)
	}
	if settings.StreamPingInterval < time.Second || settings.StreamPingInterval > 5*time.Minute {
		return fmt.Errorf("stream ping interval must be between 1s and 5m, got %v", settings.StreamPingInterval)
	}

	return nil
}
