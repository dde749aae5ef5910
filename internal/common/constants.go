package common

// Version is reported by /health and the CLI.
const Version = "1.0.0"

// ServiceName appears in the root banner and log context.
const ServiceName = "sentiment-service"

// Environment variable keys
const (
	EnvConfigFile         = "CONFIG_FILE"
	EnvPort               = "PORT"
	EnvModelPath          = "MODEL_PATH"
	EnvDataPath           = "DATA_PATH"
	EnvMaxFeatures        = "MAX_FEATURES"
	EnvNGramMin           = "NGRAM_MIN"
	EnvNGramMax           = "NGRAM_MAX"
	EnvMaxIter            = "MAX_ITER"
	EnvRegularizationC    = "REGULARIZATION_C"
	EnvTolerance          = "TOLERANCE"
	EnvMaxBatchSize       = "MAX_BATCH_SIZE"
	EnvMinTrainingSamples = "MIN_TRAINING_SAMPLES"
	EnvLabelPolicy        = "LABEL_POLICY"
	EnvLemmatizer         = "LEMMATIZER"
	EnvCacheSize          = "CACHE_SIZE"
	EnvAutoSave           = "AUTO_SAVE"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvCORSOrigins        = "CORS_ORIGINS"
	EnvReadTimeout        = "READ_TIMEOUT"
	EnvWriteTimeout       = "WRITE_TIMEOUT"
	EnvShutdownTimeout    = "SHUTDOWN_TIMEOUT"
	EnvStreamPingInterval = "STREAM_PING_INTERVAL"
	EnvServerURL          = "SENTIMENT_SERVER_URL"
)

// Configuration defaults
const (
	DefaultPort               = 5000
	DefaultModelPath          = "sentiment_pipeline.model"
	DefaultMaxFeatures        = 10000
	DefaultNGramMin           = 1
	DefaultNGramMax           = 2
	DefaultMaxIter            = 1000
	DefaultRegularizationC    = 1.0
	DefaultTolerance          = 1e-4
	DefaultMaxBatchSize       = 100
	DefaultMinTrainingSamples = 10
	DefaultLabelPolicy        = LabelPolicyLenient
	DefaultLemmatizer         = LemmatizerDictionary
	DefaultCacheSize          = 1000
	DefaultAutoSave           = true
	DefaultLogLevel           = "info"
	DefaultLogFormat          = LogFormatJSON
	DefaultCORSOrigins        = "*"
	DefaultServerURL          = "http://localhost:5000"
)

// Enumerated setting values
const (
	LabelPolicyLenient = "lenient"
	LabelPolicyStrict  = "strict"

	LemmatizerDictionary = "dictionary"
	LemmatizerSnowball   = "snowball"
	LemmatizerPorter     = "porter"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Validation constants
const (
	MinPort               = 1
	MaxPort               = 65535
	MaxFeaturesLimit      = 1000000
	MaxNGram              = 5
	MaxIterLimit          = 100000
	MaxRegularizationC    = 1e6
	MaxBatchSizeLimit     = 10000
	MinTrainingSamplesMin = 2
	MaxCacheSize          = 1000000
)

// Common error messages
const (
	ErrMsgTextRequired        = "Text field is required"
	ErrMsgTextEmpty           = "Text cannot be empty"
	ErrMsgTextsRequired       = "Texts field is required"
	ErrMsgTextsEmpty          = "Texts list cannot be empty"
	ErrMsgBatchTooLarge       = "Batch size too large (max %d)"
	ErrMsgTrainingFields      = "Both texts and labels are required"
	ErrMsgLengthMismatch      = "Texts and labels must have the same length"
	ErrMsgTooFewSamples       = "At least %d training samples required"
	ErrMsgModelNotTrained     = "Model not trained"
	ErrMsgModelArtifactAbsent = "Model artifact not found"
	ErrMsgInternal            = "Internal server error"
)
