package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sentiment-service/internal/analyzer"
	"sentiment-service/internal/api"
	"sentiment-service/internal/cfg"
	"sentiment-service/internal/common"
	"sentiment-service/internal/metrics"
	"sentiment-service/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	cfg.SetupLogging(c.LogLevel, c.LogFormat)
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().
		Str("version", common.Version).
		Int("port", c.Port).
		Str("model_path", c.ModelPath).
		Int("max_features", c.MaxFeatures).
		Str("label_policy", c.LabelPolicy).
		Str("lemmatizer", c.Lemmatizer).
		Msg("Starting sentiment service")

	// Initialize components
	m := metrics.New()
	mw := metrics.NewWrapper(m)

	var recorder analyzer.RunRecorder
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
		recorder = store
	}

	svc, err := analyzer.NewFromSettings(c, mw, recorder, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("analyzer initialization failed")
	}
	loadModel(svc, c.ModelPath)

	router := api.NewRouter(svc, mw, api.RouterConfig{
		CORSOrigins:        c.CORSOrigins,
		StreamPingInterval: c.StreamPingInterval,
		MetricsHandler:     m.Handler(),
	})
	server := api.NewServer(c.Addr(), router, c.ReadTimeout, c.WriteTimeout)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	waitForShutdown(server, serverErr, c.ShutdownTimeout)
}

// initializeStorage opens the run log if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if !c.RunLogEnabled() {
		log.Info().Msg("DATA_PATH not set, run history disabled")
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without run history")
		return nil
	}
	log.Info().Str("path", store.Path()).Msg("Run log opened")
	return store
}

// loadModel restores a previously saved model. A missing or unreadable
// artifact leaves the service untrained.
func loadModel(svc *analyzer.Analyzer, path string) {
	info, err := svc.Load(path)
	switch {
	case err == nil:
		log.Info().Int("vocabulary", info.VocabularySize).Msg("Loaded existing model")
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("No trained model found, train one via POST /train")
	default:
		log.Error().Err(err).Str("path", path).Msg("Failed to load model, starting untrained")
	}
}

func waitForShutdown(server *api.Server, serverErr <-chan error, timeout time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
		return
	}

	log.Info().Msg("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return
	}
	log.Info().Msg("server stopped")
}
