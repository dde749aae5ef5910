package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	CORSOrigins        []string
	StreamPingInterval time.Duration
	// MetricsHandler serves GET /metrics; nil leaves the route out.
	MetricsHandler http.Handler
}

// NewRouter wires middleware and every endpoint onto a gin engine.
func NewRouter(service Service, metrics HTTPMetrics, cfg RouterConfig) *gin.Engine {
	registerValidators()

	router := gin.New()

	// Middleware
	router.Use(RequestID())
	router.Use(Logger())
	router.Use(Metrics(metrics))
	router.Use(Recovery())
	router.Use(CORS(cfg.CORSOrigins))

	h := NewHandler(service)
	stream := NewStreamHandler(service, metrics, cfg.CORSOrigins, cfg.StreamPingInterval)

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	router.POST("/predict", h.Predict)
	router.POST("/predict_batch", h.PredictBatch)
	router.POST("/train", h.Train)

	model := router.Group("/model")
	{
		model.GET("/info", h.ModelInfo)
		model.GET("/history", h.History)
		model.POST("/evaluate", h.Evaluate)
		model.POST("/save", h.Save)
		model.POST("/reload", h.Reload)
	}

	router.GET("/ws/predict", stream.Serve)
	router.NoRoute(h.NotFound)

	return router
}
