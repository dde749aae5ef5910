package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sentiment-service/internal/analyzer"
	"sentiment-service/internal/common"
)

const (
	streamReadLimit    = 512 * 1024 // 512KB max frame
	streamWriteTimeout = 10 * time.Second
)

// StreamRequest is one client frame on /ws/predict. Exactly one of Text or
// Texts is expected.
type StreamRequest struct {
	ID    string   `json:"id,omitempty"`
	Text  *string  `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`
}

// StreamResponse answers one StreamRequest.
type StreamResponse struct {
	ID      string            `json:"id,omitempty"`
	Result  *analyzer.Result  `json:"result,omitempty"`
	Results []analyzer.Result `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
}

// StreamHandler serves predictions over a websocket.
type StreamHandler struct {
	service      Service
	metrics      HTTPMetrics
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// NewStreamHandler creates a StreamHandler. Upgrades are limited to origins.
func NewStreamHandler(service Service, metrics HTTPMetrics, origins []string, pingInterval time.Duration) *StreamHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &StreamHandler{
		service:      service,
		metrics:      metrics,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(origins, r)
			},
		},
	}
}

// streamConn serialises writes; gorilla connections allow one concurrent
// writer.
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *streamConn) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return s.conn.WriteJSON(v)
}

func (s *streamConn) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(streamWriteTimeout))
}

// Serve handles GET /ws/predict
func (h *StreamHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		log.Warn().Err(err).Str("request_id", c.GetString(contextKeyRequestID)).Msg("WebSocket upgrade failed")
		return
	}

	if h.metrics != nil {
		h.metrics.StreamOpened()
		defer h.metrics.StreamClosed()
	}

	sc := &streamConn{conn: conn}
	defer conn.Close()

	readTimeout := 2 * h.pingInterval
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(sc, done)

	log.Info().Str("remote", c.ClientIP()).Msg("Prediction stream opened")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("Prediction stream closed unexpectedly")
			} else {
				log.Info().Msg("Prediction stream closed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := sc.writeJSON(h.handleFrame(msg)); err != nil {
			log.Warn().Err(err).Msg("Failed to write stream response")
			return
		}
	}
}

func (h *StreamHandler) keepAlive(sc *streamConn, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := sc.ping(); err != nil {
				log.Debug().Err(err).Msg("Stream ping failed")
				return
			}
		}
	}
}

func (h *StreamHandler) handleFrame(msg []byte) StreamResponse {
	var req StreamRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return StreamResponse{Error: "Invalid JSON frame", Code: CodeInvalidRequest}
	}

	resp := StreamResponse{ID: req.ID}
	switch {
	case req.Text != nil && req.Texts != nil:
		resp.Error, resp.Code = "Send either text or texts, not both", CodeInvalidRequest
	case req.Text != nil:
		result, err := h.service.Predict(*req.Text)
		if err != nil {
			return errorFrame(resp, err)
		}
		resp.Result = &result
	case req.Texts != nil:
		results, err := h.service.PredictBatch(req.Texts)
		if err != nil {
			return errorFrame(resp, err)
		}
		resp.Results = results
	default:
		resp.Error, resp.Code = common.ErrMsgTextRequired, CodeInvalidRequest
	}
	return resp
}

func errorFrame(resp StreamResponse, err error) StreamResponse {
	mapped := MapError(err)
	if mapped.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Stream prediction failed")
	}
	resp.Error, resp.Code = mapped.Message, mapped.Code
	return resp
}
