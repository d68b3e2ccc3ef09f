package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/oazco/profiler-backend/internal/config"
	"github.com/oazco/profiler-backend/internal/middleware"
	"github.com/oazco/profiler-backend/internal/service"
	ws "github.com/oazco/profiler-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ProgressWSHandler streams live session progress over WebSocket.
type ProgressWSHandler struct {
	rdb         *redis.Client
	assessments *service.AssessmentService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewProgressWSHandler creates a new ProgressWSHandler.
func NewProgressWSHandler(rdb *redis.Client, assessments *service.AssessmentService, log zerolog.Logger, allowedOrigins []string) *ProgressWSHandler {
	return &ProgressWSHandler{
		rdb:         rdb,
		assessments: assessments,
		log:         log.With().Str("component", "progress_ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// SessionProgressStream godoc
// WS /ws/v1/sessions/:id/progress
// Streams per-submission progress updates published on the session channel,
// and answers explicit progress/ping requests from the client.
func (h *ProgressWSHandler) SessionProgressStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Progress stream connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Forward every update published by SubmitResponse.
	channel := config.CacheKey.SessionProgressChannel(sessionID.String())
	sub := h.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	go h.forwardUpdates(ctx, sub, conn, wsLog)

	// Initial snapshot so the client does not wait for the next submit.
	h.sendProgress(ctx, conn, sessionID, wsLog)

	for {
		var msg ws.RequestEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionProgress:
			h.sendProgress(ctx, conn, sessionID, wsLog)
		default:
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

func (h *ProgressWSHandler) forwardUpdates(ctx context.Context, sub *redis.PubSub, conn *ws.Conn, wsLog zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var payload json.RawMessage = []byte(msg.Payload)
			if err := conn.WriteTyped(ws.ProgressEvent{Event: ws.EventProgress, Payload: payload}); err != nil {
				wsLog.Debug().Err(err).Msg("Progress forward failed, closing")
				return
			}
		}
	}
}

func (h *ProgressWSHandler) sendProgress(ctx context.Context, conn *ws.Conn, sessionID uuid.UUID, wsLog zerolog.Logger) {
	info, err := h.assessments.Progress(ctx, sessionID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Progress computation failed")
		conn.WriteError("progress unavailable")
		return
	}
	conn.WriteTyped(ws.ProgressEvent{Event: ws.EventProgress, Payload: info})
}
