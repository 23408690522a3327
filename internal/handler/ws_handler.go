package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/response"
	ws "github.com/stemsi/classroom-backend/internal/websocket"
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
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live notifications to connected users.
type WSHandler struct {
	broker   ws.Broker
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(broker ws.Broker, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		broker:   broker,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// NotificationStream godoc
// WS /ws/v1/notifications/stream?token=<access token>
// Upgrades to WebSocket and pushes every notification delivered to the caller.
func (h *WSHandler) NotificationStream(c *gin.Context) {
	sub := subject(c)
	if sub.ID.IsZero() {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stream, err := h.broker.Subscribe(c.Request.Context(), sub.ID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", sub.ID.Hex()).Msg("Notification subscribe failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer stream.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("user_id", sub.ID.Hex()).Logger()
	wsLog.Info().Msg("User connected")

	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, UserID: sub.ID.Hex()}); err != nil {
		return
	}

	// The reader only forwards pings; all writes stay on this goroutine.
	pings := make(chan struct{}, 1)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			if msg.Action != ws.ActionPing {
				wsLog.Debug().Str("action", string(msg.Action)).Msg("Unknown action")
				continue
			}
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case frame, ok := <-stream.C:
			if !ok {
				_ = ws.WriteError(conn, "notification stream closed")
				return
			}
			if err := ws.WriteRaw(conn, frame); err != nil {
				wsLog.Warn().Err(err).Msg("Notification write failed")
				return
			}
		}
	}
}
