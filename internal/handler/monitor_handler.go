package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/classbridge/assess-backend/internal/config"
	"github.com/classbridge/assess-backend/internal/middleware"
	"github.com/classbridge/assess-backend/internal/response"
	ws "github.com/classbridge/assess-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
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

// MonitorHandler streams live submission events of a course to
// instructors over WebSocket, fed by the Redis course monitor channel.
type MonitorHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// CourseMonitorStream godoc
// WS /ws/v1/courses/:course_id/monitor
// Upgrades to WebSocket and forwards submission events published on
// the course's monitor channel. The client may send ping actions to
// keep the read deadline fresh.
func (h *MonitorHandler) CourseMonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID := c.Param("course_id")
	if courseID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidCourse)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	monLog := h.log.With().
		Str("course_id", courseID).
		Str("instructor_id", claims.UserID).
		Logger()
	monLog.Info().Msg("Instructor attached to course monitor")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	channelName := config.CacheKey.CourseMonitorChannel(courseID)
	pubsub := h.rdb.Subscribe(ctx, channelName)
	defer pubsub.Close()

	// Read pump: answers pings and detects the client going away.
	go h.readPump(conn, monLog, cancel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			monLog.Info().Msg("Instructor detached from course monitor")
			return

		case msg, ok := <-ch:
			if !ok {
				monLog.Warn().Msg("Monitor subscription closed")
				return
			}
			notice := ws.SubmissionNotice{
				Event:   ws.EventSubmission,
				Payload: []byte(msg.Payload),
			}
			if err := ws.WriteTyped(conn, notice); err != nil {
				monLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		}
	}
}

// readPump drains client messages, replying to pings. Any read error
// cancels the streaming loop.
func (h *MonitorHandler) readPump(conn *websocket.Conn, monLog zerolog.Logger, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				monLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				monLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		default:
			monLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}
