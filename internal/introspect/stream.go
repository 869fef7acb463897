package introspect

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// handleStream upgrades to a websocket and pushes a WorldStats snapshot
// whenever the rate limiter admits one, until the client disconnects or the
// request context is cancelled.
func (s *Server) handleStream(c *gin.Context) {
	rw, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown world"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	limiter := rate.NewLimiter(s.streamRate, 1)
	ctx := c.Request.Context()
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		payload, err := json.Marshal(statsOf(rw))
		if err != nil {
			s.logger.Warn("stats marshal failed", zap.Error(err))
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
