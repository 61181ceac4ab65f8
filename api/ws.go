package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/freightpulse/freightpulse/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream upgrades the connection, registers a subscriber, pushes the
// current snapshot immediately and then one snapshot per tick until the
// client goes away or delivery fails.
func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub, err := s.hub.Register()
	if err != nil {
		// Hub already shut down; the process is going away.
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	s.logger.Info("viewer connected", zap.String("subscriber_id", sub.ID()))

	// Fresh viewers render from the current snapshot without waiting up
	// to a full tick. Written before the pumps start, so no write races.
	conn.SetWriteDeadline(time.Now().Add(s.cfg.Stream.WriteTimeout))
	if err := conn.WriteJSON(s.source.Current()); err != nil {
		s.hub.Unregister(sub)
		conn.Close()
		return
	}

	go s.writePump(conn, sub)
	go s.readPump(conn, sub)
}

// writePump drains the subscriber's queue to the socket and keeps the
// connection alive with pings. Any write failure unregisters the subscriber.
func (s *Server) writePump(conn *websocket.Conn, sub *stream.Subscriber) {
	ticker := time.NewTicker(s.cfg.Stream.PingInterval)
	defer func() {
		ticker.Stop()
		s.hub.Unregister(sub)
		conn.Close()
	}()

	for {
		select {
		case <-sub.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case snap := <-sub.Out():
			conn.SetWriteDeadline(time.Now().Add(s.cfg.Stream.WriteTimeout))
			if err := conn.WriteJSON(snap); err != nil {
				s.logger.Debug("viewer write failed",
					zap.String("subscriber_id", sub.ID()), zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.Stream.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames; the stream is server-push only. It exists
// to process control frames and to notice the peer closing.
func (s *Server) readPump(conn *websocket.Conn, sub *stream.Subscriber) {
	defer func() {
		s.hub.Unregister(sub)
		conn.Close()
	}()

	conn.SetReadLimit(s.cfg.Stream.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.cfg.Stream.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.Stream.PongTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.logger.Info("viewer disconnected",
				zap.String("subscriber_id", sub.ID()))
			return
		}
	}
}
