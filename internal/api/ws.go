package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/memory-master/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	readLimit  = 4096
)

// serveWS upgrades the request and attaches a fresh game session to the
// connection: ?player=<id>&name=<display name>.
func (s *Server) serveWS(c *gin.Context) {
	playerID := strings.TrimSpace(c.Query("player"))
	if playerID == "" {
		playerID = "guest_" + uuid.NewString()
	}
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		name = playerID
	}

	// Without an allowed origin gorilla's default check applies: the Origin
	// header, when present, must match the request host.
	upgrader := websocket.Upgrader{}
	if s.allowedOrigin != "" {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return r.Header.Get("Origin") == s.allowedOrigin
		}
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	runner := s.newSession(ctx, playerID, name)
	client := &wsClient{
		conn:    conn,
		runner:  runner,
		replies: make(chan serverMessage, 16),
		log:     s.log.With("player", playerID),
	}

	go runner.Run(ctx)
	go client.writePump()
	go client.readPump(cancel)
}

type wsClient struct {
	conn    *websocket.Conn
	runner  *session.Runner
	replies chan serverMessage
	log     *log.Logger
}

// readPump turns client frames into commands. The session stops when the
// connection drops.
func (c *wsClient) readPump(cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", "err", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(serverMessage{Type: "error", Message: "invalid message"})
			continue
		}
		cmd, ok := msg.command()
		if !ok {
			c.reply(serverMessage{Type: "error", Message: "unknown command " + msg.Type})
			continue
		}
		c.runner.Do(cmd)
	}
}

func (c *wsClient) reply(m serverMessage) {
	select {
	case c.replies <- m:
	default:
	}
}

// writePump is the only writer on the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.runner.Events():
			msg, ok := encodeEvent(evt)
			if !ok {
				continue
			}
			if err := c.write(msg); err != nil {
				return
			}
		case msg := <-c.replies:
			if err := c.write(msg); err != nil {
				return
			}
		case <-c.runner.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) write(msg serverMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.log.Debug("websocket write failed", "type", msg.Type, "err", err)
		return err
	}
	return nil
}
