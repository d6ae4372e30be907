// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielhkuo/stage/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	// Access codes are public; any origin may watch a channel
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	sub  *Subscription
}

// ServeWS handles GET /realtime/{channel}. The query selects signals,
// see SpecFromQuery. Each signal and status change is written as a JSON
// Message frame.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")
	if channel == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}

	sub, err := h.Subscribe(channel, SpecFromQuery(r.URL.Query()))
	if err != nil {
		http.Error(w, "realtime unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		logger.Error("failed to upgrade to websocket", zap.Error(err))
		return
	}

	c := &wsClient{id: uuid.NewString(), conn: conn, sub: sub}
	logger.Info("websocket client connected",
		zap.String("client_id", c.id),
		zap.String("channel", channel))

	go c.writePump()
	go c.readPump()
}

// readPump only handles control frames; clients never publish
func (c *wsClient) readPump() {
	defer func() {
		c.sub.Close()
		c.conn.Close()
		logger.Info("websocket client disconnected", zap.String("client_id", c.id))
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	messages := c.sub.Messages()
	statuses := c.sub.Status()

	for {
		select {
		case msg, ok := <-messages:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.writeJSON(msg); err != nil {
				return
			}

		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.writeJSON(Message{Type: TypeStatus, Channel: c.sub.Channel(), Status: st}); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) writeJSON(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to marshal websocket message", zap.Error(err))
		return nil
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
