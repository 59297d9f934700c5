// internal/api/websocket_handlers.go
package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// FeedWebSocket upgrades the request and subscribes it to the live feed.
// Clients only receive; anything they send is discarded.
func (h *Handler) FeedWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("feed websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := newFeedClient(conn, c.ClientIP())
	welcome, _ := json.Marshal(map[string]interface{}{
		"type":      "connected",
		"timestamp": time.Now().UTC(),
	})
	client.send <- welcome

	select {
	case h.Feed.register <- client:
	case <-time.After(5 * time.Second):
		h.logger.Error("feed hub not accepting clients", nil)
		conn.Close()
		return
	}

	go h.handleFeedWrites(client)
	h.handleFeedReads(client)
}

// handleFeedReads keeps the read deadline moving with pongs and returns
// when the client goes away
func (h *Handler) handleFeedReads(client *feedClient) {
	defer func() {
		client.Close()
		select {
		case h.Feed.unregister <- client:
		case <-time.After(time.Second):
		}
	}()

	client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("feed read ended", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		client.UpdatePing()
	}
}

// handleFeedWrites drains the send queue and pings on a ticker. It exits
// when the hub closes the queue.
func (h *Handler) handleFeedWrites(client *feedClient) {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
