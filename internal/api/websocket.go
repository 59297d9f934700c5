// internal/api/websocket.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/utils"
)

const (
	feedSendBuffer   = 64
	feedPingPeriod   = 30 * time.Second
	feedPongWait     = 60 * time.Second
	feedWriteWait    = 10 * time.Second
	feedCleanupEvery = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedConnection is the part of *websocket.Conn the feed uses
type FeedConnection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// feedClient is one live-feed subscriber
type feedClient struct {
	conn      FeedConnection
	send      chan []byte
	closed    int32
	lastPing  int64
	createdAt time.Time
	remote    string
	closeSend sync.Once
}

func newFeedClient(conn FeedConnection, remote string) *feedClient {
	now := time.Now()
	return &feedClient{
		conn:      conn,
		send:      make(chan []byte, feedSendBuffer),
		lastPing:  now.UnixNano(),
		createdAt: now,
		remote:    remote,
	}
}

// Close shuts the connection; the send channel is closed by the hub
func (client *feedClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) && client.conn != nil {
		client.conn.Close()
	}
}

func (client *feedClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

func (client *feedClient) UpdatePing() {
	atomic.StoreInt64(&client.lastPing, time.Now().UnixNano())
}

func (client *feedClient) IsExpired(timeout time.Duration) bool {
	if timeout <= 0 {
		return true
	}
	last := time.Unix(0, atomic.LoadInt64(&client.lastPing))
	return time.Since(last) > timeout
}

// FeedHub fans feed events out to every connected websocket client. All
// client bookkeeping happens on the Run goroutine.
type FeedHub struct {
	clients    map[*feedClient]struct{}
	broadcast  chan []byte
	register   chan *feedClient
	unregister chan *feedClient

	count       int64
	pingTimeout time.Duration
	logger      *utils.Logger
	metrics     *utils.MetricsCollector
}

func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients:     make(map[*feedClient]struct{}),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *feedClient, 64),
		unregister:  make(chan *feedClient, 64),
		pingTimeout: feedPongWait,
		logger:      utils.GetLogger(),
		metrics:     utils.GetMetricsCollector(),
	}
}

// Run serves the hub until ctx is done, then disconnects every client
func (h *FeedHub) Run(ctx context.Context) error {
	ticker := time.NewTicker(feedCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.updateCount()
			h.logger.Debug("feed client connected", map[string]interface{}{
				"remote":  client.remote,
				"clients": len(h.clients),
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("feed client too slow, disconnecting", map[string]interface{}{
						"remote": client.remote,
					})
					h.remove(client)
				}
			}

		case <-ticker.C:
			h.cleanupExpiredConnections()

		case <-ctx.Done():
			h.shutdown()
			return nil
		}
	}
}

func (h *FeedHub) remove(client *feedClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closeSend.Do(func() { close(client.send) })
	client.Close()
	h.updateCount()
	h.logger.Debug("feed client disconnected", map[string]interface{}{
		"remote":    client.remote,
		"connected": time.Since(client.createdAt).Round(time.Second).String(),
	})
}

func (h *FeedHub) cleanupExpiredConnections() {
	for client := range h.clients {
		if client.IsClosed() || client.IsExpired(h.pingTimeout) {
			h.remove(client)
		}
	}
}

func (h *FeedHub) shutdown() {
	for client := range h.clients {
		h.remove(client)
	}
	h.logger.Info("live feed stopped", nil)
}

func (h *FeedHub) updateCount() {
	atomic.StoreInt64(&h.count, int64(len(h.clients)))
	h.metrics.SetFeedClients(len(h.clients))
}

// ClientCount is the number of connected clients
func (h *FeedHub) ClientCount() int {
	return int(atomic.LoadInt64(&h.count))
}

// BroadcastFeedEvent queues event for every client. Events are dropped
// when the hub is backed up.
func (h *FeedHub) BroadcastFeedEvent(event models.FeedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode feed event", map[string]interface{}{"error": err.Error()})
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("feed backlog full, event dropped", map[string]interface{}{"id": event.ID})
	}
}
