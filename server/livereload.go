package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/docs-ui/uipreview/metrics"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 16
)

type reloadMessage struct {
	Type string `json:"type"`
}

// LiveReloadHub tells connected browsers to reload after a dependency changes.
type LiveReloadHub struct {
	logger   *slog.Logger
	recorder metrics.Recorder

	mu      sync.Mutex
	clients map[*liveClient]struct{}
	closed  bool
}

type liveClient struct {
	send chan []byte
}

// NewLiveReloadHub constructs an empty hub.
func NewLiveReloadHub(logger *slog.Logger, recorder metrics.Recorder) *LiveReloadHub {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{
		logger:   logger,
		recorder: recorder,
		clients:  make(map[*liveClient]struct{}),
	}
}

// ServeHTTP upgrades the request and holds the connection until the client
// leaves or the hub shuts down.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("livereload upgrade", "error", err)
		return
	}
	defer conn.CloseNow()

	client := &liveClient{send: make(chan []byte, sendBuffer)}
	if !h.register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unregister(client)

	ctx := conn.CloseRead(r.Context())
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := write(ctx, conn, msg); err != nil {
				h.logger.Debug("livereload write", "error", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Broadcast queues a full-reload message for every client. Clients whose
// queue is full are dropped.
func (h *LiveReloadHub) Broadcast() {
	msg, _ := json.Marshal(reloadMessage{Type: "full-reload"})

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
			h.logger.Warn("livereload client dropped")
		}
	}
	h.recorder.SetLiveReloadClients(len(h.clients))
	h.logger.Debug("livereload broadcast", "clients", len(h.clients))
}

// Clients reports the number of connected clients.
func (h *LiveReloadHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects every client and rejects new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	h.recorder.SetLiveReloadClients(0)
}

func (h *LiveReloadHub) register(client *liveClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client] = struct{}{}
	h.recorder.SetLiveReloadClients(len(h.clients))
	return true
}

func (h *LiveReloadHub) unregister(client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.recorder.SetLiveReloadClients(len(h.clients))
}
