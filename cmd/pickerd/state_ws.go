package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State websocket: a hub tracking connected clients with per-client write
// pumps so one slow client cannot block the rest. The daemon broadcasts
// navigation changes, actions and generation results; a client gets a
// "state_init" snapshot on connect, requested through the daemon's command
// channel so navigation state stays loop-owned.
//
// Messages are JSON text frames with an envelope: {type, ts, data}.

type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// Hub tracks connected websocket clients and fans broadcasts out to them.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size. Zero means a
	// conservative default.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			// Collect slow clients while holding the lock, remove after.
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		// Closing send signals writePump to exit.
		safeCloseChan(c.send)

		h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // ignore "close of closed channel"
	}()
	close(ch)
}

// BroadcastState marshals an envelope and enqueues it for broadcast. It
// never blocks; a full hub queue drops the message.
func (h *Hub) BroadcastState(msgType string, data any) {
	now := time.Now().UTC()
	msg, err := json.Marshal(envelope{Type: msgType, Ts: &now, Data: data})
	if err != nil {
		h.logger.Warn("ws broadcast marshal failed", "error", err, "type", msgType)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "type", msgType)
	}
}

// Client is one websocket connection with a buffered outbound queue.
type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte

	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes queued messages to the websocket. It exits on write error
// or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					if code, text, ok := closeStatus(err); ok {
						c.logger.Info("ws writePump exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
					} else {
						c.logger.Info("ws writePump exiting (write error)", "remote_addr", c.remoteAddr, "error", err)
					}
				}
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Info("ws writePump exiting (ping error)", "remote_addr", c.remoteAddr, "error", err)
				}
				return
			}
		}
	}
}

// readPump discards incoming messages to detect disconnects and handle
// control frames, then unregisters the client.
func (c *Client) readPump(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				if code, text, ok := closeStatus(err); ok {
					c.logger.Info("ws readPump exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
				} else {
					c.logger.Info("ws readPump exiting (read error)", "remote_addr", c.remoteAddr, "error", err)
				}
			}

			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}
	}
}

// StateServer wires the websocket handler to the hub and the daemon's
// command channel.
type StateServer struct {
	logger   *slog.Logger
	hub      *Hub
	commands chan<- Command
}

// NewStateServer wires an existing hub to the daemon's command channel.
// Start hub.Run(ctx) separately.
func NewStateServer(logger *slog.Logger, hub *Hub, commands chan<- Command) *StateServer {
	return &StateServer{
		logger:   logger,
		hub:      hub,
		commands: commands,
	}
}

// Register registers the WS handler on the provided mux.
func (s *StateServer) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleStateWS)
}

// runStateWSServer serves the websocket endpoint until ctx is canceled.
func runStateWSServer(ctx context.Context, port int, s *StateServer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	s.Register(mux, "/ws")

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("state ws listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("state ws server: %w", err)
	}
	return nil
}

var upgrader = websocket.Upgrader{
	// Origin checks are an integration concern; the daemon serves a LAN UI.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStateWS upgrades and registers a client, then sends state_init.
func (s *StateServer) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)

	// Register first so broadcasts can reach the client.
	s.hub.register <- client

	// The pumps must not be tied to the request context: net/http cancels it
	// when the handler returns, which would kill the connection. Lifetime is
	// managed by the hub and by read/write errors.
	go client.writePump(context.Background())
	go client.readPump(context.Background())

	// Initial snapshot goes through the daemon's command channel so the tick
	// loop stays the only owner of navigation state.
	if s.commands != nil {
		reply := make(chan StateSnapshot, 1)

		select {
		case <-r.Context().Done():
			return
		case s.commands <- CmdSnapshot{Reply: reply}:
		}

		waitCtx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		select {
		case <-waitCtx.Done():
			if !errors.Is(waitCtx.Err(), context.Canceled) {
				s.logger.Warn("ws snapshot request failed", "error", waitCtx.Err())
			}
			return

		case snap := <-reply:
			now := time.Now().UTC()
			initMsg, mErr := json.Marshal(envelope{
				Type: "state_init",
				Ts:   &now,
				Data: snap,
			})
			if mErr == nil {
				select {
				case client.send <- initMsg:
				default:
					s.hub.unregister <- client
				}
			}
		}
	}
}
