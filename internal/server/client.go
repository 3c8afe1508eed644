package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const pingInterval = 30 * time.Second

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client represents a connected WebSocket client. Requests run one at a time.
type Client struct {
	conn   *websocket.Conn
	config Config
	send   chan Message

	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(conn *websocket.Conn, config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		config: config,
		send:   make(chan Message, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) SendMessage(msg Message) {
	select {
	case c.send <- msg:
	default:
		log.Warn("Message channel full, dropping message", "type", msg.Type)
	}
}

func (c *Client) SendLog(message, level string) {
	c.SendMessage(NewLogMessage(message, level))
}

func (c *Client) SendProgress(percent int, stage, message string) {
	c.SendMessage(NewProgressMessage(percent, stage, message))
}

func (c *Client) SendError(message string, err error) {
	c.SendMessage(NewErrorMessage(message, err))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				log.Error("Error writing message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		// Cancel any running request and stop the writer
		c.cancel()
		close(c.send)
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("WebSocket error", "error", err)
			}
			return
		}

		switch msg.Type {
		case TypePing:
			c.SendMessage(NewPongMessage())
		case TypeTree, TypeDiff, TypeCheck:
			c.handleRequest(msg)
		default:
			c.SendError(fmt.Sprintf("Unknown message type: %s", msg.Type), nil)
		}
	}
}

func (c *Client) handleRequest(msg Message) {
	pipeline := NewPipeline(c.config, c)
	start := time.Now()

	var err error
	switch msg.Type {
	case TypeTree:
		var req TreeRequest
		if err = ParsePayload(msg, &req); err == nil {
			err = pipeline.RunTree(c.ctx, req)
		}
	case TypeDiff:
		var req DiffRequest
		if err = ParsePayload(msg, &req); err == nil {
			err = pipeline.RunDiff(c.ctx, req)
		}
	case TypeCheck:
		var req CheckRequest
		if err = ParsePayload(msg, &req); err == nil {
			err = pipeline.RunCheck(c.ctx, req)
		}
	}

	if err != nil {
		if c.ctx.Err() != nil {
			c.SendLog("Request cancelled", "warning")
		} else {
			c.SendError(fmt.Sprintf("%s request failed", msg.Type), err)
		}
		return
	}

	log.Debug("Request complete", "type", msg.Type, "duration", time.Since(start))
	c.SendMessage(NewCompleteMessage(true, fmt.Sprintf("%s complete", msg.Type)))
}

func serveWs(config Config, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn, config)

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// NewHandler serves /health and the /ws endpoint for config's project.
func NewHandler(config Config) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(config, w, r)
	})

	return mux
}
