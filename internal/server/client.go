// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Client represents a WebSocket client connection in the chat system.
// It owns the outbound event queue and forwards decoded inbound frames to
// its chat session.
type Client struct {
	conn    *websocket.Conn
	send    chan chat.Event
	done    chan struct{}
	hub     *Hub
	session *chat.Session
	id      string
	addr    string
	logger  *slog.Logger

	closeOnce sync.Once
	kicked    atomic.Bool

	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig
}

// NewClient creates a new Client instance with the provided WebSocket connection,
// hub reference, and client address. Every client gets a fresh random id that
// identifies its chat session.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	id := uuid.NewString()

	return &Client{
		conn:           conn,
		send:           make(chan chat.Event, sendBufferSize),
		done:           make(chan struct{}),
		hub:            hub,
		id:             id,
		addr:           addr,
		logger:         hub.logger.With("session", id, "addr", addr),
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
	}
}

// ID returns the connection handle.
func (c *Client) ID() string {
	return c.id
}

// Events returns the client's outbound queue. This channel is read-only from
// the caller's perspective.
func (c *Client) Events() <-chan chat.Event {
	return c.send
}

// Send queues ev for the write pump without blocking. A client whose queue is
// full is disconnected, since it can no longer observe every event in order.
func (c *Client) Send(ev chat.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
		if c.kicked.CompareAndSwap(false, true) {
			go c.kick("send buffer full")
		}
		return false
	}
}

func (c *Client) kick(reason string) {
	c.logger.Warn("dropping client", "reason", reason)
	c.close()
}

// close signals the write pump to send a close frame and shut the
// connection down. Safe to call repeatedly.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// closeConn closes the underlying connection, unblocking any pending read.
func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Error("error closing connection", "error", err)
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// logReadError logs a read failure at a level matching its cause.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("message exceeded maximum size", "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Info("client disconnected", "reason", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Info("client connection closed", "reason", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.logger.Warn("unexpected WebSocket close", "error", err)
	default:
		c.logger.Warn("WebSocket read error", "error", err)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.session.Disconnect()
		c.hub.unregister(c)
		c.close()
		c.closeConn()
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one inbound frame and applies it to the session.
// Malformed frames are logged and dropped.
func (c *Client) dispatch(raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.logger.Warn("invalid frame", "error", err)
		return
	}

	switch frame.Event {
	case eventJoin:
		var payload JoinPayload
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				c.logger.Warn("invalid join payload", "error", err)
				return
			}
		}
		c.session.Join(payload.Name, payload.Room, payload.avatar())

	case eventMessage:
		if !c.checkRateLimit() {
			return
		}
		var text string
		if c.decode(frame, "text", &text) {
			c.session.SendMessage(text)
		}

	case eventTyping:
		var isTyping bool
		if c.decode(frame, "isTyping", &isTyping) {
			c.session.SetTyping(isTyping)
		}

	case eventSwitchRoom:
		var room string
		if c.decode(frame, "room", &room) {
			c.session.SwitchRoom(room)
		}

	case eventSetProfilePic:
		var avatar string
		if c.decode(frame, "avatar", &avatar) {
			c.session.SetProfile(avatar)
		}

	default:
		c.logger.Warn("unsupported event", "event", frame.Event)
	}
}

func (c *Client) decode(frame Frame, field string, target any) bool {
	if err := decodeValue(frame.Data, field, target); err != nil {
		c.logger.Warn("invalid payload", "event", frame.Event, "error", err)
		return false
	}
	return true
}

// checkRateLimit verifies if the client has exceeded rate limits
// and returns true if the message should be processed
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.logger.Warn("rate limit exceeded; discarding message",
			"burst", c.rateLimit.Burst, "interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		c.closeConn()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case ev := <-c.send:
		return c.writeEvent(ev)
	case <-ticker.C:
		return c.handlePing()
	case <-c.done:
		c.writeCloseMessage()
		return false
	}
}

// writeEvent encodes one event as its own text frame.
func (c *Client) writeEvent(ev chat.Event) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("error setting write deadline", "error", err)
		return false
	}
	if err := c.conn.WriteJSON(ev); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("error writing event", "event", ev.Name, "error", err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil && !isExpectedCloseError(err) {
		c.logger.Debug("error writing close message", "error", err)
	}
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn("error writing ping message", "error", err)
		return false
	}
	return true
}
