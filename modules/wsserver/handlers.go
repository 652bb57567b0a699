package wsserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/example/proximity-chat/modules/match"
	"github.com/example/proximity-chat/modules/room"
	"github.com/example/proximity-chat/protocol"
)

// Rate limiting and transport constants. pongWait must exceed pingPeriod so
// a live peer always has a ping to answer before its deadline expires.
const (
	messagesPerSecond = 10
	burstSize         = 20
	maxFrameSize      = 16 * 1024
	pingPeriod        = 30 * time.Second
	pongWait          = 60 * time.Second
	writeWait         = 10 * time.Second
)

// socket is the slice of *websocket.Conn the handlers use, factored out so
// tests can substitute an in-memory transport.
type socket interface {
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

// client is one live connection. All writes go through its mutex: room
// broadcasts, matchmaker relays and the ping loop run on different
// goroutines, and the underlying transport allows a single writer.
type client struct {
	id      string
	sock    socket
	limiter *rateLimiter
	mu      sync.Mutex
}

func newClient(sock socket) *client {
	return &client{
		id:      uuid.New().String(),
		sock:    sock,
		limiter: newRateLimiter(burstSize, messagesPerSecond),
	}
}

// WriteJSON serializes concurrent writers onto the transport.
func (c *client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.sock.WriteMessage(websocket.PingMessage, nil)
}

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// Handlers dispatches inbound frames to the room and match modules and owns
// the per-connection lifecycle.
type Handlers struct {
	rooms    *room.Module
	match    *match.Module
	registry *Registry
	logger   *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(rooms *room.Module, matcher *match.Module, registry *Registry) *Handlers {
	return &Handlers{
		rooms:    rooms,
		match:    matcher,
		registry: registry,
		logger:   slog.Default(),
	}
}

// HandleWebSocket runs the read loop for one connection. On transport close
// both the room and the matchmaking cleanup run unconditionally; each is an
// idempotent no-op if the connection was never in that mode.
func (h *Handlers) HandleWebSocket(ws *websocket.Conn) {
	cl := newClient(ws)
	h.registry.Register(cl.id)

	done := make(chan struct{})
	defer func() {
		close(done)
		h.rooms.Cleanup(cl)
		h.match.Leave(context.Background(), cl)
		h.registry.Unregister(cl.id)
		ws.Close()
		h.logger.Info("WebSocket disconnected", "connID", cl.id)
	}()

	h.logger.Info("WebSocket connected", "connID", cl.id)

	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.pingLoop(cl, done)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error", "connID", cl.id, "error", err)
			}
			break
		}
		h.dispatch(context.Background(), cl, raw)
	}
}

// pingLoop keeps the transport alive until the read loop exits.
func (h *Handlers) pingLoop(cl *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := cl.ping(); err != nil {
				return
			}
		}
	}
}

// dispatch decodes one frame and routes it to exactly one handler. Decode
// failures answer with an error frame and nothing else; unknown types are
// ignored for forward compatibility.
func (h *Handlers) dispatch(ctx context.Context, cl *client, raw []byte) {
	var frame protocol.Inbound
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.writeError(cl, "Invalid message format")
		return
	}

	switch frame.Type {
	case protocol.TypeJoin:
		if frame.GroupID == "" || frame.UserID == "" || frame.Username == "" {
			h.writeError(cl, "Missing join fields")
			return
		}
		h.rooms.Join(cl, frame.GroupID, frame.UserID, frame.Username)
		h.registry.Bind(cl.id, ModeGroup, frame.UserID, frame.Username)

	case protocol.TypeMessage:
		if !cl.limiter.allow() {
			h.writeError(cl, "Rate limit exceeded, please slow down")
			return
		}
		h.rooms.Send(ctx, cl, frame.Content)

	case protocol.TypeRandomJoin:
		if frame.UserID == "" || frame.Username == "" {
			h.writeError(cl, "Missing join fields")
			return
		}
		h.match.Join(ctx, cl, frame.UserID, frame.Username)
		h.registry.Bind(cl.id, ModeRandom, frame.UserID, frame.Username)

	case protocol.TypeRandomMessage:
		if !cl.limiter.allow() {
			h.writeError(cl, "Rate limit exceeded, please slow down")
			return
		}
		h.match.Message(cl, frame.Content)

	case protocol.TypeRandomTyping:
		h.match.Typing(cl)

	case protocol.TypeRandomStopTyping:
		h.match.StopTyping(cl)

	case protocol.TypeRandomLeave:
		h.match.Leave(ctx, cl)

	default:
		// Unknown types are silently ignored.
	}
}

func (h *Handlers) writeError(cl *client, message string) {
	if err := cl.WriteJSON(protocol.Error(message)); err != nil {
		h.logger.Warn("Failed to send error frame", "connID", cl.id, "error", err)
	}
}
