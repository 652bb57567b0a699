// Package wsserver hosts the WebSocket endpoint and dispatches the wire
// protocol to the room and match modules.
package wsserver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/proximity-chat/modules/match"
	"github.com/example/proximity-chat/modules/room"
)

// Module implements the WebSocket server module using the Fiber framework.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	registry *Registry
	addr     string
	rooms    *room.Module
	match    *match.Module
	history  MessageHistory
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new WebSocket server module.
func NewModule(addr string, rooms *room.Module, matcher *match.Module) *Module {
	return &Module{
		addr:     addr,
		rooms:    rooms,
		match:    matcher,
		registry: NewRegistry(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ws-server"
}

// SetHistory wires the message history source for the REST surface.
func (m *Module) SetHistory(history MessageHistory) {
	m.history = history
}

// Registry returns the connection registry.
func (m *Module) Registry() *Registry {
	return m.registry
}

// Start initializes and starts the WebSocket server.
func (m *Module) Start(ctx context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "Proximity Chat",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.handlers = NewHandlers(m.rooms, m.match, m.registry)
	m.registerRoutes()

	// Start server in goroutine with startup error detection.
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("WebSocket server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	return nil
}

// Stop gracefully shuts down the WebSocket server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}

// Health reports connection counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"connected_clients": m.registry.Count()},
	}
}

// registerRoutes sets up the WebSocket endpoint and the REST surface.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handlers.HealthCheck)

	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handlers.HandleWebSocket))

	api := m.app.Group("/api/v1")
	api.Get("/groups/:id/messages", func(c *fiber.Ctx) error {
		return m.handlers.GetGroupHistory(c, m.history)
	})
}

// errorHandler handles HTTP errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
