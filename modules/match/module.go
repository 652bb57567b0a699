package match

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module exposes the matcher as a mono module.
type Module struct {
	matcher *Matcher
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new match module. The wait queue is wired after the
// queue module has started.
func NewModule() *Module {
	return &Module{matcher: NewMatcher(nil)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "match"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[match] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[match] Module stopped")
	return nil
}

// Health reports matchmaking occupancy.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"waiting": m.matcher.WaitingCount(),
			"paired":  m.matcher.PairedCount(),
		},
	}
}

// SetQueue wires the distributed wait queue.
func (m *Module) SetQueue(queue WaitQueue) {
	m.matcher.SetQueue(queue)
}

// Matcher returns the pairing state machine.
func (m *Module) Matcher() *Matcher {
	return m.matcher
}

// Join enters a connection into matchmaking.
func (m *Module) Join(ctx context.Context, conn Conn, userID, username string) {
	m.matcher.Join(ctx, conn, userID, username)
}

// Message relays a message to the connection's partner.
func (m *Module) Message(conn Conn, content string) {
	m.matcher.Message(conn, content)
}

// Typing relays a typing notification to the partner.
func (m *Module) Typing(conn Conn) {
	m.matcher.Typing(conn)
}

// StopTyping relays a stop-typing notification to the partner.
func (m *Module) StopTyping(conn Conn) {
	m.matcher.StopTyping(conn)
}

// Leave tears down the connection's random-chat state. Idempotent.
func (m *Module) Leave(ctx context.Context, conn Conn) {
	m.matcher.Leave(ctx, conn)
}
