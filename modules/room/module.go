package room

import (
	"context"
	"log"
	"log/slog"
	"strings"

	"github.com/go-monolith/mono"

	"github.com/example/proximity-chat/domain/chat"
	"github.com/example/proximity-chat/protocol"
)

// MaxMessageLength caps group message content in bytes.
const MaxMessageLength = 5000

// MessageStore persists group messages and mints their IDs and timestamps.
type MessageStore interface {
	CreateMessage(ctx context.Context, groupID, userID, content string) (*chat.Message, error)
}

// Module is the group room manager. Authorization to join a group is trusted
// to have been checked by the HTTP layer before the client connects.
type Module struct {
	store  *Store
	gw     MessageStore
	logger *slog.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new room module.
func NewModule() *Module {
	return &Module{
		store:  NewStore(),
		logger: slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "room"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[room] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[room] Module stopped")
	return nil
}

// Health reports room occupancy.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"rooms": m.store.RoomCount()},
	}
}

// SetStore wires the message store gateway.
func (m *Module) SetStore(gw MessageStore) {
	m.gw = gw
}

// Store returns the membership store.
func (m *Module) Store() *Store {
	return m.store
}

// Join registers conn in the groupID room and acknowledges with a "joined"
// frame. A previous membership for this connection is replaced.
func (m *Module) Join(conn Conn, groupID, userID, username string) {
	m.store.Join(conn, groupID, userID, username)
	m.logger.Info("User joined group", "userID", userID, "groupID", groupID)

	if err := conn.WriteJSON(protocol.Joined(groupID)); err != nil {
		m.logger.Warn("Failed to ack join", "userID", userID, "error", err)
	}
}

// Send persists a message from conn and broadcasts it to every member of the
// sender's room, the sender included. Broadcast order follows persistence
// completion order; per-member write failures are swallowed.
func (m *Module) Send(ctx context.Context, conn Conn, content string) {
	member, ok := m.store.Membership(conn)
	if !ok {
		m.writeError(conn, "You must join a group first")
		return
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if len(content) > MaxMessageLength {
		m.writeError(conn, "Message exceeds maximum length")
		return
	}

	if m.gw == nil {
		m.logger.Error("Message store unavailable", "groupID", member.GroupID)
		m.writeError(conn, "Message could not be delivered")
		return
	}

	msg, err := m.gw.CreateMessage(ctx, member.GroupID, member.UserID, content)
	if err != nil {
		m.logger.Error("Failed to persist message", "groupID", member.GroupID, "error", err)
		m.writeError(conn, "Message could not be delivered")
		return
	}

	frame := protocol.NewMessage(protocol.MessagePayload{
		ID:        msg.ID,
		GroupID:   msg.GroupID,
		UserID:    msg.UserID,
		Username:  member.Username,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})

	for _, target := range m.store.Members(member.GroupID) {
		// Best-effort fan-out: a dead member must not affect the others.
		if err := target.WriteJSON(frame); err != nil {
			m.logger.Warn("Failed to deliver message", "groupID", member.GroupID, "error", err)
		}
	}
}

// Cleanup removes conn from its room, if any. Idempotent.
func (m *Module) Cleanup(conn Conn) {
	m.store.Remove(conn)
}

func (m *Module) writeError(conn Conn, message string) {
	if err := conn.WriteJSON(protocol.Error(message)); err != nil {
		m.logger.Warn("Failed to send error frame", "error", err)
	}
}
