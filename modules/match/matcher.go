// Package match pairs random-chat users. Each connection moves through
// Idle -> Queued -> Paired -> Left; the distributed queue holds waiting
// users across processes while the in-process waiting map tracks which of
// them are reachable from this one.
package match

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/proximity-chat/domain/chat"
	"github.com/example/proximity-chat/protocol"
)

// staleRetryLimit bounds how many stale queue entries a single join will
// discard before giving up and waiting.
const staleRetryLimit = 2

// Conn is the minimal surface the matcher needs from a connection.
type Conn interface {
	WriteJSON(v any) error
}

// WaitQueue is the distributed FIFO of waiting users. Implementations are
// best-effort: errors degrade to "empty / not found".
type WaitQueue interface {
	Enqueue(ctx context.Context, entry chat.QueueEntry) error
	DequeueOldest(ctx context.Context) (chat.QueueEntry, bool)
	Remove(ctx context.Context, entry chat.QueueEntry) error
}

type session struct {
	userID   string
	username string
}

// Matcher owns all random-chat pairing state. The queue and the waiting map
// are only eventually consistent: the self-purge at the start of every Join
// is the compensating action for entries orphaned by partial failures.
type Matcher struct {
	mu       sync.Mutex
	queue    WaitQueue
	sessions map[Conn]session
	waiting  map[string]Conn
	pairs    map[Conn]Conn
	logger   *slog.Logger
}

// NewMatcher creates a matcher. The queue may be wired later via SetQueue;
// until then every queue operation behaves as if the queue were empty.
func NewMatcher(queue WaitQueue) *Matcher {
	return &Matcher{
		queue:    queue,
		sessions: make(map[Conn]session),
		waiting:  make(map[string]Conn),
		pairs:    make(map[Conn]Conn),
		logger:   slog.Default(),
	}
}

// SetQueue wires the distributed queue.
func (m *Matcher) SetQueue(queue WaitQueue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = queue
}

// Join enters conn into matchmaking: purge any stale state a previous
// connection for this user left behind, then try to pair with the oldest
// live waiter, falling back to the queue.
func (m *Matcher) Join(ctx context.Context, conn Conn, userID, username string) {
	self := chat.QueueEntry{UserID: userID, Username: username}

	m.mu.Lock()
	if _, paired := m.pairs[conn]; paired {
		m.mu.Unlock()
		m.write(conn, protocol.Error("Already in a chat"))
		return
	}
	// A reconnect may leave a waiting handle pointing at the dead
	// connection; drop it so this join owns the user's state.
	delete(m.waiting, userID)
	// A repeat join under a different userId abandons the old identity:
	// its handle and queue entry must go, or this connection could be
	// matched against itself.
	var abandoned *chat.QueueEntry
	if prev, ok := m.sessions[conn]; ok && prev.userID != userID {
		if waiting, ok := m.waiting[prev.userID]; ok && waiting == conn {
			delete(m.waiting, prev.userID)
		}
		abandoned = &chat.QueueEntry{UserID: prev.userID, Username: prev.username}
	}
	m.sessions[conn] = session{userID: userID, username: username}
	queue := m.queue
	m.mu.Unlock()

	if queue != nil {
		_ = queue.Remove(ctx, self)
		if abandoned != nil {
			_ = queue.Remove(ctx, *abandoned)
		}
	}

	for attempt := 0; attempt <= staleRetryLimit; attempt++ {
		if queue == nil {
			break
		}
		entry, ok := queue.DequeueOldest(ctx)
		if !ok {
			break
		}
		if entry.UserID == userID {
			// Own stale entry survived the purge (disconnect/rejoin
			// race); never self-match, wait instead.
			break
		}

		m.mu.Lock()
		partner, live := m.waiting[entry.UserID]
		if live && partner == conn {
			// The entry resolves to this same connection under an
			// abandoned identity; a connection never pairs with itself.
			delete(m.waiting, entry.UserID)
			live = false
		}
		if live {
			// Claiming the waiting handle under the lock is what keeps a
			// concurrent dequeuer from pairing with the same partner.
			delete(m.waiting, entry.UserID)
			m.pairs[conn] = partner
			m.pairs[partner] = conn
		}
		m.mu.Unlock()

		if !live {
			m.logger.Debug("Discarded stale queue entry", "userID", entry.UserID)
			continue
		}

		m.logger.Info("Matched", "userID", userID, "partnerID", entry.UserID)
		m.write(conn, protocol.Matched(entry.Username))
		m.write(partner, protocol.Matched(username))
		return
	}

	m.mu.Lock()
	m.waiting[userID] = conn
	m.mu.Unlock()

	if queue != nil {
		if err := queue.Enqueue(ctx, self); err != nil {
			m.logger.Error("Failed to enqueue waiting user", "userID", userID, "error", err)
		}
	}
	m.write(conn, protocol.Event(protocol.TypeWaiting))
}

// Message relays an ephemeral message to conn's partner. Nothing is
// persisted; the timestamp is assigned at relay time.
func (m *Matcher) Message(conn Conn, content string) {
	m.mu.Lock()
	partner, ok := m.pairs[conn]
	m.mu.Unlock()

	if !ok {
		m.write(conn, protocol.Error("No active partner"))
		return
	}
	m.write(partner, protocol.RandomMessage(content, time.Now().UTC()))
}

// Typing notifies conn's partner that conn started typing. Dropped when
// there is no partner.
func (m *Matcher) Typing(conn Conn) {
	m.notifyPartner(conn, protocol.TypePartnerTyping)
}

// StopTyping notifies conn's partner that conn stopped typing.
func (m *Matcher) StopTyping(conn Conn) {
	m.notifyPartner(conn, protocol.TypePartnerStopTyping)
}

func (m *Matcher) notifyPartner(conn Conn, frameType string) {
	m.mu.Lock()
	partner, ok := m.pairs[conn]
	m.mu.Unlock()

	if ok {
		m.write(partner, protocol.Event(frameType))
	}
}

// Leave tears down conn's random-chat state: its pairing (notifying the
// partner exactly once), its waiting handle and its queue entry. The partner
// is left in a terminal state and must issue a fresh join. Idempotent; also
// invoked on transport close.
func (m *Matcher) Leave(ctx context.Context, conn Conn) {
	m.mu.Lock()
	sess, known := m.sessions[conn]
	delete(m.sessions, conn)

	partner, paired := m.pairs[conn]
	if paired {
		delete(m.pairs, conn)
		delete(m.pairs, partner)
	}

	wasWaiting := false
	if known {
		if waiting, ok := m.waiting[sess.userID]; ok && waiting == conn {
			delete(m.waiting, sess.userID)
			wasWaiting = true
		}
	}
	queue := m.queue
	m.mu.Unlock()

	if paired {
		m.write(partner, protocol.Event(protocol.TypePartnerLeft))
	}
	if wasWaiting && queue != nil {
		_ = queue.Remove(ctx, chat.QueueEntry{UserID: sess.userID, Username: sess.username})
	}
	if known {
		m.logger.Info("Left random chat", "userID", sess.userID, "paired", paired)
	}
}

// WaitingCount returns the number of locally waiting users.
func (m *Matcher) WaitingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}

// PairedCount returns the number of active pairings.
func (m *Matcher) PairedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pairs) / 2
}

// write sends a frame, swallowing errors: the target may have closed its
// transport at any point and liveness is reconciled by Leave.
func (m *Matcher) write(conn Conn, frame any) {
	if err := conn.WriteJSON(frame); err != nil {
		m.logger.Warn("Failed to write frame", "error", err)
	}
}
