// Package room manages group chat rooms: membership bookkeeping and
// best-effort fan-out of persisted messages to every live member.
package room

import "sync"

// Conn is the minimal surface the room manager needs from a connection.
// *websocket.Conn satisfies it; tests use in-memory fakes.
type Conn interface {
	WriteJSON(v any) error
}

// Membership associates a connection with the identity it supplied at join
// time and the single room it currently belongs to.
type Membership struct {
	UserID   string
	Username string
	GroupID  string
}

// Store holds room membership state. A room exists implicitly from the first
// join and is garbage-collected when its last member leaves. A connection
// belongs to at most one room; joining again replaces the old membership.
type Store struct {
	mu      sync.RWMutex
	rooms   map[string]map[Conn]bool
	members map[Conn]Membership
}

// NewStore creates an empty membership store.
func NewStore() *Store {
	return &Store{
		rooms:   make(map[string]map[Conn]bool),
		members: make(map[Conn]Membership),
	}
}

// Join registers conn in the groupID room. Any previous membership for this
// connection is silently replaced (last join wins).
func (s *Store) Join(conn Conn, groupID, userID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(conn)

	if s.rooms[groupID] == nil {
		s.rooms[groupID] = make(map[Conn]bool)
	}
	s.rooms[groupID][conn] = true
	s.members[conn] = Membership{UserID: userID, Username: username, GroupID: groupID}
}

// Membership returns the membership tuple for conn, if any.
func (s *Store) Membership(conn Conn) (Membership, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[conn]
	return m, ok
}

// Members returns the connections currently in the groupID room.
func (s *Store) Members(groupID string) []Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]Conn, 0, len(s.rooms[groupID]))
	for conn := range s.rooms[groupID] {
		conns = append(conns, conn)
	}
	return conns
}

// Remove deletes conn's membership and garbage-collects its room if it is
// now empty. Safe to call for connections that never joined.
func (s *Store) Remove(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(conn)
}

func (s *Store) removeLocked(conn Conn) {
	m, ok := s.members[conn]
	if !ok {
		return
	}
	delete(s.members, conn)

	if members := s.rooms[m.GroupID]; members != nil {
		delete(members, conn)
		if len(members) == 0 {
			delete(s.rooms, m.GroupID)
		}
	}
}

// RoomCount returns the number of live rooms.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// MemberCount returns the number of connections in the groupID room.
func (s *Store) MemberCount(groupID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[groupID])
}
