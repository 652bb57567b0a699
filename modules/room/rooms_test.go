package room

import (
	"sync"
	"testing"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []any
	fail   bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errWriteFailed
	}
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) sent() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.frames))
	copy(out, c.frames)
	return out
}

func TestStore_JoinAndMembership(t *testing.T) {
	store := NewStore()
	conn := &fakeConn{}

	store.Join(conn, "g1", "u1", "alice")

	member, ok := store.Membership(conn)
	if !ok {
		t.Fatal("expected membership after join")
	}
	if member.GroupID != "g1" || member.UserID != "u1" || member.Username != "alice" {
		t.Errorf("unexpected membership: %+v", member)
	}
	if got := store.MemberCount("g1"); got != 1 {
		t.Errorf("MemberCount = %d, want 1", got)
	}
}

func TestStore_LastJoinWins(t *testing.T) {
	store := NewStore()
	conn := &fakeConn{}

	store.Join(conn, "g1", "u1", "alice")
	store.Join(conn, "g2", "u1", "alice")

	member, ok := store.Membership(conn)
	if !ok {
		t.Fatal("expected membership after rejoin")
	}
	if member.GroupID != "g2" {
		t.Errorf("GroupID = %q, want %q", member.GroupID, "g2")
	}
	if got := store.MemberCount("g1"); got != 0 {
		t.Errorf("old room member count = %d, want 0", got)
	}
	if got := store.RoomCount(); got != 1 {
		t.Errorf("RoomCount = %d, want 1 (empty room collected)", got)
	}
}

func TestStore_RemoveCollectsEmptyRooms(t *testing.T) {
	store := NewStore()
	a, b := &fakeConn{}, &fakeConn{}

	store.Join(a, "g1", "u1", "alice")
	store.Join(b, "g1", "u2", "bob")

	store.Remove(a)
	if got := store.MemberCount("g1"); got != 1 {
		t.Errorf("MemberCount = %d, want 1", got)
	}
	if got := store.RoomCount(); got != 1 {
		t.Errorf("RoomCount = %d, want 1", got)
	}

	store.Remove(b)
	if got := store.RoomCount(); got != 0 {
		t.Errorf("RoomCount = %d, want 0 after last member left", got)
	}
	if _, ok := store.Membership(b); ok {
		t.Error("membership should be gone after Remove")
	}
}

func TestStore_RemoveIdempotent(t *testing.T) {
	store := NewStore()
	conn := &fakeConn{}

	// Never joined
	store.Remove(conn)

	store.Join(conn, "g1", "u1", "alice")
	store.Remove(conn)
	store.Remove(conn)

	if got := store.RoomCount(); got != 0 {
		t.Errorf("RoomCount = %d, want 0", got)
	}
}

func TestStore_RepeatedJoinLeaveDoesNotGrow(t *testing.T) {
	store := NewStore()

	for i := 0; i < 100; i++ {
		conn := &fakeConn{}
		store.Join(conn, "g1", "u1", "alice")
		store.Remove(conn)
	}

	if got := store.RoomCount(); got != 0 {
		t.Errorf("RoomCount = %d, want 0 after join/leave cycles", got)
	}
}
