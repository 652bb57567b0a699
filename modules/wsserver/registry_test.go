package wsserver

import "testing"

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	r.Register("c1")

	b, ok := r.Lookup("c1")
	if !ok {
		t.Fatal("expected binding after Register")
	}
	if b.Mode != ModeNone || b.UserID != "" {
		t.Errorf("fresh binding should carry no identity, got %+v", b)
	}
	if got := r.Count(); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
}

func TestRegistry_BindAttachesIdentity(t *testing.T) {
	r := NewRegistry()
	r.Register("c1")

	r.Bind("c1", ModeGroup, "u1", "alice")

	b, ok := r.Lookup("c1")
	if !ok {
		t.Fatal("expected binding")
	}
	if b.Mode != ModeGroup || b.UserID != "u1" || b.Username != "alice" {
		t.Errorf("unexpected binding: %+v", b)
	}
}

func TestRegistry_RebindOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("c1")

	r.Bind("c1", ModeGroup, "u1", "alice")
	r.Bind("c1", ModeRandom, "u1", "alice")

	b, _ := r.Lookup("c1")
	if b.Mode != ModeRandom {
		t.Errorf("Mode = %q, want %q", b.Mode, ModeRandom)
	}
}

func TestRegistry_BindUnknownConnIsNoop(t *testing.T) {
	r := NewRegistry()

	r.Bind("ghost", ModeGroup, "u1", "alice")

	if _, ok := r.Lookup("ghost"); ok {
		t.Error("Bind must not create bindings for unknown connections")
	}
	if got := r.Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register("c1")
	r.Register("c2")

	r.Unregister("c1")
	r.Unregister("c1") // idempotent

	if _, ok := r.Lookup("c1"); ok {
		t.Error("binding should be gone after Unregister")
	}
	if got := r.Count(); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
}
