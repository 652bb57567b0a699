package wsserver

import "sync"

// Connection modes. A connection is only ever in one mode in practice, but
// cleanup paths must not assume that.
const (
	ModeNone   = ""
	ModeGroup  = "group"
	ModeRandom = "random"
)

// Binding is the identity a connection supplied with its first intent frame.
type Binding struct {
	UserID   string
	Username string
	Mode     string
}

// Registry tracks live socket-to-identity bindings by ephemeral connection
// ID. Identities are client-supplied and re-bound per session; nothing here
// is persisted.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]Binding)}
}

// Register records a new connection with no identity yet.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[connID] = Binding{Mode: ModeNone}
}

// Bind attaches an identity and mode to a connection. A later join frame
// overwrites the previous binding.
func (r *Registry) Bind(connID, mode, userID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[connID]; !ok {
		return
	}
	r.bindings[connID] = Binding{UserID: userID, Username: username, Mode: mode}
}

// Lookup returns the binding for a connection.
func (r *Registry) Lookup(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[connID]
	return b, ok
}

// Unregister forgets a connection. Idempotent.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, connID)
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}
