// Package users is the optional user-management subsystem: it tracks which
// authenticated identities are authorized under each configured context. The
// scanning pipeline treats its absence as normal, not as a failure.
package users

import (
	"sync"
)

// User is an authenticated identity authorized under a context.
type User struct {
	// ID is the stable identifier of the user.
	ID int `json:"id"`
	// ContextID is the identifier of the context the user belongs to.
	ContextID int `json:"context_id"`
	// Name is the display name of the user.
	Name string `json:"name"`
	// Enabled reports whether the user participates in authenticated scans.
	Enabled bool `json:"enabled"`
}

// Service is the narrow query interface the scanning pipeline consumes.
// Implementations return nil when no authentication manager is registered
// for a context.
type Service interface {
	AuthManagerForContext(contextID int) *AuthManager
}

// AuthManager holds the authorized users of a single context.
type AuthManager struct {
	contextID int
	// mu guards concurrent access to the user list
	mu    sync.RWMutex
	users []User
}

// NewAuthManager creates an empty manager for the given context.
func NewAuthManager(contextID int) *AuthManager {
	return &AuthManager{contextID: contextID}
}

// ContextID returns the identifier of the context this manager serves.
func (m *AuthManager) ContextID() int {
	return m.contextID
}

// Add appends a user to the manager.
func (m *AuthManager) Add(u User) {
	m.mu.Lock()
	m.users = append(m.users, u)
	m.mu.Unlock()
}

// Users returns a copy of the managed users in registration order.
func (m *AuthManager) Users() []User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, len(m.users))
	copy(out, m.users)
	return out
}

// Manager is the in-memory Service implementation. Authentication managers
// are created on first use per context.
type Manager struct {
	// mu guards concurrent access to the manager map
	mu       sync.RWMutex
	managers map[int]*AuthManager
}

// NewManager creates an empty user-management service.
func NewManager() *Manager {
	return &Manager{managers: make(map[int]*AuthManager)}
}

// AuthManagerForContext returns the authentication manager registered for
// the given context, or nil when none exists.
func (m *Manager) AuthManagerForContext(contextID int) *AuthManager {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.managers[contextID]
}

// EnsureAuthManager returns the authentication manager for the given
// context, creating it if necessary.
func (m *Manager) EnsureAuthManager(contextID int) *AuthManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mgr, ok := m.managers[contextID]; ok {
		return mgr
	}
	mgr := NewAuthManager(contextID)
	m.managers[contextID] = mgr
	return mgr
}
