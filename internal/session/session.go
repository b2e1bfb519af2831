// Package session tracks per-client state, most importantly the
// "current target" tab that single-target operations (screenshot, audit,
// navigation reuse) default to when no explicit tab ID is given.
package session

import (
	"fmt"
	"sync"
	"time"
)

// Context is the state for one connected MCP client.
type Context struct {
	ID           string
	ConnectedAt  time.Time
	LastActivity time.Time

	// CurrentTabID is the tab subsequent single-target operations act
	// on. Zero means no target has been established yet.
	CurrentTabID int

	// Activity tracking
	ToolCalls  int
	ErrorCount int
	LastError  error

	ClientInfo map[string]string

	mu sync.Mutex
}

// Manager owns all client sessions.
type Manager struct {
	sessions map[string]*Context
	mu       sync.RWMutex
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Context),
	}
}

// Create registers a new session.
func (m *Manager) Create(sessionID string, clientInfo map[string]string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := &Context{
		ID:           sessionID,
		ConnectedAt:  time.Now(),
		LastActivity: time.Now(),
		ClientInfo:   clientInfo,
	}
	m.sessions[sessionID] = sess
	return sess
}

// Get retrieves a session by ID.
func (m *Manager) Get(sessionID string) (*Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return sess, nil
}

// GetOrCreate returns the session, creating it on first use.
func (m *Manager) GetOrCreate(sessionID string) *Context {
	m.mu.RLock()
	sess, exists := m.sessions[sessionID]
	m.mu.RUnlock()
	if exists {
		return sess
	}
	return m.Create(sessionID, nil)
}

// Delete removes a session.
func (m *Manager) Delete(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CurrentTarget returns the session's current target tab, if set.
func (c *Context) CurrentTarget() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTabID, c.CurrentTabID != 0
}

// SetCurrentTarget updates the current target tab.
func (c *Context) SetCurrentTarget(tabID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTabID = tabID
	c.LastActivity = time.Now()
}

// ClearTargetIf drops the current target when it refers to tabID,
// used when a tab is closed.
func (c *Context) ClearTargetIf(tabID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CurrentTabID == tabID {
		c.CurrentTabID = 0
	}
}

// SetClientInfo records the client name and version from initialize.
func (c *Context) SetClientInfo(name, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ClientInfo == nil {
		c.ClientInfo = make(map[string]string)
	}
	c.ClientInfo["name"] = name
	c.ClientInfo["version"] = version
}

// RecordToolCall bumps the activity counters.
func (c *Context) RecordToolCall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ToolCalls++
	c.LastActivity = time.Now()
}

// RecordError records a failed tool call.
func (c *Context) RecordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastError = err
	c.ErrorCount++
	c.LastActivity = time.Now()
}

// CleanupInactive removes sessions idle longer than maxInactivity and
// returns how many were removed.
func (m *Manager) CleanupInactive(maxInactivity time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range m.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.LastActivity)
		sess.mu.Unlock()
		if idle > maxInactivity {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
