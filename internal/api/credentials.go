package api

import "sync"

// User 是后端返回的用户身份。
type User struct {
	ID          int64  `json:"id"`
	PID         string `json:"pid"`
	Nickname    string `json:"nickname"`
	SelectedBot string `json:"selected_bot,omitempty"`
}

// Credentials holds the bearer token and identity for the single active
// session. It is written by the login flow only and read by the gateway when
// attaching auth headers, so a plain RWMutex is enough.
type Credentials struct {
	mu    sync.RWMutex
	token string
	user  User
}

// Set installs a fresh token and identity, replacing any previous session.
func (c *Credentials) Set(token string, user User) {
	c.mu.Lock()
	c.token = token
	c.user = user
	c.mu.Unlock()
}

// Token returns the current bearer token, empty when logged out.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns the identity of the active session.
func (c *Credentials) User() User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Clear drops the session, e.g. after the backend reports an expired token.
func (c *Credentials) Clear() {
	c.mu.Lock()
	c.token = ""
	c.user = User{}
	c.mu.Unlock()
}
