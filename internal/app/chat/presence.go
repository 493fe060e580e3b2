/*
Package chat contains the real-time messaging core.

This file defines the Presence registry: which user identities currently hold
live connections, and on which connection handles. A user may have several
concurrent connections (tabs, devices); the user counts as online while at
least one remains.
*/
package chat

import (
	"sort"
	"sync"
)

// Presence tracks live connections per user identity. All methods are safe
// for concurrent use; reads hand out snapshot copies so a concurrent
// unregister never tears an iteration mid-fan-out.
type Presence struct {
	mu    sync.RWMutex
	users map[string]map[string]Conn
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{users: make(map[string]map[string]Conn)}
}

// Register adds the connection under its bound user. Idempotent per
// connection. It reports whether the user transitioned to online.
func (p *Presence) Register(conn Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[conn.UserID()]
	if !ok {
		conns = make(map[string]Conn)
		p.users[conn.UserID()] = conns
	}
	conns[conn.ID()] = conn

	return !ok
}

// Unregister removes the connection. If it was the user's last connection the
// user entry is removed entirely; the return value reports that transition.
func (p *Presence) Unregister(conn Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[conn.UserID()]
	if !ok {
		return false
	}

	delete(conns, conn.ID())
	if len(conns) == 0 {
		delete(p.users, conn.UserID())
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (p *Presence) IsOnline(user string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.users[user]) > 0
}

// ConnectionsFor returns a snapshot of the user's live connections, possibly empty.
func (p *Presence) ConnectionsFor(user string) []Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := make([]Conn, 0, len(p.users[user]))
	for _, c := range p.users[user] {
		conns = append(conns, c)
	}
	return conns
}

// OnlineUserIDs returns a sorted snapshot of every online user identity.
func (p *Presence) OnlineUserIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.users))
	for id := range p.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllConnections returns a snapshot of every live connection, for
// presence-changed fan-out to the whole population.
func (p *Presence) AllConnections() []Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var conns []Conn
	for _, set := range p.users {
		for _, c := range set {
			conns = append(conns, c)
		}
	}
	return conns
}
