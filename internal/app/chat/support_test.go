package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/userDoffy/Kura/internal/app/message"
	"github.com/userDoffy/Kura/internal/app/user"
)

// fakeConn records every enqueued event in order. Setting full simulates a
// saturated outbound queue. Enqueue is safe for concurrent use, like the
// real connection's buffered channel.
type fakeConn struct {
	id     string
	userID string
	full   bool

	mu     sync.Mutex
	events [][]byte
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) UserID() string { return c.userID }

func (c *fakeConn) Enqueue(event []byte) bool {
	if c.full {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return true
}

// eventsOfType decodes the recorded envelopes and returns the payloads of the
// given type.
func (c *fakeConn) eventsOfType(t *testing.T, want EventType) []json.RawMessage {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []json.RawMessage
	for _, raw := range c.events {
		var env struct {
			Type    EventType       `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		if env.Type == want {
			out = append(out, env.Payload)
		}
	}
	return out
}

// fakeDirectory resolves a fixed set of users.
type fakeDirectory struct {
	users map[string]user.Info
	err   error
}

func newFakeDirectory(ids ...string) *fakeDirectory {
	users := make(map[string]user.Info, len(ids))
	for _, id := range ids {
		users[id] = user.Info{Name: "Name of " + id}
	}
	return &fakeDirectory{users: users}
}

func (d *fakeDirectory) Exists(ctx context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.users[id]
	return ok, nil
}

func (d *fakeDirectory) DisplayInfo(ctx context.Context, id string) (user.Info, error) {
	if d.err != nil {
		return user.Info{}, d.err
	}
	info, ok := d.users[id]
	if !ok {
		return user.Info{}, errors.New("no such user")
	}
	return info, nil
}

// failingStore wraps a Store and fails Append.
type failingStore struct {
	message.Store
}

func (s *failingStore) Append(ctx context.Context, m *message.Message) error {
	return errors.New("append failed")
}

// newTestCore wires a dispatcher and hub over a fresh in-memory store.
func newTestCore(store message.Store, dir user.Directory) (*Hub, *Dispatcher, *Presence, *Rooms, *Typing) {
	presence := NewPresence()
	rooms := NewRooms()
	typing := NewTyping()
	dispatcher := NewDispatcher(store, dir, nil, presence, rooms, DispatcherConfig{})
	hub := NewHub(dispatcher, presence, rooms, typing)
	return hub, dispatcher, presence, rooms, typing
}
