package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userDoffy/Kura/internal/app/message"
)

// Exercised with -race. Every registry mutation and snapshot read runs from
// many live sessions at once, the way real connections drive the hub: each
// session connects, joins, asserts typing, sends, reads snapshots while the
// others are still mutating, and disconnects.
func TestCoreUnderConcurrentSessions(t *testing.T) {
	store := message.NewMemStore()
	hub, d, presence, rooms, typing := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	const sessions = 32

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			userID, receiverID := "alice", "bob"
			if i%2 == 1 {
				userID, receiverID = "bob", "alice"
			}
			conn := newFakeConn(fmt.Sprintf("c%d", i), userID)

			hub.Connect(conn)
			assert.Nil(t, hub.Join(conn, conv))
			assert.Nil(t, hub.SetTyping(conn, conv, true))

			_, customErr := d.Send(context.Background(), conn, SendPayload{
				ConversationID: conv,
				ReceiverID:     receiverID,
				Content:        "hello",
				Kind:           message.KindText,
			})
			assert.Nil(t, customErr)

			// Snapshot reads race the other sessions' mutations; fan-out
			// inside Send and Disconnect iterates them the same way.
			presence.OnlineUserIDs()
			rooms.MembersOf(conv)
			typing.IsTyping(conv, userID)

			hub.Disconnect(conn)
		}(i)
	}
	wg.Wait()

	// Every session cleaned up fully after itself.
	assert.Empty(t, presence.OnlineUserIDs())
	assert.Empty(t, rooms.MembersOf(conv))
	assert.False(t, typing.IsTyping(conv, "alice"))
	assert.False(t, typing.IsTyping(conv, "bob"))

	// Every send persisted exactly once.
	reader := newFakeConn("reader", "alice")
	msgs, customErr := d.LoadHistory(context.Background(), reader, conv, sessions)
	require.Nil(t, customErr)
	assert.Len(t, msgs, sessions)
}

// Concurrent registrations and unregistrations of many connections for the
// same user must agree on exactly one online transition each way.
func TestPresenceConcurrentRegisterUnregister(t *testing.T) {
	p := NewPresence()

	const conns = 64
	all := make([]*fakeConn, conns)
	for i := range all {
		all[i] = newFakeConn(fmt.Sprintf("c%d", i), "alice")
	}

	var wg sync.WaitGroup
	for _, c := range all {
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			p.Register(c)
			p.ConnectionsFor("alice")
		}(c)
	}
	wg.Wait()

	assert.True(t, p.IsOnline("alice"))
	assert.Len(t, p.ConnectionsFor("alice"), conns)

	var offline int64
	var mu sync.Mutex
	for _, c := range all {
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			if p.Unregister(c) {
				mu.Lock()
				offline++
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	assert.False(t, p.IsOnline("alice"))
	assert.Equal(t, int64(1), offline, "exactly one unregister is the offline transition")
}
