package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomsJoinAndMembers(t *testing.T) {
	r := NewRooms()
	conv := ConversationID("alice", "bob")

	c1 := newFakeConn("c1", "alice")
	c2 := newFakeConn("c2", "bob")
	r.Join(conv, c1)
	r.Join(conv, c2)
	r.Join(conv, c1) // idempotent

	assert.Len(t, r.MembersOf(conv), 2)
	assert.True(t, r.Contains(conv, "c1"))
	assert.True(t, r.Contains(conv, "c2"))
	assert.False(t, r.Contains(conv, "c3"))
}

func TestRoomsLeave(t *testing.T) {
	r := NewRooms()
	conv := ConversationID("alice", "bob")

	c1 := newFakeConn("c1", "alice")
	r.Join(conv, c1)
	r.Leave(conv, c1)

	assert.Empty(t, r.MembersOf(conv))

	// Leaving a room never joined is a no-op.
	r.Leave("alice:carol", c1)
}

func TestRoomsPurgeConnection(t *testing.T) {
	r := NewRooms()

	c1 := newFakeConn("c1", "alice")
	convBob := ConversationID("alice", "bob")
	convCarol := ConversationID("alice", "carol")
	r.Join(convBob, c1)
	r.Join(convCarol, c1)
	r.Join(convBob, newFakeConn("c2", "bob"))

	r.PurgeConnection(c1)

	assert.False(t, r.Contains(convBob, "c1"))
	assert.False(t, r.Contains(convCarol, "c1"))
	assert.True(t, r.Contains(convBob, "c2"))
}
