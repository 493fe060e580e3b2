package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userDoffy/Kura/internal/app/message"
	"github.com/userDoffy/Kura/internal/pkg/errs"
)

func TestHubConnectBroadcastsPresence(t *testing.T) {
	hub, _, _, _, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob"))

	alice := newFakeConn("c1", "alice")
	hub.Connect(alice)

	bob := newFakeConn("c2", "bob")
	hub.Connect(bob)

	// Alice observed both presence broadcasts; the second carries both users.
	events := alice.eventsOfType(t, EventPresenceChanged)
	require.Len(t, events, 2)
	var last PresenceChangedEvent
	require.NoError(t, json.Unmarshal(events[1], &last))
	assert.Equal(t, []string{"alice", "bob"}, last.OnlineUserIDs)
}

func TestHubJoinRequiresParticipant(t *testing.T) {
	hub, _, _, rooms, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	carol := newFakeConn("c1", "carol")
	customErr := hub.Join(carol, conv)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUnauthorized, customErr.Code)
	assert.False(t, rooms.Contains(conv, "c1"))

	alice := newFakeConn("c2", "alice")
	require.Nil(t, hub.Join(alice, conv))
	assert.True(t, rooms.Contains(conv, "c2"))
}

func TestHubSetTypingBroadcastsChangesOnly(t *testing.T) {
	hub, _, _, rooms, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	alice := newFakeConn("c1", "alice")
	bob := newFakeConn("c2", "bob")
	rooms.Join(conv, alice)
	rooms.Join(conv, bob)

	require.Nil(t, hub.SetTyping(alice, conv, true))
	require.Nil(t, hub.SetTyping(alice, conv, true)) // re-assertion, no broadcast

	events := bob.eventsOfType(t, EventTypingChanged)
	require.Len(t, events, 1)
	var ev TypingChangedEvent
	require.NoError(t, json.Unmarshal(events[0], &ev))
	assert.Equal(t, "alice", ev.UserID)
	assert.True(t, ev.IsTyping)

	// The originator never receives its own echo.
	assert.Empty(t, alice.eventsOfType(t, EventTypingChanged))

	customErr := hub.SetTyping(newFakeConn("c3", "carol"), conv, true)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUnauthorized, customErr.Code)
}

func TestHubDisconnectCleansUpEverything(t *testing.T) {
	hub, _, presence, rooms, typing := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	alice := newFakeConn("c1", "alice")
	bob := newFakeConn("c2", "bob")
	hub.Connect(alice)
	hub.Connect(bob)
	require.Nil(t, hub.Join(alice, conv))
	require.Nil(t, hub.Join(bob, conv))
	require.Nil(t, hub.SetTyping(alice, conv, true))

	hub.Disconnect(alice)

	assert.False(t, presence.IsOnline("alice"))
	assert.False(t, rooms.Contains(conv, "c1"))
	assert.False(t, typing.IsTyping(conv, "alice"))

	// Bob saw typing=true, then the mandatory typing=false on disconnect.
	events := bob.eventsOfType(t, EventTypingChanged)
	require.Len(t, events, 2)
	var ev TypingChangedEvent
	require.NoError(t, json.Unmarshal(events[1], &ev))
	assert.Equal(t, "alice", ev.UserID)
	assert.False(t, ev.IsTyping)

	// And a presence update without alice.
	presenceEvents := bob.eventsOfType(t, EventPresenceChanged)
	require.NotEmpty(t, presenceEvents)
	var last PresenceChangedEvent
	require.NoError(t, json.Unmarshal(presenceEvents[len(presenceEvents)-1], &last))
	assert.Equal(t, []string{"bob"}, last.OnlineUserIDs)
}

func TestHubMultiConnectionPresence(t *testing.T) {
	hub, _, presence, _, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice"))

	c1 := newFakeConn("c1", "alice")
	c2 := newFakeConn("c2", "alice")
	hub.Connect(c1)
	hub.Connect(c2)

	hub.Disconnect(c1)
	assert.True(t, presence.IsOnline("alice"), "one connection remains")

	hub.Disconnect(c2)
	assert.False(t, presence.IsOnline("alice"))
}
