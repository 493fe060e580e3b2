package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationIDIsSymmetric(t *testing.T) {
	assert.Equal(t, ConversationID("alice", "bob"), ConversationID("bob", "alice"))
	assert.Equal(t, "alice:bob", ConversationID("bob", "alice"))
}

func TestConversationIDDistinctPairs(t *testing.T) {
	assert.NotEqual(t, ConversationID("alice", "bob"), ConversationID("alice", "carol"))
}

func TestParticipants(t *testing.T) {
	a, b, ok := Participants("alice:bob")
	require.True(t, ok)
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)
}

func TestParticipantsRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"alice",
		"alice:bob:carol",
		":bob",
		"alice:",
		"bob:alice", // out of canonical order
		"alice:alice",
	}
	for _, id := range cases {
		_, _, ok := Participants(id)
		assert.False(t, ok, "expected %q to be rejected", id)
	}
}

func TestIsParticipant(t *testing.T) {
	id := ConversationID("alice", "bob")

	assert.True(t, IsParticipant(id, "alice"))
	assert.True(t, IsParticipant(id, "bob"))
	assert.False(t, IsParticipant(id, "carol"))
	assert.False(t, IsParticipant("garbage", "alice"))
}

func TestCounterpart(t *testing.T) {
	id := ConversationID("alice", "bob")

	other, ok := Counterpart(id, "alice")
	require.True(t, ok)
	assert.Equal(t, "bob", other)

	other, ok = Counterpart(id, "bob")
	require.True(t, ok)
	assert.Equal(t, "alice", other)

	_, ok = Counterpart(id, "carol")
	assert.False(t, ok)
}
