package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypingSetReportsChange(t *testing.T) {
	tr := NewTyping()
	conv := ConversationID("alice", "bob")

	assert.True(t, tr.Set(conv, "alice", true), "first assertion is a change")
	assert.False(t, tr.Set(conv, "alice", true), "re-assertion is not a change")
	assert.True(t, tr.IsTyping(conv, "alice"))

	assert.True(t, tr.Set(conv, "alice", false))
	assert.False(t, tr.Set(conv, "alice", false), "clearing an absent entry is not a change")
	assert.False(t, tr.IsTyping(conv, "alice"))
}

func TestTypingIndependentPerUser(t *testing.T) {
	tr := NewTyping()
	conv := ConversationID("alice", "bob")

	tr.Set(conv, "alice", true)
	tr.Set(conv, "bob", true)
	tr.Set(conv, "alice", false)

	assert.False(t, tr.IsTyping(conv, "alice"))
	assert.True(t, tr.IsTyping(conv, "bob"))
}

func TestTypingClearUser(t *testing.T) {
	tr := NewTyping()
	convBob := ConversationID("alice", "bob")
	convCarol := ConversationID("alice", "carol")

	tr.Set(convBob, "alice", true)
	tr.Set(convCarol, "alice", true)
	tr.Set(convBob, "bob", true)

	cleared := tr.ClearUser("alice")
	assert.ElementsMatch(t, []string{convBob, convCarol}, cleared)
	assert.False(t, tr.IsTyping(convBob, "alice"))
	assert.True(t, tr.IsTyping(convBob, "bob"))

	assert.Empty(t, tr.ClearUser("alice"), "second clear finds nothing")
}
