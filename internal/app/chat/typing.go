/*
Package chat contains the real-time messaging core.

This file defines the typing-state tracker. Expiry is driven by the client
contract: clients re-assert typing=true on an interval and send an explicit
typing=false on blur or send, so the server keeps no timer. The disconnect
handler clears any leftover entries for the departing user regardless.
*/
package chat

import (
	"hash/fnv"
	"sync"
)

const typingShardCount = 16

type typingShard struct {
	mu            sync.Mutex
	conversations map[string]map[string]struct{}
}

// Typing tracks, per conversation, which user identities are currently
// typing. Sharded by conversation id like room membership.
type Typing struct {
	shards [typingShardCount]*typingShard
}

// NewTyping returns an empty tracker.
func NewTyping() *Typing {
	t := &Typing{}
	for i := range t.shards {
		t.shards[i] = &typingShard{conversations: make(map[string]map[string]struct{})}
	}
	return t
}

func (t *Typing) shardFor(conversationID string) *typingShard {
	h := fnv.New32a()
	h.Write([]byte(conversationID))
	return t.shards[h.Sum32()%typingShardCount]
}

// Set adds or removes the user from the conversation's typing set and reports
// whether the stored state actually changed, so callers can skip redundant
// broadcasts when a client re-asserts typing=true on its interval.
func (t *Typing) Set(conversationID, user string, isTyping bool) bool {
	s := t.shardFor(conversationID)
	s.mu.Lock()
	defer s.mu.Unlock()

	typing, ok := s.conversations[conversationID]

	if isTyping {
		if !ok {
			typing = make(map[string]struct{})
			s.conversations[conversationID] = typing
		}
		if _, present := typing[user]; present {
			return false
		}
		typing[user] = struct{}{}
		return true
	}

	if !ok {
		return false
	}
	if _, present := typing[user]; !present {
		return false
	}
	delete(typing, user)
	if len(typing) == 0 {
		delete(s.conversations, conversationID)
	}
	return true
}

// IsTyping reports whether the user is currently marked typing in the conversation.
func (t *Typing) IsTyping(conversationID, user string) bool {
	s := t.shardFor(conversationID)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.conversations[conversationID][user]
	return ok
}

// ClearUser removes the user from every conversation's typing set and returns
// the conversations they were cleared from, so the caller can emit the
// mandatory typing=false broadcasts on disconnect.
func (t *Typing) ClearUser(user string) []string {
	var cleared []string
	for _, s := range t.shards {
		s.mu.Lock()
		for conversationID, typing := range s.conversations {
			if _, ok := typing[user]; ok {
				delete(typing, user)
				if len(typing) == 0 {
					delete(s.conversations, conversationID)
				}
				cleared = append(cleared, conversationID)
			}
		}
		s.mu.Unlock()
	}
	return cleared
}
