/*
Package chat contains the real-time messaging core: conversation addressing,
presence tracking, room membership, typing state, and message dispatch.

This file defines conversation addressing. A conversation between two users is
identified by a string derived deterministically from the pair of user identities,
so every code path that needs to address the same conversation recomputes the
identifier instead of storing a separately issued one.
*/
package chat

import "strings"

// ConversationSeparator joins the two participant identities.
// A colon is used because identities themselves may contain hyphens.
const ConversationSeparator = ":"

// ConversationID returns the canonical identifier for the conversation between
// a and b: the two identities sorted lexicographically and joined with the
// separator. ConversationID(a, b) == ConversationID(b, a) for all a != b.
// Rejecting a == b is the caller's job.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ConversationSeparator + b
}

// Participants splits a conversation identifier back into its two participant
// identities. It reports false for malformed identifiers (wrong part count,
// empty parts, or parts out of canonical order).
func Participants(conversationID string) (string, string, bool) {
	parts := strings.Split(conversationID, ConversationSeparator)
	if len(parts) != 2 {
		return "", "", false
	}

	a, b := parts[0], parts[1]
	if a == "" || b == "" || b <= a {
		return "", "", false
	}

	return a, b, true
}

// IsParticipant reports whether user is one of the two identities encoded in
// the conversation identifier.
func IsParticipant(conversationID, user string) bool {
	a, b, ok := Participants(conversationID)
	if !ok {
		return false
	}
	return user == a || user == b
}

// Counterpart returns the other participant of the conversation relative to
// user. It reports false if the identifier is malformed or user is not a
// participant.
func Counterpart(conversationID, user string) (string, bool) {
	a, b, ok := Participants(conversationID)
	if !ok {
		return "", false
	}

	switch user {
	case a:
		return b, true
	case b:
		return a, true
	default:
		return "", false
	}
}
