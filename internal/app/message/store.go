package message

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store lookups for an absent message.
var ErrNotFound = errors.New("message not found")

// Store is the durability contract the dispatch engine requires. The core
// does not implement retry policy; callers surface a failed or timed-out
// call as a storage failure and stop.
type Store interface {
	// Append persists a new message and fills in its store-assigned ID and
	// timestamp. Timestamps are monotonically non-decreasing per store.
	Append(ctx context.Context, m *Message) error

	// Get returns the message with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Message, error)

	// RangeByConversation returns the most recent limit messages of the
	// conversation in ascending timestamp order (oldest first). Soft-deleted
	// messages are included; callers substitute tombstones before exposure.
	RangeByConversation(ctx context.Context, conversationID string, limit int) ([]Message, error)

	// BulkMarkRead flips the read flag on every non-deleted unread message of
	// the conversation addressed to receiverID, returning the number mutated.
	// Idempotent: a repeat call with no new messages returns 0.
	BulkMarkRead(ctx context.Context, conversationID, receiverID string) (int64, error)

	// SoftDelete flips the delete flag on the message, retaining content in
	// the store. It reports false for an absent or already-deleted message.
	SoftDelete(ctx context.Context, id string) (bool, error)

	// AggregateUnread counts non-deleted unread messages addressed to
	// receiverID, grouped by conversation.
	AggregateUnread(ctx context.Context, receiverID string) (map[string]int64, error)
}
