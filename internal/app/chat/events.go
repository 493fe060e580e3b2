/*
Package chat contains the real-time messaging core.

This file defines the wire protocol: the inbound operation frame sent by
clients and the outbound event envelope fanned out by the server. Message
kinds are a closed set; kind-specific fields are validated at construction
rather than discovered at call sites.
*/
package chat

import (
	"encoding/json"
	"time"

	"github.com/userDoffy/Kura/internal/app/message"
)

// OpType identifies a client-to-server operation.
type OpType string

const (
	OpJoin         OpType = "join"
	OpLeave        OpType = "leave"
	OpSend         OpType = "send"
	OpDelete       OpType = "delete"
	OpTyping       OpType = "typing"
	OpMarkRead     OpType = "mark_read"
	OpLoadHistory  OpType = "load_history"
	OpUnreadCounts OpType = "unread_counts"
)

// EventType identifies a server-to-client event.
type EventType string

const (
	EventPresenceChanged EventType = "presence_changed"
	EventNewMessage      EventType = "new_message"
	EventNotification    EventType = "notification"
	EventMessageDeleted  EventType = "message_deleted"
	EventTypingChanged   EventType = "typing_changed"
	EventReadReceipt     EventType = "read_receipt"
	EventAck             EventType = "ack"
	EventHistory         EventType = "history"
	EventUnreadCounts    EventType = "unread_counts"
	EventError           EventType = "error"
)

// Frame is the inbound message shape: an operation type, an opaque payload
// decoded per operation, and an optional client correlation id echoed back
// in the acknowledgement.
type Frame struct {
	Type    OpType          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TempID  string          `json:"tempId,omitempty"`
}

// Envelope is the outbound event shape.
type Envelope struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// EncodeEvent marshals an outbound envelope once, so fan-out shares a single
// encoded buffer across all target connections.
func EncodeEvent(t EventType, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: t, Payload: payload})
}

// Inbound operation payloads.

// RoomPayload addresses a single conversation (join, leave, mark_read).
type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}

// SendPayload carries a send operation. Content is opaque to the server
// (ciphertext from the caller's perspective). FileMeta is required for file
// kind and rejected for text kind.
type SendPayload struct {
	ConversationID string            `json:"conversationId"`
	SenderID       string            `json:"senderId,omitempty"`
	ReceiverID     string            `json:"receiverId"`
	Content        string            `json:"content"`
	Kind           message.Kind      `json:"kind"`
	FileMeta       *message.FileMeta `json:"fileMeta,omitempty"`
}

// DeletePayload carries a delete operation.
type DeletePayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

// TypingPayload carries a typing-state assertion.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// HistoryPayload carries a load_history request.
type HistoryPayload struct {
	ConversationID string `json:"conversationId"`
	Limit          int    `json:"limit"`
}

// Outbound event payloads.

// PresenceChangedEvent carries the full set of online user identities.
type PresenceChangedEvent struct {
	OnlineUserIDs []string `json:"onlineUserIds"`
}

// NewMessageEvent is the room-scoped broadcast for a persisted message.
type NewMessageEvent struct {
	Message        *message.Message `json:"message"`
	ConversationID string           `json:"conversationId"`
}

// NotificationEvent is the secondary delivery path: a lightweight signal for
// a receiver who is online but not subscribed to the room.
type NotificationEvent struct {
	SenderID       string    `json:"senderId"`
	ConversationID string    `json:"conversationId"`
	Preview        string    `json:"preview"`
	Timestamp      time.Time `json:"timestamp"`
}

// MessageDeletedEvent announces a soft delete to room members.
type MessageDeletedEvent struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	DeletedAt      time.Time `json:"deletedAt"`
}

// TypingChangedEvent announces a typing-state change to other room members.
type TypingChangedEvent struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// ReadReceiptEvent announces a bulk mark-read to other room members.
type ReadReceiptEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Count          int64  `json:"count"`
}

// AckEvent answers a client operation, echoing the client-supplied tempId so
// an optimistic local echo can be reconciled without ambiguity.
type AckEvent struct {
	TempID         string           `json:"tempId,omitempty"`
	Message        *message.Message `json:"message,omitempty"`
	MessageID      string           `json:"messageId,omitempty"`
	ConversationID string           `json:"conversationId,omitempty"`
	Count          *int64           `json:"count,omitempty"`
}

// HistoryEvent answers a load_history operation with messages in ascending
// timestamp order (oldest first).
type HistoryEvent struct {
	ConversationID string            `json:"conversationId"`
	Messages       []message.Message `json:"messages"`
}

// UnreadCountsEvent answers an unread_counts operation, keyed by the other
// participant's identity.
type UnreadCountsEvent struct {
	Counts map[string]int64 `json:"counts"`
}

// ErrorEvent answers a failed operation. TempID lets the client roll back the
// matching optimistic send.
type ErrorEvent struct {
	TempID  string `json:"tempId,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
