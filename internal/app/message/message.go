/*
Package message defines the durable message model and the store gateway the
dispatch engine persists through.

A message is immutable once persisted; only its read flag and soft-delete flag
ever transition, and content is never re-surfaced after a delete.
*/
package message

import (
	"errors"
	"time"
)

// Kind discriminates the closed set of message shapes.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	return k == KindText || k == KindFile
}

// FileMeta carries the kind-specific fields of a file message. Key references
// the uploaded object in blob storage; Name and Size describe the original file.
type FileMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Key  string `json:"key,omitempty"`
}

// SenderInfo is the denormalized minimal display info attached to messages on
// read and fan-out paths. It is never persisted with the message.
type SenderInfo struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Message is one persisted chat message. Content is opaque bytes from the
// server's perspective (the application-level confidentiality scheme lives in
// the clients).
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	ReceiverID     string     `json:"receiverId"`
	Content        string     `json:"content"`
	Kind           Kind       `json:"kind"`
	FileName       string     `json:"fileName,omitempty"`
	FileSize       int64      `json:"fileSize,omitempty"`
	FileKey        string     `json:"fileKey,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	Deleted        bool       `json:"deleted"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`

	// FileURL is a short-lived presigned download URL resolved on read
	// paths for file messages. Never persisted.
	FileURL string `json:"fileUrl,omitempty"`

	// SenderInfo is resolved from the user directory on fan-out. Never persisted.
	SenderInfo *SenderInfo `json:"senderInfo,omitempty"`
}

var (
	errMissingFileMeta = errors.New("file message requires file metadata")
	errBadFileMeta     = errors.New("file metadata missing name, size, or key")
	errUnexpectedMeta  = errors.New("text message must not carry file metadata")
	errUnknownKind     = errors.New("unknown message kind")
)

// New constructs an unpersisted message, validating kind-specific required
// fields up front. ID and Timestamp are assigned by the store on append.
func New(conversationID, senderID, receiverID, content string, kind Kind, meta *FileMeta) (*Message, error) {
	if !kind.Valid() {
		return nil, errUnknownKind
	}

	m := &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		Kind:           kind,
	}

	switch kind {
	case KindText:
		if meta != nil {
			return nil, errUnexpectedMeta
		}
	case KindFile:
		if meta == nil {
			return nil, errMissingFileMeta
		}
		if meta.Name == "" || meta.Size <= 0 || meta.Key == "" {
			return nil, errBadFileMeta
		}
		m.FileName = meta.Name
		m.FileSize = meta.Size
		m.FileKey = meta.Key
	}

	return m, nil
}

// Tombstone blanks everything a client must never see again after a soft
// delete, leaving the flags and timestamps for placeholder rendering.
func (m *Message) Tombstone() {
	m.Content = ""
	m.FileName = ""
	m.FileSize = 0
	m.FileKey = ""
	m.FileURL = ""
}

// Preview returns the lightweight notification text for the message: the
// opaque content for text kind, a filename placeholder for file kind.
func (m *Message) Preview() string {
	if m.Kind == KindFile {
		return "[File: " + m.FileName + "]"
	}
	return m.Content
}
