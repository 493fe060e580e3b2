package message

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used in tests and local development. It
// assigns UUID message ids and strictly non-decreasing timestamps.
type MemStore struct {
	mu       sync.RWMutex
	byID     map[string]*Message
	byConv   map[string][]string
	lastTime time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		byID:   make(map[string]*Message),
		byConv: make(map[string][]string),
	}
}

func (s *MemStore) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastTime) {
		now = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = now
	return now
}

// Append assigns an id and timestamp and stores a copy of the message.
func (s *MemStore) Append(ctx context.Context, m *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.New().String()
	m.Timestamp = s.nextTimestamp()

	stored := *m
	s.byID[stored.ID] = &stored
	s.byConv[stored.ConversationID] = append(s.byConv[stored.ConversationID], stored.ID)
	return nil
}

// Get returns a copy of the message with the given id.
func (s *MemStore) Get(ctx context.Context, id string) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *m
	return &out, nil
}

// RangeByConversation returns the newest limit messages, oldest first.
func (s *MemStore) RangeByConversation(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byConv[conversationID]
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}

	out := make([]Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.byID[id])
	}
	return out, nil
}

// BulkMarkRead flips unread received messages of the conversation to read.
func (s *MemStore) BulkMarkRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var count int64
	for _, id := range s.byConv[conversationID] {
		m := s.byID[id]
		if m.ReceiverID == receiverID && !m.Read && !m.Deleted {
			m.Read = true
			readAt := now
			m.ReadAt = &readAt
			count++
		}
	}
	return count, nil
}

// SoftDelete marks the message deleted, retaining the entry.
func (s *MemStore) SoftDelete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok || m.Deleted {
		return false, nil
	}
	m.Deleted = true
	deletedAt := time.Now().UTC()
	m.DeletedAt = &deletedAt
	return true, nil
}

// AggregateUnread groups unread received message counts by conversation.
func (s *MemStore) AggregateUnread(ctx context.Context, receiverID string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, m := range s.byID {
		if m.ReceiverID == receiverID && !m.Read && !m.Deleted {
			counts[m.ConversationID]++
		}
	}
	return counts, nil
}
