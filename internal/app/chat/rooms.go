/*
Package chat contains the real-time messaging core.

This file defines the room membership manager: which connections are
subscribed to which conversations for fan-out. State is sharded by
conversation id so concurrent fan-out on unrelated conversations never
contends on one lock.
*/
package chat

import (
	"hash/fnv"
	"sync"
)

const roomShardCount = 16

type roomShard struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn
}

// Rooms tracks conversation subscriptions. Join authorization against the
// conversation's participant pair is the caller's responsibility; the
// dispatch engine re-validates membership before any fan-out regardless.
type Rooms struct {
	shards [roomShardCount]*roomShard
}

// NewRooms returns an empty membership manager.
func NewRooms() *Rooms {
	r := &Rooms{}
	for i := range r.shards {
		r.shards[i] = &roomShard{rooms: make(map[string]map[string]Conn)}
	}
	return r
}

func (r *Rooms) shardFor(conversationID string) *roomShard {
	h := fnv.New32a()
	h.Write([]byte(conversationID))
	return r.shards[h.Sum32()%roomShardCount]
}

// Join subscribes the connection to the conversation. Idempotent.
func (r *Rooms) Join(conversationID string, conn Conn) {
	s := r.shardFor(conversationID)
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.rooms[conversationID]
	if !ok {
		members = make(map[string]Conn)
		s.rooms[conversationID] = members
	}
	members[conn.ID()] = conn
}

// Leave removes the connection from the conversation. Never errors if absent.
func (r *Rooms) Leave(conversationID string, conn Conn) {
	s := r.shardFor(conversationID)
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.rooms[conversationID]
	if !ok {
		return
	}
	delete(members, conn.ID())
	if len(members) == 0 {
		delete(s.rooms, conversationID)
	}
}

// PurgeConnection removes the connection from every room it was in.
// Called on disconnect.
func (r *Rooms) PurgeConnection(conn Conn) {
	for _, s := range r.shards {
		s.mu.Lock()
		for conversationID, members := range s.rooms {
			delete(members, conn.ID())
			if len(members) == 0 {
				delete(s.rooms, conversationID)
			}
		}
		s.mu.Unlock()
	}
}

// MembersOf returns a snapshot of the connections subscribed to the
// conversation, for fan-out.
func (r *Rooms) MembersOf(conversationID string) []Conn {
	s := r.shardFor(conversationID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.rooms[conversationID]
	out := make([]Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// Contains reports whether the connection is currently subscribed to the
// conversation.
func (r *Rooms) Contains(conversationID string, connID string) bool {
	s := r.shardFor(conversationID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[conversationID][connID]
	return ok
}
