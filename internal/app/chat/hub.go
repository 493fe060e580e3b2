/*
Package chat contains the real-time messaging core.

This file defines the Hub, which ties the registries and the dispatch engine
together for connection lifecycles: registration on authenticate, the three
mandatory cleanup actions on disconnect, room join/leave gating, typing
fan-out, and presence broadcasts.
*/
package chat

import (
	"github.com/rs/zerolog"

	"github.com/userDoffy/Kura/internal/pkg/errs"
	"github.com/userDoffy/Kura/internal/pkg/logx"
	"github.com/userDoffy/Kura/internal/pkg/metrics"
)

// Hub owns the presence registry, room membership manager, and typing-state
// tracker, and exposes the connection-facing operations around them.
type Hub struct {
	presence   *Presence
	rooms      *Rooms
	typing     *Typing
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewHub wires the registries and dispatcher into one Hub.
func NewHub(dispatcher *Dispatcher, presence *Presence, rooms *Rooms, typing *Typing) *Hub {
	return &Hub{
		presence:   presence,
		rooms:      rooms,
		typing:     typing,
		dispatcher: dispatcher,
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Dispatcher returns the message dispatch engine.
func (h *Hub) Dispatcher() *Dispatcher {
	return h.dispatcher
}

// Connect registers an authenticated connection with the presence registry
// and broadcasts the updated online set. This is the point at which "online"
// becomes true for the user.
func (h *Hub) Connect(conn Conn) {
	h.presence.Register(conn)
	metrics.OnlineConns.Inc()

	h.logger.Info().
		Str("conn_id", conn.ID()).
		Str("user_id", conn.UserID()).
		Msg("Connection registered")

	h.broadcastPresence()
}

// Disconnect runs the three mandatory cleanup actions for a closing
// connection: purge room memberships, clear typing state (with typing=false
// broadcasts to remaining members), and unregister presence. Cleanup is
// best-effort and never reports failure; there is no caller left to tell.
func (h *Hub) Disconnect(conn Conn) {
	h.rooms.PurgeConnection(conn)

	for _, conversationID := range h.typing.ClearUser(conn.UserID()) {
		h.broadcastTyping(conversationID, conn.UserID(), false, conn.ID())
	}

	h.presence.Unregister(conn)
	metrics.OnlineConns.Dec()

	h.logger.Info().
		Str("conn_id", conn.ID()).
		Str("user_id", conn.UserID()).
		Msg("Connection cleaned up")

	h.broadcastPresence()
}

// Join subscribes the connection to a conversation's room. The caller must be
// one of the two participants encoded in the conversation id.
func (h *Hub) Join(conn Conn, conversationID string) *errs.CustomError {
	if !IsParticipant(conversationID, conn.UserID()) {
		return errs.NewError(errs.ErrUnauthorized)
	}
	h.rooms.Join(conversationID, conn)
	return nil
}

// Leave unsubscribes the connection from a conversation's room.
func (h *Hub) Leave(conn Conn, conversationID string) {
	h.rooms.Leave(conversationID, conn)
}

// SetTyping updates the caller's typing state for the conversation and
// broadcasts the change to other room members. The originator never receives
// its own typing echo, and a re-asserted unchanged state is not re-broadcast.
func (h *Hub) SetTyping(conn Conn, conversationID string, isTyping bool) *errs.CustomError {
	if !IsParticipant(conversationID, conn.UserID()) {
		return errs.NewError(errs.ErrUnauthorized)
	}

	if h.typing.Set(conversationID, conn.UserID(), isTyping) {
		h.broadcastTyping(conversationID, conn.UserID(), isTyping, conn.ID())
	}
	return nil
}

// broadcastTyping fans a typing_changed event out to room members, excluding
// the originating connection.
func (h *Hub) broadcastTyping(conversationID, userID string, isTyping bool, excludeConnID string) {
	data, err := EncodeEvent(EventTypingChanged, TypingChangedEvent{
		UserID:         userID,
		ConversationID: conversationID,
		IsTyping:       isTyping,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to encode typing_changed event")
		return
	}
	h.dispatcher.fanout(h.rooms.MembersOf(conversationID), excludeConnID, data)
}

// broadcastPresence sends the full online user set to every live connection.
// The snapshot is taken before iterating so a concurrent unregister never
// tears the fan-out.
func (h *Hub) broadcastPresence() {
	data, err := EncodeEvent(EventPresenceChanged, PresenceChangedEvent{
		OnlineUserIDs: h.presence.OnlineUserIDs(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode presence_changed event")
		return
	}
	h.dispatcher.fanout(h.presence.AllConnections(), "", data)
}
