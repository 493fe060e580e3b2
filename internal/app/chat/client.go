/*
Package chat contains the real-time messaging core.

This file defines the Client struct, the per-connection session: it owns the
WebSocket read/write loops, binds the authenticated identity set at connect
time, and translates inbound operation frames into calls on the Hub and the
Dispatcher, answering each with an ack, a typed reply, or an error event.
*/
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/userDoffy/Kura/internal/pkg/errs"
	"github.com/userDoffy/Kura/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame. File payloads
	// never traverse the socket (uploads go straight to the bucket), so
	// frames stay small.
	maxInboundBytes = 64 * 1024

	// capacity of the per-connection outbound queue. A full queue drops
	// the event for this connection rather than stalling the broadcaster.
	sendQueueSize = 256
)

// Client represents one authenticated WebSocket connection and its session state.
type Client struct {
	// opaque connection handle, unique per connection.
	id string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// authenticated identity bound at connect time, immutable thereafter.
	userID string

	// the hub carrying the shared registries and the dispatch engine.
	hub *Hub

	// a buffered channel used to queue events waiting to be sent to the client.
	send chan []byte

	// structured logger with connection context.
	logger zerolog.Logger
}

var _ Conn = (*Client)(nil)

// NewClient constructs a Client for an already-verified identity. The caller
// registers it with the Hub and starts both pumps.
func NewClient(hub *Hub, wsConn *websocket.Conn, userID string) *Client {
	connID := uuid.New().String()

	clientLogger := logx.Logger().With().
		Str("conn_id", connID).
		Str("user_id", userID).
		Logger()

	return &Client{
		id:     connID,
		conn:   wsConn,
		userID: userID,
		hub:    hub,
		send:   make(chan []byte, sendQueueSize),
		logger: clientLogger,
	}
}

// ID returns the opaque connection handle.
func (c *Client) ID() string { return c.id }

// UserID returns the identity bound to the connection.
func (c *Client) UserID() string { return c.userID }

// Enqueue offers an encoded event to the outbound queue without blocking.
func (c *Client) Enqueue(event []byte) bool {
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), frame dispatch, and performs the mandatory
// cleanup upon connection closure, graceful or abrupt.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxInboundBytes)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		c.processInboundFrame(frameBytes)
	}
}

// cleanupOnDisconnect runs when the ReadPump terminates for any reason.
// Registry cleanup must complete even on abrupt network drops.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.hub.Disconnect(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Connection close error")
	}
}

// processInboundFrame decodes one raw frame and dispatches it by operation type.
// Operations are handled sequentially on this goroutine, which is what keeps
// per-sender send ordering intact within a conversation.
func (c *Client) processInboundFrame(frameBytes []byte) {
	var frame Frame
	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		c.logger.Warn().Err(err).
			Bytes("frame_bytes", frameBytes).
			Msg("Client sent invalid JSON")
		c.sendError(frame.TempID, errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	// In-flight operations are not cancelled on disconnect: once a message
	// is persisted its broadcast still matters to the other room members.
	ctx := context.Background()

	switch frame.Type {
	case OpJoin:
		c.handleJoin(frame.Payload, frame.TempID)

	case OpLeave:
		c.handleLeave(frame.Payload)

	case OpSend:
		c.handleSend(ctx, frame.Payload, frame.TempID)

	case OpDelete:
		c.handleDelete(ctx, frame.Payload, frame.TempID)

	case OpTyping:
		c.handleTyping(frame.Payload)

	case OpMarkRead:
		c.handleMarkRead(ctx, frame.Payload, frame.TempID)

	case OpLoadHistory:
		c.handleLoadHistory(ctx, frame.Payload, frame.TempID)

	case OpUnreadCounts:
		c.handleUnreadCounts(ctx)

	default:
		c.logger.Warn().Str("op_type", string(frame.Type)).Msg("Client sent unsupported operation type")
		c.sendError(frame.TempID, errs.NewError(errs.ErrInvalidParams))
	}
}

func (c *Client) handleJoin(payloadBytes json.RawMessage, tempID string) {
	var payload RoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError(tempID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	if customErr := c.hub.Join(c, payload.ConversationID); customErr != nil {
		c.sendError(tempID, customErr)
		return
	}

	c.sendEvent(EventAck, AckEvent{TempID: tempID, ConversationID: payload.ConversationID})
}

func (c *Client) handleLeave(payloadBytes json.RawMessage) {
	var payload RoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError("", errs.NewError(errs.ErrInvalidParams))
		return
	}

	c.hub.Leave(c, payload.ConversationID)
}

func (c *Client) handleSend(ctx context.Context, payloadBytes json.RawMessage, tempID string) {
	var payload SendPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError(tempID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	msg, customErr := c.hub.Dispatcher().Send(ctx, c, payload)
	if customErr != nil {
		c.sendError(tempID, customErr)
		return
	}

	c.sendEvent(EventAck, AckEvent{TempID: tempID, Message: msg})
}

func (c *Client) handleDelete(ctx context.Context, payloadBytes json.RawMessage, tempID string) {
	var payload DeletePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError(tempID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	if customErr := c.hub.Dispatcher().Delete(ctx, c, payload.MessageID, payload.ConversationID); customErr != nil {
		c.sendError(tempID, customErr)
		return
	}

	c.sendEvent(EventAck, AckEvent{
		TempID:         tempID,
		MessageID:      payload.MessageID,
		ConversationID: payload.ConversationID,
	})
}

func (c *Client) handleTyping(payloadBytes json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError("", errs.NewError(errs.ErrInvalidParams))
		return
	}

	if customErr := c.hub.SetTyping(c, payload.ConversationID, payload.IsTyping); customErr != nil {
		c.sendError("", customErr)
	}
}

func (c *Client) handleMarkRead(ctx context.Context, payloadBytes json.RawMessage, tempID string) {
	var payload RoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError(tempID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	count, customErr := c.hub.Dispatcher().MarkRead(ctx, c, payload.ConversationID)
	if customErr != nil {
		c.sendError(tempID, customErr)
		return
	}

	c.sendEvent(EventAck, AckEvent{
		TempID:         tempID,
		ConversationID: payload.ConversationID,
		Count:          &count,
	})
}

func (c *Client) handleLoadHistory(ctx context.Context, payloadBytes json.RawMessage, tempID string) {
	var payload HistoryPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.sendError(tempID, errs.NewError(errs.ErrInvalidParams))
		return
	}

	msgs, customErr := c.hub.Dispatcher().LoadHistory(ctx, c, payload.ConversationID, payload.Limit)
	if customErr != nil {
		c.sendError(tempID, customErr)
		return
	}

	c.sendEvent(EventHistory, HistoryEvent{
		ConversationID: payload.ConversationID,
		Messages:       msgs,
	})
}

func (c *Client) handleUnreadCounts(ctx context.Context) {
	counts, customErr := c.hub.Dispatcher().UnreadCounts(ctx, c)
	if customErr != nil {
		c.sendError("", customErr)
		return
	}

	c.sendEvent(EventUnreadCounts, UnreadCountsEvent{Counts: counts})
}

// sendEvent encodes and queues an event for this connection.
func (c *Client) sendEvent(t EventType, payload any) {
	data, err := EncodeEvent(t, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(t)).Msg("Error encoding event for client")
		return
	}

	if !c.Enqueue(data) {
		c.logger.Warn().Int("queue_len", len(c.send)).Str("event", string(t)).Msg("Client send queue full, dropping event")
	}
}

// sendError queues an error event carrying the error kind and the client's
// correlation id, so a failed optimistic send can be rolled back unambiguously.
func (c *Client) sendError(tempID string, customErr *errs.CustomError) {
	c.sendEvent(EventError, ErrorEvent{
		TempID:  tempID,
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// WritePump handles writing events from the Client.send channel to the
// WebSocket connection and keeps the heartbeat alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !c.writeQueuedEvent(event, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedEvent writes one queued event to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedEvent(event []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
		c.logger.Error().Err(err).Msg("Error writing event")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping to maintain the heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
