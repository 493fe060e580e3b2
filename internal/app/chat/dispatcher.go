/*
Package chat contains the real-time messaging core.

This file defines the Dispatcher, the orchestration core: it validates,
persists, and fans out messages, deletions, and read receipts. Broadcast only
happens after persistence succeeds; a failed store call surfaces to the caller
as a storage failure and leaves no partially-broadcast state.
*/
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/userDoffy/Kura/internal/app/message"
	"github.com/userDoffy/Kura/internal/app/storage"
	"github.com/userDoffy/Kura/internal/app/user"
	"github.com/userDoffy/Kura/internal/pkg/errs"
	"github.com/userDoffy/Kura/internal/pkg/logx"
	"github.com/userDoffy/Kura/internal/pkg/metrics"
)

const (
	// DefaultHistoryLimit is the page size when the client asks for zero or less.
	DefaultHistoryLimit = 100

	// MaxHistoryLimit caps a single history request.
	MaxHistoryLimit = 500
)

// DispatcherConfig carries the limits the dispatch engine enforces.
type DispatcherConfig struct {
	// MaxTextBytes bounds text message content.
	MaxTextBytes int

	// MaxFileBytes bounds file payload size.
	MaxFileBytes int64

	// StoreTimeout bounds every store gateway call.
	StoreTimeout time.Duration
}

// Dispatcher coordinates persistence and fan-out for all message operations.
// Every operation takes the originating connection; its bound identity is the
// only identity ever trusted.
type Dispatcher struct {
	store     message.Store
	directory user.Directory
	blobs     storage.Service
	presence  *Presence
	rooms     *Rooms
	cfg       DispatcherConfig
	logger    zerolog.Logger
}

// NewDispatcher constructs a Dispatcher. blobs may be nil when file download
// URL resolution is not available (tests); file messages still persist.
func NewDispatcher(
	store message.Store,
	directory user.Directory,
	blobs storage.Service,
	presence *Presence,
	rooms *Rooms,
	cfg DispatcherConfig,
) *Dispatcher {
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = 2000
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 10 * 1024 * 1024
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}

	return &Dispatcher{
		store:     store,
		directory: directory,
		blobs:     blobs,
		presence:  presence,
		rooms:     rooms,
		cfg:       cfg,
		logger:    logx.Logger().With().Str("component", "Dispatcher").Logger(),
	}
}

// storeCtx bounds a store gateway call so no operation blocks indefinitely.
func (d *Dispatcher) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.cfg.StoreTimeout)
}

// Send validates, persists, and fans out one message. On success the
// persisted message is returned for the caller's acknowledgement; the
// originating connection never receives its own new_message broadcast.
func (d *Dispatcher) Send(ctx context.Context, conn Conn, in SendPayload) (*message.Message, *errs.CustomError) {
	sender := conn.UserID()

	// The claimed sender, if any, must match the connection's bound identity.
	if in.SenderID != "" && in.SenderID != sender {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}

	counterpart, ok := Counterpart(in.ConversationID, sender)
	if !ok {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}
	if in.ReceiverID != counterpart {
		return nil, errs.NewError(errs.ErrConversationInvalid)
	}

	exists, err := d.directory.Exists(ctx, in.ReceiverID)
	if err != nil {
		d.logger.Error().Err(err).Str("receiver_id", in.ReceiverID).Msg("Directory lookup failed during send")
		return nil, errs.NewError(errs.ErrStorageFailure)
	}
	if !exists {
		return nil, errs.NewError(errs.ErrUserNotFound)
	}

	if len(in.Content) > d.cfg.MaxTextBytes {
		return nil, errs.NewError(errs.ErrPayloadTooLarge)
	}
	if in.Kind == message.KindFile {
		if in.FileMeta == nil {
			return nil, errs.NewError(errs.ErrFileMetaInvalid)
		}
		if in.FileMeta.Size > d.cfg.MaxFileBytes {
			return nil, errs.NewError(errs.ErrPayloadTooLarge)
		}
		// Upload keys are conversation-scoped; anything else is someone
		// reaching into another conversation's prefix.
		if !strings.HasPrefix(in.FileMeta.Key, in.ConversationID+"/") {
			return nil, errs.NewError(errs.ErrFileMetaInvalid)
		}
	}

	msg, err := message.New(in.ConversationID, sender, in.ReceiverID, in.Content, in.Kind, in.FileMeta)
	if err != nil {
		d.logger.Warn().Err(err).Str("kind", string(in.Kind)).Msg("Rejected malformed message")
		return nil, errs.NewError(errs.ErrFileMetaInvalid)
	}

	appendCtx, cancel := d.storeCtx(ctx)
	defer cancel()
	if err := d.store.Append(appendCtx, msg); err != nil {
		metrics.StorageFailures.Inc()
		d.logger.Error().Err(err).Str("conversation_id", in.ConversationID).Msg("Append failed; message not dispatched")
		return nil, errs.NewError(errs.ErrStorageFailure)
	}
	metrics.MessagesSent.Inc()

	d.decorate(ctx, msg)

	// Room broadcast, excluding the originating connection.
	if data, err := EncodeEvent(EventNewMessage, NewMessageEvent{
		Message:        msg,
		ConversationID: msg.ConversationID,
	}); err != nil {
		d.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to encode new_message event")
	} else {
		d.fanout(d.rooms.MembersOf(msg.ConversationID), conn.ID(), data)
	}

	// Secondary path: an online receiver who has not opened this chat still
	// gets a lightweight signal on every connection outside the room.
	d.notifyOutsideRoom(msg.ReceiverID, msg.ConversationID, conn.ID(), EventNotification, NotificationEvent{
		SenderID:       msg.SenderID,
		ConversationID: msg.ConversationID,
		Preview:        msg.Preview(),
		Timestamp:      msg.Timestamp,
	})

	return msg, nil
}

// LoadHistory returns the most recent limit messages of the conversation in
// ascending timestamp order. Soft-deleted messages come back as tombstones.
func (d *Dispatcher) LoadHistory(ctx context.Context, conn Conn, conversationID string, limit int) ([]message.Message, *errs.CustomError) {
	if !IsParticipant(conversationID, conn.UserID()) {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rangeCtx, cancel := d.storeCtx(ctx)
	defer cancel()
	msgs, err := d.store.RangeByConversation(rangeCtx, conversationID, limit)
	if err != nil {
		metrics.StorageFailures.Inc()
		d.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("History range query failed")
		return nil, errs.NewError(errs.ErrStorageFailure)
	}

	infos := make(map[string]*message.SenderInfo, 2)
	for i := range msgs {
		if msgs[i].Deleted {
			msgs[i].Tombstone()
			continue
		}
		d.decorateCached(ctx, &msgs[i], infos)
	}

	return msgs, nil
}

// Delete soft-deletes a message. Only the sender may delete; content is
// retained in the store but never re-surfaced.
func (d *Dispatcher) Delete(ctx context.Context, conn Conn, messageID, conversationID string) *errs.CustomError {
	getCtx, cancel := d.storeCtx(ctx)
	defer cancel()
	msg, err := d.store.Get(getCtx, messageID)
	if err != nil {
		if err == message.ErrNotFound {
			return errs.NewError(errs.ErrMessageNotFound)
		}
		metrics.StorageFailures.Inc()
		d.logger.Error().Err(err).Str("message_id", messageID).Msg("Message lookup failed during delete")
		return errs.NewError(errs.ErrStorageFailure)
	}

	if msg.ConversationID != conversationID {
		return errs.NewError(errs.ErrConversationInvalid)
	}
	if msg.SenderID != conn.UserID() {
		return errs.NewError(errs.ErrForbidden)
	}

	delCtx, cancel2 := d.storeCtx(ctx)
	defer cancel2()
	flipped, err := d.store.SoftDelete(delCtx, messageID)
	if err != nil {
		metrics.StorageFailures.Inc()
		d.logger.Error().Err(err).Str("message_id", messageID).Msg("Soft delete failed")
		return errs.NewError(errs.ErrStorageFailure)
	}
	if !flipped {
		// Already deleted; stay idempotent and skip the re-broadcast.
		return nil
	}
	metrics.MessagesDeleted.Inc()

	// The stored object would otherwise remain downloadable through a fresh
	// presigned URL.
	if msg.Kind == message.KindFile && msg.FileKey != "" && d.blobs != nil {
		if err := d.blobs.Delete(ctx, msg.FileKey); err != nil {
			d.logger.Warn().Err(err).Str("file_key", msg.FileKey).Msg("Blob delete failed after message soft delete")
		}
	}

	ev := MessageDeletedEvent{
		MessageID:      messageID,
		ConversationID: conversationID,
		SenderID:       msg.SenderID,
		DeletedAt:      time.Now().UTC(),
	}

	if data, encErr := EncodeEvent(EventMessageDeleted, ev); encErr != nil {
		d.logger.Error().Err(encErr).Str("message_id", messageID).Msg("Failed to encode message_deleted event")
	} else {
		// Room-scoped fan-out includes every member; the requester already
		// has its ack but sees the broadcast like everyone else.
		d.fanout(d.rooms.MembersOf(conversationID), "", data)
	}

	d.notifyOutsideRoom(msg.ReceiverID, conversationID, conn.ID(), EventMessageDeleted, ev)

	return nil
}

// MarkRead flips the read flag on every unread received message of the
// conversation and broadcasts a read receipt to other room members.
// Idempotent: a repeat call with nothing new yields count 0, never an error.
func (d *Dispatcher) MarkRead(ctx context.Context, conn Conn, conversationID string) (int64, *errs.CustomError) {
	requester := conn.UserID()
	if !IsParticipant(conversationID, requester) {
		return 0, errs.NewError(errs.ErrUnauthorized)
	}

	markCtx, cancel := d.storeCtx(ctx)
	defer cancel()
	count, err := d.store.BulkMarkRead(markCtx, conversationID, requester)
	if err != nil {
		metrics.StorageFailures.Inc()
		d.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("Bulk mark read failed")
		return 0, errs.NewError(errs.ErrStorageFailure)
	}

	if data, encErr := EncodeEvent(EventReadReceipt, ReadReceiptEvent{
		ConversationID: conversationID,
		UserID:         requester,
		Count:          count,
	}); encErr != nil {
		d.logger.Error().Err(encErr).Str("conversation_id", conversationID).Msg("Failed to encode read_receipt event")
	} else {
		d.fanout(d.rooms.MembersOf(conversationID), conn.ID(), data)
	}

	return count, nil
}

// UnreadCounts aggregates unread received messages across every conversation
// the caller participates in, keyed by the other participant's identity.
func (d *Dispatcher) UnreadCounts(ctx context.Context, conn Conn) (map[string]int64, *errs.CustomError) {
	requester := conn.UserID()

	aggCtx, cancel := d.storeCtx(ctx)
	defer cancel()
	byConversation, err := d.store.AggregateUnread(aggCtx, requester)
	if err != nil {
		metrics.StorageFailures.Inc()
		d.logger.Error().Err(err).Str("user_id", requester).Msg("Unread aggregation failed")
		return nil, errs.NewError(errs.ErrStorageFailure)
	}

	counts := make(map[string]int64, len(byConversation))
	for conversationID, n := range byConversation {
		counterpart, ok := Counterpart(conversationID, requester)
		if !ok {
			d.logger.Warn().Str("conversation_id", conversationID).Msg("Skipping unread count for malformed conversation id")
			continue
		}
		counts[counterpart] += n
	}
	return counts, nil
}

// fanout queues one encoded event to each connection, skipping the excluded
// connection id. A full queue drops that connection's copy only.
func (d *Dispatcher) fanout(conns []Conn, excludeConnID string, data []byte) {
	for _, c := range conns {
		if c.ID() == excludeConnID {
			continue
		}
		if c.Enqueue(data) {
			metrics.FanoutDelivered.Inc()
		} else {
			metrics.FanoutDropped.Inc()
			d.logger.Warn().Str("conn_id", c.ID()).Str("user_id", c.UserID()).Msg("Outbound queue full, event dropped")
		}
	}
}

// notifyOutsideRoom delivers an event directly to the user's connections that
// are not subscribed to the conversation's room (and are not the origin).
func (d *Dispatcher) notifyOutsideRoom(userID, conversationID, originConnID string, t EventType, payload any) {
	conns := d.presence.ConnectionsFor(userID)
	if len(conns) == 0 {
		return
	}

	var targets []Conn
	for _, c := range conns {
		if c.ID() == originConnID || d.rooms.Contains(conversationID, c.ID()) {
			continue
		}
		targets = append(targets, c)
	}
	if len(targets) == 0 {
		return
	}

	data, err := EncodeEvent(t, payload)
	if err != nil {
		d.logger.Error().Err(err).Str("event", string(t)).Msg("Failed to encode notification event")
		return
	}
	d.fanout(targets, "", data)
}

// decorate resolves display info and a download URL onto a single message.
func (d *Dispatcher) decorate(ctx context.Context, m *message.Message) {
	if info, err := d.directory.DisplayInfo(ctx, m.SenderID); err != nil {
		d.logger.Warn().Err(err).Str("sender_id", m.SenderID).Msg("Display info lookup failed")
	} else {
		m.SenderInfo = &message.SenderInfo{Name: info.Name, Avatar: info.Avatar}
	}
	d.resolveFileURL(ctx, m)
}

// decorateCached is decorate with a per-call memo; a two-party history only
// ever has two senders.
func (d *Dispatcher) decorateCached(ctx context.Context, m *message.Message, infos map[string]*message.SenderInfo) {
	info, ok := infos[m.SenderID]
	if !ok {
		if resolved, err := d.directory.DisplayInfo(ctx, m.SenderID); err != nil {
			d.logger.Warn().Err(err).Str("sender_id", m.SenderID).Msg("Display info lookup failed")
			infos[m.SenderID] = nil
		} else {
			infos[m.SenderID] = &message.SenderInfo{Name: resolved.Name, Avatar: resolved.Avatar}
		}
		info = infos[m.SenderID]
	}
	if info != nil {
		copied := *info
		m.SenderInfo = &copied
	}
	d.resolveFileURL(ctx, m)
}

func (d *Dispatcher) resolveFileURL(ctx context.Context, m *message.Message) {
	if m.Kind != message.KindFile || m.FileKey == "" || d.blobs == nil {
		return
	}
	url, err := d.blobs.PresignDownload(ctx, m.FileKey, storage.PresignedURLDuration)
	if err != nil {
		d.logger.Warn().Err(err).Str("file_key", m.FileKey).Msg("Presign download failed")
		return
	}
	m.FileURL = url
}
