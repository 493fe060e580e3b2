package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userDoffy/Kura/internal/app/message"
	"github.com/userDoffy/Kura/internal/pkg/errs"
)

func TestSendPersistsAndFansOut(t *testing.T) {
	store := message.NewMemStore()
	_, d, presence, rooms, _ := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	sender := newFakeConn("c1", "alice")
	receiverInRoom := newFakeConn("c2", "bob")
	receiverElsewhere := newFakeConn("c3", "bob")
	presence.Register(sender)
	presence.Register(receiverInRoom)
	presence.Register(receiverElsewhere)
	rooms.Join(conv, sender)
	rooms.Join(conv, receiverInRoom)

	msg, customErr := d.Send(context.Background(), sender, SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Content:        "hello",
		Kind:           message.KindText,
	})
	require.Nil(t, customErr)
	require.NotNil(t, msg)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.False(t, msg.Read, "messages persist unread")
	assert.False(t, msg.Deleted)
	require.NotNil(t, msg.SenderInfo)
	assert.Equal(t, "Name of alice", msg.SenderInfo.Name)

	// The room member sees the broadcast; the origin connection does not.
	require.Len(t, receiverInRoom.eventsOfType(t, EventNewMessage), 1)
	assert.Empty(t, sender.eventsOfType(t, EventNewMessage))

	// The receiver's connection outside the room gets the lightweight signal.
	notes := receiverElsewhere.eventsOfType(t, EventNotification)
	require.Len(t, notes, 1)
	var note NotificationEvent
	require.NoError(t, json.Unmarshal(notes[0], &note))
	assert.Equal(t, "alice", note.SenderID)
	assert.Equal(t, conv, note.ConversationID)
	assert.Equal(t, "hello", note.Preview)
	assert.Empty(t, receiverElsewhere.eventsOfType(t, EventNewMessage))
}

func TestSendOrderIsPreserved(t *testing.T) {
	store := message.NewMemStore()
	_, d, _, rooms, _ := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	sender := newFakeConn("c1", "alice")
	receiver := newFakeConn("c2", "bob")
	rooms.Join(conv, receiver)

	for _, content := range []string{"first", "second", "third"} {
		_, customErr := d.Send(context.Background(), sender, SendPayload{
			ConversationID: conv,
			ReceiverID:     "bob",
			Content:        content,
			Kind:           message.KindText,
		})
		require.Nil(t, customErr)
	}

	msgs, customErr := d.LoadHistory(context.Background(), receiver, conv, 0)
	require.Nil(t, customErr)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
	assert.True(t, msgs[0].Timestamp.Before(msgs[1].Timestamp))
	assert.True(t, msgs[1].Timestamp.Before(msgs[2].Timestamp))
}

func TestSendRejectsClaimedSenderMismatch(t *testing.T) {
	_, d, _, _, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	_, customErr := d.Send(context.Background(), newFakeConn("c1", "alice"), SendPayload{
		ConversationID: conv,
		SenderID:       "mallory",
		ReceiverID:     "bob",
		Content:        "hi",
		Kind:           message.KindText,
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUnauthorized, customErr.Code)
}

func TestSendRejectsNonParticipant(t *testing.T) {
	_, d, _, _, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob", "carol"))
	conv := ConversationID("alice", "bob")

	_, customErr := d.Send(context.Background(), newFakeConn("c1", "carol"), SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Content:        "hi",
		Kind:           message.KindText,
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUnauthorized, customErr.Code)
}

func TestSendRejectsWrongReceiver(t *testing.T) {
	_, d, _, _, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob", "carol"))
	conv := ConversationID("alice", "bob")

	_, customErr := d.Send(context.Background(), newFakeConn("c1", "alice"), SendPayload{
		ConversationID: conv,
		ReceiverID:     "carol",
		Content:        "hi",
		Kind:           message.KindText,
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrConversationInvalid, customErr.Code)
}

func TestSendRejectsUnknownReceiver(t *testing.T) {
	_, d, _, _, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice"))
	conv := ConversationID("alice", "bob")

	_, customErr := d.Send(context.Background(), newFakeConn("c1", "alice"), SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Content:        "hi",
		Kind:           message.KindText,
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUserNotFound, customErr.Code)
}

func TestSendRejectsOversizedText(t *testing.T) {
	store := message.NewMemStore()
	d := NewDispatcher(store, newFakeDirectory("alice", "bob"), nil, NewPresence(), NewRooms(), DispatcherConfig{
		MaxTextBytes: 8,
	})
	conv := ConversationID("alice", "bob")

	_, customErr := d.Send(context.Background(), newFakeConn("c1", "alice"), SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Content:        "far too long for the limit",
		Kind:           message.KindText,
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrPayloadTooLarge, customErr.Code)
}

func TestSendFileValidation(t *testing.T) {
	_, d, _, _, _ := newTestCore(message.NewMemStore(), newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")
	sender := newFakeConn("c1", "alice")

	// Missing metadata.
	_, customErr := d.Send(context.Background(), sender, SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Kind:           message.KindFile,
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrFileMetaInvalid, customErr.Code)

	// Key outside the conversation's prefix.
	_, customErr = d.Send(context.Background(), sender, SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Kind:           message.KindFile,
		FileMeta:       &message.FileMeta{Name: "a.png", Size: 10, Key: "alice:carol/a.png"},
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrFileMetaInvalid, customErr.Code)

	// Well-formed file message.
	msg, customErr := d.Send(context.Background(), sender, SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Kind:           message.KindFile,
		FileMeta:       &message.FileMeta{Name: "a.png", Size: 10, Key: conv + "/a.png"},
	})
	require.Nil(t, customErr)
	assert.Equal(t, "a.png", msg.FileName)
	assert.Equal(t, "[File: a.png]", msg.Preview())
}

func TestSendStorageFailureSuppressesFanout(t *testing.T) {
	store := &failingStore{Store: message.NewMemStore()}
	_, d, _, rooms, _ := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	sender := newFakeConn("c1", "alice")
	receiver := newFakeConn("c2", "bob")
	rooms.Join(conv, receiver)

	_, customErr := d.Send(context.Background(), sender, SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Content:        "hello",
		Kind:           message.KindText,
	})
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrStorageFailure, customErr.Code)
	assert.Empty(t, receiver.events, "failed persist must not reach anyone")
}

func TestLoadHistoryClampAndAuthorization(t *testing.T) {
	store := message.NewMemStore()
	_, d, _, _, _ := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")
	sender := newFakeConn("c1", "alice")

	for i := 0; i < 5; i++ {
		_, customErr := d.Send(context.Background(), sender, SendPayload{
			ConversationID: conv,
			ReceiverID:     "bob",
			Content:        "msg",
			Kind:           message.KindText,
		})
		require.Nil(t, customErr)
	}

	msgs, customErr := d.LoadHistory(context.Background(), sender, conv, 3)
	require.Nil(t, customErr)
	assert.Len(t, msgs, 3)

	_, customErr = d.LoadHistory(context.Background(), newFakeConn("c9", "carol"), conv, 3)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUnauthorized, customErr.Code)
}

func TestDeleteSenderOnlyAndTombstone(t *testing.T) {
	store := message.NewMemStore()
	_, d, _, rooms, _ := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	sender := newFakeConn("c1", "alice")
	receiver := newFakeConn("c2", "bob")
	rooms.Join(conv, sender)
	rooms.Join(conv, receiver)

	msg, customErr := d.Send(context.Background(), sender, SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Content:        "secret",
		Kind:           message.KindText,
	})
	require.Nil(t, customErr)

	// Only the sender may delete.
	customErr = d.Delete(context.Background(), receiver, msg.ID, conv)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrForbidden, customErr.Code)

	// Conversation id must match the message.
	customErr = d.Delete(context.Background(), sender, msg.ID, ConversationID("alice", "carol"))
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrConversationInvalid, customErr.Code)

	customErr = d.Delete(context.Background(), sender, "no-such-id", conv)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrMessageNotFound, customErr.Code)

	require.Nil(t, d.Delete(context.Background(), sender, msg.ID, conv))

	// Every room member sees the delete broadcast, requester included.
	require.Len(t, receiver.eventsOfType(t, EventMessageDeleted), 1)
	require.Len(t, sender.eventsOfType(t, EventMessageDeleted), 1)

	// A repeat delete is idempotent and does not re-broadcast.
	require.Nil(t, d.Delete(context.Background(), sender, msg.ID, conv))
	assert.Len(t, receiver.eventsOfType(t, EventMessageDeleted), 1)

	// History returns a tombstone, never the content.
	msgs, customErr := d.LoadHistory(context.Background(), receiver, conv, 0)
	require.Nil(t, customErr)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Deleted)
	assert.Empty(t, msgs[0].Content)
}

func TestMarkReadCountsAndIdempotence(t *testing.T) {
	store := message.NewMemStore()
	_, d, _, rooms, _ := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	sender := newFakeConn("c1", "alice")
	receiver := newFakeConn("c2", "bob")
	rooms.Join(conv, sender)
	rooms.Join(conv, receiver)

	for i := 0; i < 3; i++ {
		_, customErr := d.Send(context.Background(), sender, SendPayload{
			ConversationID: conv,
			ReceiverID:     "bob",
			Content:        "msg",
			Kind:           message.KindText,
		})
		require.Nil(t, customErr)
	}

	count, customErr := d.MarkRead(context.Background(), receiver, conv)
	require.Nil(t, customErr)
	assert.Equal(t, int64(3), count)

	// The sender's connection sees the receipt; the requester does not.
	receipts := sender.eventsOfType(t, EventReadReceipt)
	require.Len(t, receipts, 1)
	var receipt ReadReceiptEvent
	require.NoError(t, json.Unmarshal(receipts[0], &receipt))
	assert.Equal(t, "bob", receipt.UserID)
	assert.Equal(t, int64(3), receipt.Count)
	assert.Empty(t, receiver.eventsOfType(t, EventReadReceipt))

	// Nothing left unread; still no error.
	count, customErr = d.MarkRead(context.Background(), receiver, conv)
	require.Nil(t, customErr)
	assert.Equal(t, int64(0), count)

	_, customErr = d.MarkRead(context.Background(), newFakeConn("c9", "carol"), conv)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrUnauthorized, customErr.Code)
}

func TestUnreadCountsKeyedByCounterpart(t *testing.T) {
	store := message.NewMemStore()
	_, d, _, _, _ := newTestCore(store, newFakeDirectory("alice", "bob", "carol"))

	alice := newFakeConn("c1", "alice")
	carol := newFakeConn("c3", "carol")
	bob := newFakeConn("c2", "bob")

	for i := 0; i < 2; i++ {
		_, customErr := d.Send(context.Background(), alice, SendPayload{
			ConversationID: ConversationID("alice", "bob"),
			ReceiverID:     "bob",
			Content:        "from alice",
			Kind:           message.KindText,
		})
		require.Nil(t, customErr)
	}
	_, customErr := d.Send(context.Background(), carol, SendPayload{
		ConversationID: ConversationID("bob", "carol"),
		ReceiverID:     "bob",
		Content:        "from carol",
		Kind:           message.KindText,
	})
	require.Nil(t, customErr)

	counts, customErr := d.UnreadCounts(context.Background(), bob)
	require.Nil(t, customErr)
	assert.Equal(t, map[string]int64{"alice": 2, "carol": 1}, counts)

	// Reading one conversation zeroes only that counterpart.
	_, customErr = d.MarkRead(context.Background(), bob, ConversationID("alice", "bob"))
	require.Nil(t, customErr)

	counts, customErr = d.UnreadCounts(context.Background(), bob)
	require.Nil(t, customErr)
	assert.Equal(t, map[string]int64{"carol": 1}, counts)
}

func TestFanoutDropsOnlyTheFullConnection(t *testing.T) {
	store := message.NewMemStore()
	_, d, _, rooms, _ := newTestCore(store, newFakeDirectory("alice", "bob"))
	conv := ConversationID("alice", "bob")

	sender := newFakeConn("c1", "alice")
	healthy := newFakeConn("c2", "bob")
	saturated := newFakeConn("c3", "bob")
	saturated.full = true
	rooms.Join(conv, healthy)
	rooms.Join(conv, saturated)

	_, customErr := d.Send(context.Background(), sender, SendPayload{
		ConversationID: conv,
		ReceiverID:     "bob",
		Content:        "hello",
		Kind:           message.KindText,
	})
	require.Nil(t, customErr)

	assert.Len(t, healthy.eventsOfType(t, EventNewMessage), 1)
	assert.Empty(t, saturated.events)
}
