package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store against PostgreSQL via pgx.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps an initialized connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const messageColumns = `id, conversation_id, sender_id, receiver_id, content, kind,
	coalesce(file_name, ''), coalesce(file_size, 0), coalesce(file_key, ''),
	ts, read, read_at, deleted, deleted_at`

func scanMessage(row pgx.Row, m *Message) error {
	return row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Kind,
		&m.FileName, &m.FileSize, &m.FileKey,
		&m.Timestamp, &m.Read, &m.ReadAt, &m.Deleted, &m.DeletedAt,
	)
}

// Append inserts the message and fills its store-assigned id and timestamp.
func (s *PGStore) Append(ctx context.Context, m *Message) error {
	var fileName, fileKey *string
	var fileSize *int64
	if m.Kind == KindFile {
		fileName, fileSize, fileKey = &m.FileName, &m.FileSize, &m.FileKey
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, content, kind, file_name, file_size, file_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, ts`,
		m.ConversationID, m.SenderID, m.ReceiverID, m.Content, m.Kind, fileName, fileSize, fileKey,
	)

	if err := row.Scan(&m.ID, &m.Timestamp); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Get returns a single message by id.
func (s *PGStore) Get(ctx context.Context, id string) (*Message, error) {
	var m Message
	row := s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)

	if err := scanMessage(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &m, nil
}

// RangeByConversation selects the newest limit rows, then re-sorts ascending
// so histories read top-to-bottom chronologically.
func (s *PGStore) RangeByConversation(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT * FROM (
			SELECT `+messageColumns+`
			FROM messages
			WHERE conversation_id = $1
			ORDER BY ts DESC
			LIMIT $2
		) recent
		ORDER BY ts ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("range messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range messages: %w", err)
	}
	return out, nil
}

// BulkMarkRead flips unread received messages of the conversation to read.
func (s *PGStore) BulkMarkRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET read = TRUE, read_at = now()
		WHERE conversation_id = $1 AND receiver_id = $2 AND NOT read AND NOT deleted`,
		conversationID, receiverID,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk mark read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SoftDelete marks the message deleted, keeping its row.
func (s *PGStore) SoftDelete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET deleted = TRUE, deleted_at = now()
		WHERE id = $1 AND NOT deleted`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AggregateUnread groups unread received message counts by conversation.
func (s *PGStore) AggregateUnread(ctx context.Context, receiverID string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT conversation_id, count(*)
		FROM messages
		WHERE receiver_id = $1 AND NOT read AND NOT deleted
		GROUP BY conversation_id`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate unread: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var conv string
		var n int64
		if err := rows.Scan(&conv, &n); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		counts[conv] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate unread: %w", err)
	}
	return counts, nil
}
