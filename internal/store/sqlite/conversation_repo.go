package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"server_go/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

// peerKey encodes the unordered participant pair as "min_max".
func peerKey(userA, userB int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d_%d", userA, userB)
}

func (r *ConversationRepo) FindOrCreateDirect(ctx context.Context, userA, userB int64) (*domain.Conversation, error) {
	key := peerKey(userA, userB)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// The UNIQUE constraint on peer_key makes this a no-op when a concurrent
	// caller created the conversation first.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (peer_key, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(peer_key) DO NOTHING
	`, key)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	c := &domain.Conversation{}
	var last lastMessageColumns
	err = tx.QueryRowContext(ctx, `
		SELECT id, last_sender_id, last_content, last_timestamp, created_at, updated_at
		FROM conversations
		WHERE peer_key = ?
	`, key).Scan(&c.ID, &last.senderID, &last.content, &last.timestamp, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get conversation by peer key: %w", err)
	}
	c.LastMessage = last.toSummary()

	if affected > 0 {
		for _, uid := range []int64{userA, userB} {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO conversation_participants (user_id, conversation_id, joined_at)
				VALUES (?, ?, CURRENT_TIMESTAMP)
			`, uid, c.ID); err != nil {
				return nil, fmt.Errorf("insert participant: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	c.Participants = []int64{userA, userB}
	if userA > userB {
		c.Participants = []int64{userB, userA}
	}
	return c, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	var last lastMessageColumns
	err := r.db.QueryRowContext(ctx, `
		SELECT id, last_sender_id, last_content, last_timestamp, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`, id).Scan(&c.ID, &last.senderID, &last.content, &last.timestamp, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	c.LastMessage = last.toSummary()

	participants, err := r.ListParticipantIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Participants = participants
	return c, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	query := `
		SELECT c.id, c.last_sender_id, c.last_content, c.last_timestamp, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = ?
		ORDER BY c.updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		var last lastMessageColumns
		if err := rows.Scan(&c.ID, &last.senderID, &last.content, &last.timestamp, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.LastMessage = last.toSummary()
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	for _, c := range res {
		participants, err := r.ListParticipantIDs(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Participants = participants
	}
	return res, nil
}

func (r *ConversationRepo) UpdateLastMessage(ctx context.Context, conversationID, senderID int64, content string, ts time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations
		SET last_sender_id = ?, last_content = ?, last_timestamp = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, senderID, content, ts, conversationID)
	if err != nil {
		return fmt.Errorf("update last message: %w", err)
	}
	return nil
}

func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is participant: %w", err)
	}
	return true, nil
}

func (r *ConversationRepo) ListParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id
		FROM conversation_participants
		WHERE conversation_id = ?
		ORDER BY user_id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return ids, nil
}

// lastMessageColumns holds the nullable denormalized summary columns.
type lastMessageColumns struct {
	senderID  sql.NullInt64
	content   sql.NullString
	timestamp sql.NullTime
}

func (l lastMessageColumns) toSummary() *domain.MessageSummary {
	if !l.senderID.Valid {
		return nil
	}
	return &domain.MessageSummary{
		SenderID:  l.senderID.Int64,
		Content:   l.content.String,
		Timestamp: l.timestamp.Time,
	}
}
