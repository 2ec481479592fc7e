package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/mugishapc/bvoice/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for direct and group messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, params models.NewMessageParams) (models.Message, error)
	GetConversation(ctx context.Context, userID, peerID int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, readerID, peerID int) error
	GetGroupMessages(ctx context.Context, groupID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	React(ctx context.Context, userID, messageID int, emoji string) (models.ReactionOutcome, error)
	ListReactions(ctx context.Context, messageID int) ([]models.MessageReaction, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, content, timestamp, is_read, message_type, file_path, sender_id, receiver_id, group_id, reply_to_id`

// CreateMessage persists a message after validating that exactly one of
// receiver or group is set. Timestamp and id come from the server.
func (r *MessageRepo) CreateMessage(ctx context.Context, params models.NewMessageParams) (models.Message, error) {
	if err := params.Validate(); err != nil {
		return models.Message{}, err
	}
	messageType := params.MessageType
	if messageType == "" {
		messageType = "text"
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (content, message_type, file_path, sender_id, receiver_id, group_id, reply_to_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+messageColumns,
		params.Content, messageType, params.FilePath, params.SenderID, params.ReceiverID, params.GroupID, params.ReplyToID).
		StructScan(&msg)
	return msg, err
}

// GetConversation returns both directions of a direct conversation ordered by
// creation time.
func (r *MessageRepo) GetConversation(ctx context.Context, userID, peerID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY timestamp ASC`, userID, peerID)
	return msgs, err
}

// MarkConversationRead flips every unread message from peer to reader in a
// single batch. Idempotent: a second call affects nothing.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, readerID, peerID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE
        WHERE receiver_id=$1 AND sender_id=$2 AND is_read = FALSE`, readerID, peerID)
	return err
}

// GetGroupMessages returns group messages ordered by creation time.
func (r *MessageRepo) GetGroupMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE group_id=$1 ORDER BY timestamp ASC`, groupID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// React toggles a reaction with replace semantics inside one transaction: an
// identical (user, message, emoji) row is removed; otherwise any prior
// reaction by the user on the message is replaced by the new emoji. The
// transaction keeps two concurrent toggles from leaving two rows.
func (r *MessageRepo) React(ctx context.Context, userID, messageID int, emoji string) (models.ReactionOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3`, messageID, userID, emoji)
	if err != nil {
		return "", err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if removed > 0 {
		if err = tx.Commit(); err != nil {
			return "", err
		}
		return models.ReactionRemoved, nil
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2`, messageID, userID); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)`, messageID, userID, emoji); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return models.ReactionAdded, nil
}

// ListReactions returns a message's reactions with resolved usernames.
func (r *MessageRepo) ListReactions(ctx context.Context, messageID int) ([]models.MessageReaction, error) {
	var reactions []models.MessageReaction
	err := r.db.SelectContext(ctx, &reactions, `SELECT mr.id, mr.message_id, mr.user_id, mr.emoji, mr.created_at, u.username
        FROM message_reactions mr INNER JOIN users u ON u.id = mr.user_id
        WHERE mr.message_id=$1 ORDER BY mr.created_at ASC`, messageID)
	return reactions, err
}
