package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/stationhq/firewatch/core/chat"
)

const pqUniqueViolation = "23505"

type conversationRow struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	AdminID   int       `db:"admin_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r conversationRow) unpack() chat.Conversation {
	return chat.Conversation{
		ID:        r.ID,
		UserID:    r.UserID,
		AdminID:   r.AdminID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func unpackConversations(rows []conversationRow) []chat.Conversation {
	convos := make([]chat.Conversation, 0, len(rows))
	for _, r := range rows {
		convos = append(convos, r.unpack())
	}
	return convos
}

type messageRow struct {
	ID             int        `db:"id"`
	ConversationID int        `db:"conversation_id"`
	SenderID       int        `db:"sender_id"`
	Content        string     `db:"content"`
	CreatedAt      time.Time  `db:"created_at"`
	ReadAt         *time.Time `db:"read_at"`
}

func (r messageRow) unpack() chat.Message {
	return chat.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
		ReadAt:         r.ReadAt,
	}
}

type chatRepository struct {
	db *sqlx.DB
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *sqlx.DB) *chatRepository {
	return &chatRepository{db: db}
}

func (repo chatRepository) trapNoRowsErr(err, sentinel error, msg string) error {
	if err == sql.ErrNoRows {
		return sentinel
	}
	return wrapErr(err,msg)
}

func (repo chatRepository) CreateConversation(ctx context.Context, convo chat.Conversation) (chat.Conversation, error) {
	query := `
		INSERT INTO conversations (user_id, admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		convo.UserID, convo.AdminID, convo.CreatedAt, convo.UpdatedAt,
	).Scan(&convo.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return chat.Conversation{}, chat.ErrConversationExists
		}
		return chat.Conversation{}, wrapErr(err,"inserting conversation")
	}
	return convo, nil
}

func (repo chatRepository) GetConversationByID(ctx context.Context, id int) (chat.Conversation, error) {
	var row conversationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM conversations WHERE id = $1`, id); err != nil {
		return chat.Conversation{}, repo.trapNoRowsErr(err, chat.ErrConversationNotFound, "fetching conversation by ID")
	}
	return row.unpack(), nil
}

func (repo chatRepository) GetConversationForUser(ctx context.Context, userID int) (chat.Conversation, error) {
	var row conversationRow
	query := `SELECT * FROM conversations WHERE user_id = $1 ORDER BY id ASC LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, query, userID); err != nil {
		return chat.Conversation{}, repo.trapNoRowsErr(err, chat.ErrConversationNotFound, "fetching user conversation")
	}
	return row.unpack(), nil
}

func (repo chatRepository) GetConversationByPair(ctx context.Context, userID, adminID int) (chat.Conversation, error) {
	var row conversationRow
	query := `SELECT * FROM conversations WHERE user_id = $1 AND admin_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, adminID); err != nil {
		return chat.Conversation{}, repo.trapNoRowsErr(err, chat.ErrConversationNotFound, "fetching conversation by pair")
	}
	return row.unpack(), nil
}

func (repo chatRepository) QueryConversationsByUser(ctx context.Context, userID int) ([]chat.Conversation, error) {
	var rows []conversationRow
	query := `SELECT * FROM conversations WHERE user_id = $1 ORDER BY updated_at DESC, id DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, wrapErr(err,"querying conversations by user")
	}
	return unpackConversations(rows), nil
}

func (repo chatRepository) QueryConversationsByAdmin(ctx context.Context, adminID int) ([]chat.Conversation, error) {
	var rows []conversationRow
	query := `SELECT * FROM conversations WHERE admin_id = $1 ORDER BY updated_at DESC, id DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, adminID); err != nil {
		return nil, wrapErr(err,"querying conversations by admin")
	}
	return unpackConversations(rows), nil
}

func (repo chatRepository) TouchConversation(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE conversations SET updated_at = $2 WHERE id = $1`
	if _, err := repo.db.ExecContext(ctx, query, id, at); err != nil {
		return wrapErr(err,"touching conversation")
	}
	return nil
}

func (repo chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content, created_at, read_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt, msg.ReadAt,
	).Scan(&msg.ID)
	if err != nil {
		return chat.Message{}, wrapErr(err,"inserting message")
	}
	return msg, nil
}

func (repo chatRepository) GetMessageByID(ctx context.Context, id int) (chat.Message, error) {
	var row messageRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM messages WHERE id = $1`, id); err != nil {
		return chat.Message{}, repo.trapNoRowsErr(err, chat.ErrMessageNotFound, "fetching message by ID")
	}
	return row.unpack(), nil
}

func (repo chatRepository) QueryMessagesByConversation(ctx context.Context, conversationID int) ([]chat.Message, error) {
	var rows []messageRow
	query := `SELECT * FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC, id ASC`
	if err := repo.db.SelectContext(ctx, &rows, query, conversationID); err != nil {
		return nil, wrapErr(err,"querying messages")
	}
	msgs := make([]chat.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.unpack())
	}
	return msgs, nil
}

func (repo chatRepository) MarkMessageRead(ctx context.Context, id int, at time.Time) (bool, error) {
	query := `UPDATE messages SET read_at = $2 WHERE id = $1 AND read_at IS NULL`
	res, err := repo.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, wrapErr(err,"marking message read")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(err,"reading result")
	}
	if n > 0 {
		return true, nil
	}

	// nothing changed: already read, or no such message
	var exists bool
	if err = repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, id); err != nil {
		return false, wrapErr(err,"checking message existence")
	}
	if !exists {
		return false, chat.ErrMessageNotFound
	}
	return false, nil
}

func (repo chatRepository) CountUnread(ctx context.Context, conversationIDs []int, recipientID int) (int, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`
		SELECT COUNT(*) FROM messages
		WHERE conversation_id IN (?) AND read_at IS NULL AND sender_id <> ?`,
		conversationIDs, recipientID)
	if err != nil {
		return 0, wrapErr(err,"binding conversation IDs")
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, repo.db.Rebind(query), args...); err != nil {
		return 0, wrapErr(err,"counting unread messages")
	}
	return count, nil
}

func (repo chatRepository) UnreadConversationIDs(ctx context.Context, conversationIDs []int, recipientID int) ([]int, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT DISTINCT conversation_id FROM messages
		WHERE conversation_id IN (?) AND read_at IS NULL AND sender_id <> ?`,
		conversationIDs, recipientID)
	if err != nil {
		return nil, wrapErr(err,"binding conversation IDs")
	}

	var ids []int
	if err = repo.db.SelectContext(ctx, &ids, repo.db.Rebind(query), args...); err != nil {
		return nil, wrapErr(err,"querying unread conversations")
	}
	return ids, nil
}
