package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/types"
)

// MessageRepository handles persistence for contact messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg types.Message) (types.Message, error) {
	now := time.Now().UTC()
	msg.ID = uuid.NewString()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	const query = `
		INSERT INTO messages (id, first_name, last_name, email, phone, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		msg.ID,
		msg.FirstName,
		msg.LastName,
		msg.Email,
		msg.Phone,
		msg.Message,
		msg.CreatedAt,
		msg.UpdatedAt,
	); err != nil {
		return types.Message{}, err
	}
	return msg, nil
}

// List returns every message, newest first.
func (r *MessageRepository) List(ctx context.Context) ([]types.Message, error) {
	const query = `
		SELECT id, first_name, last_name, email, phone, message, created_at, updated_at
		FROM messages
		ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0)
	for rows.Next() {
		var msg types.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.FirstName,
			&msg.LastName,
			&msg.Email,
			&msg.Phone,
			&msg.Message,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
