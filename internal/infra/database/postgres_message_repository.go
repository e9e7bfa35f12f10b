package database

import (
	"context"
	"database/sql"
	"fmt"

	"whatsapp_gateway/internal/domain/message"
)

type PostgresMessageRepository struct {
	db DBTX
}

func NewPostgresMessageRepository(db DBTX) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	query := `INSERT INTO mail_messages (model, res_id, author_id, body, message_type, subtype)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, m.Model, m.ResID, m.AuthorID, m.Body, m.Type, m.Subtype).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id int64) (*message.Message, error) {
	query := `SELECT id, model, res_id, author_id, body, message_type, subtype, created_at
               FROM mail_messages WHERE id = $1`
	m := &message.Message{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Model, &m.ResID, &m.AuthorID, &m.Body, &m.Type, &m.Subtype, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("error getting message by ID: %w", err)
	}
	return m, nil
}
