package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"whatsapp_gateway/internal/domain/whatsapp"
)

type PostgresTemplateRepository struct {
	db DBTX
}

func NewPostgresTemplateRepository(db DBTX) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

func (r *PostgresTemplateRepository) Create(ctx context.Context, t *whatsapp.Template) error {
	if t.DefaultBody == "" {
		t.DefaultBody = t.Body
	}
	query := `INSERT INTO whatsapp_templates (name, model, body, default_body, active)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, t.Name, t.Model, t.Body, t.DefaultBody, t.Active).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating whatsapp template: %w", err)
	}
	return nil
}

func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id int64) (*whatsapp.Template, error) {
	query := `SELECT id, name, model, body, default_body, active, created_at, updated_at
               FROM whatsapp_templates WHERE id = $1`
	t := &whatsapp.Template{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Model, &t.Body, &t.DefaultBody, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("error getting whatsapp template by ID: %w", err)
	}
	return t, nil
}

func (r *PostgresTemplateRepository) Reset(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE whatsapp_templates
               SET body = default_body, updated_at = NOW()
               WHERE id = ANY($1) AND body IS DISTINCT FROM default_body`
	res, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error resetting whatsapp templates: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading reset template count: %w", err)
	}
	return n, nil
}
