package database

import (
	"context"
	"database/sql"
	"fmt"

	"whatsapp_gateway/internal/domain/action"
)

type PostgresActionRepository struct {
	db DBTX
}

func NewPostgresActionRepository(db DBTX) *PostgresActionRepository {
	return &PostgresActionRepository{db: db}
}

func (r *PostgresActionRepository) Create(ctx context.Context, a *action.ServerAction) error {
	query := `INSERT INTO server_actions (name, model, state, whatsapp_template_id, whatsapp_method)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, a.Name, a.Model, a.State, a.TemplateID, a.Method).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating server action: %w", err)
	}
	return nil
}

func (r *PostgresActionRepository) GetByID(ctx context.Context, id int64) (*action.ServerAction, error) {
	query := `SELECT id, name, model, state, whatsapp_template_id, whatsapp_method, created_at, updated_at
               FROM server_actions WHERE id = $1`
	a := &action.ServerAction{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Model, &a.State, &a.TemplateID, &a.Method, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("error getting server action by ID: %w", err)
	}
	return a, nil
}

func (r *PostgresActionRepository) Update(ctx context.Context, a *action.ServerAction) error {
	query := `UPDATE server_actions
               SET name = $1, model = $2, state = $3, whatsapp_template_id = $4, whatsapp_method = $5, updated_at = NOW()
               WHERE id = $6
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, a.Name, a.Model, a.State, a.TemplateID, a.Method, a.ID).Scan(&a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrActionNotFound
		}
		return fmt.Errorf("error updating server action: %w", err)
	}
	return nil
}
