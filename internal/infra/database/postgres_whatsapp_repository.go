package database

import (
	"context"
	"database/sql"
	"fmt"

	"whatsapp_gateway/internal/domain/whatsapp"
)

type PostgresWhatsAppRepository struct {
	db DBTX
}

func NewPostgresWhatsAppRepository(db DBTX) *PostgresWhatsAppRepository {
	return &PostgresWhatsAppRepository{db: db}
}

const whatsappColumns = `id, uuid, number, body, res_partner_id, mail_message_id, state, failure_type, created_at, updated_at`

func (r *PostgresWhatsAppRepository) Create(ctx context.Context, m *whatsapp.Message) error {
	if m.State == "" {
		m.State = whatsapp.StateOutgoing
	}
	query := `INSERT INTO whatsapp_messages (uuid, number, body, res_partner_id, mail_message_id, state, failure_type)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		m.UUID, m.Number, m.Body, m.PartnerID, m.MailMessageID, m.State, m.FailureType,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating whatsapp message: %w", err)
	}
	return nil
}

func (r *PostgresWhatsAppRepository) GetByID(ctx context.Context, id int64) (*whatsapp.Message, error) {
	query := `SELECT ` + whatsappColumns + ` FROM whatsapp_messages WHERE id = $1`
	m, err := scanWhatsAppMessage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrWhatsAppMessageNotFound
		}
		return nil, fmt.Errorf("error getting whatsapp message by ID: %w", err)
	}
	return m, nil
}

func (r *PostgresWhatsAppRepository) ListOutgoing(ctx context.Context, limit int) ([]*whatsapp.Message, error) {
	query := `SELECT ` + whatsappColumns + `
               FROM whatsapp_messages
               WHERE state = $1
               ORDER BY created_at ASC, id ASC
               LIMIT $2
               FOR UPDATE SKIP LOCKED`
	rows, err := r.db.QueryContext(ctx, query, whatsapp.StateOutgoing, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying outgoing whatsapp messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*whatsapp.Message, 0)
	for rows.Next() {
		m, err := scanWhatsAppMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning whatsapp message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating whatsapp message rows: %w", err)
	}
	return msgs, nil
}

func (r *PostgresWhatsAppRepository) CountByState(ctx context.Context, state whatsapp.State) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whatsapp_messages WHERE state = $1`, state).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting whatsapp messages in state %s: %w", state, err)
	}
	return n, nil
}

func (r *PostgresWhatsAppRepository) Transition(ctx context.Context, m *whatsapp.Message, to whatsapp.State, failure whatsapp.FailureType) error {
	if err := whatsapp.CheckTransition(m.State, to); err != nil {
		return err
	}
	query := `UPDATE whatsapp_messages
               SET state = $1, failure_type = $2, updated_at = NOW()
               WHERE id = $3 AND state = $4
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, to, failure, m.ID, m.State).Scan(&m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("whatsapp message %d in state %s: %w", m.ID, m.State, ErrWhatsAppMessageNotFound)
		}
		return fmt.Errorf("error updating whatsapp message state: %w", err)
	}
	m.State = to
	m.FailureType = failure
	return nil
}

func scanWhatsAppMessage(row rowScanner) (*whatsapp.Message, error) {
	m := &whatsapp.Message{}
	err := row.Scan(&m.ID, &m.UUID, &m.Number, &m.Body, &m.PartnerID, &m.MailMessageID,
		&m.State, &m.FailureType, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}
