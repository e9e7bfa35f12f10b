package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"whatsapp_gateway/internal/domain/partner"
)

type PostgresPartnerRepository struct {
	db DBTX
}

func NewPostgresPartnerRepository(db DBTX) *PostgresPartnerRepository {
	return &PostgresPartnerRepository{db: db}
}

func (r *PostgresPartnerRepository) Create(ctx context.Context, p *partner.Partner) error {
	query := `INSERT INTO res_partners (name, mobile, phone, email, country_code)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Mobile, p.Phone, p.Email, p.CountryCode).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating partner: %w", err)
	}
	return nil
}

func (r *PostgresPartnerRepository) GetByID(ctx context.Context, id int64) (*partner.Partner, error) {
	query := `SELECT id, name, mobile, phone, email, country_code, created_at, updated_at
               FROM res_partners WHERE id = $1`
	p := &partner.Partner{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Mobile, &p.Phone, &p.Email, &p.CountryCode, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("error getting partner by ID: %w", err)
	}
	return p, nil
}

func (r *PostgresPartnerRepository) ListByIDs(ctx context.Context, ids []int64) ([]*partner.Partner, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, name, mobile, phone, email, country_code, created_at, updated_at
               FROM res_partners WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying partners by IDs: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*partner.Partner, len(ids))
	for rows.Next() {
		p := &partner.Partner{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Mobile, &p.Phone, &p.Email, &p.CountryCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning partner row: %w", err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partner rows: %w", err)
	}

	// Keep the caller's order.
	partners := make([]*partner.Partner, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			partners = append(partners, p)
		}
	}
	return partners, nil
}
