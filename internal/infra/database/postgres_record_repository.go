package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"whatsapp_gateway/internal/domain/thread"
)

type PostgresRecordRepository struct {
	db       DBTX
	partners *PostgresPartnerRepository
}

func NewPostgresRecordRepository(db DBTX) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db, partners: NewPostgresPartnerRepository(db)}
}

func (r *PostgresRecordRepository) Create(ctx context.Context, d *thread.Document) error {
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("error encoding record fields: %w", err)
	}
	query := `INSERT INTO thread_records (model, name, fields, partner_ids, country_code)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, d.ModelName, d.Name, fields, pq.Array(d.PartnerIDs), d.CountryCode).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating record: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) Get(ctx context.Context, model string, id int64) (*thread.Document, error) {
	query := `SELECT id, model, name, fields, partner_ids, country_code, created_at, updated_at
               FROM thread_records WHERE model = $1 AND id = $2`
	d, err := scanRecord(r.db.QueryRowContext(ctx, query, model, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting record %s/%d: %w", model, id, err)
	}
	if err := r.loadPartners(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PostgresRecordRepository) List(ctx context.Context, model string, ids []int64) ([]*thread.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, model, name, fields, partner_ids, country_code, created_at, updated_at
               FROM thread_records WHERE model = $1 AND id = ANY($2) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, model, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	docs := make([]*thread.Document, 0, len(ids))
	for rows.Next() {
		d, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning record row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	rows.Close()

	for _, d := range docs {
		if err := r.loadPartners(ctx, d); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*thread.Document, error) {
	d := &thread.Document{}
	var fields []byte
	if err := row.Scan(&d.ID, &d.ModelName, &d.Name, &fields, pq.Array(&d.PartnerIDs), &d.CountryCode, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &d.Fields); err != nil {
			return nil, fmt.Errorf("error decoding record fields: %w", err)
		}
	}
	return d, nil
}

func (r *PostgresRecordRepository) loadPartners(ctx context.Context, d *thread.Document) error {
	partners, err := r.partners.ListByIDs(ctx, d.PartnerIDs)
	if err != nil {
		return fmt.Errorf("error loading partners of record %s/%d: %w", d.ModelName, d.ID, err)
	}
	d.Partners = partners
	return nil
}
