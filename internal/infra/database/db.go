package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"whatsapp_gateway/internal/domain/action"
	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories work
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the Postgres repositories sharing one DBTX.
type Store struct {
	q          DBTX
	savepoints int

	partners      *PostgresPartnerRepository
	records       *PostgresRecordRepository
	messages      *PostgresMessageRepository
	notifications *PostgresNotificationRepository
	whatsapp      *PostgresWhatsAppRepository
	templates     *PostgresTemplateRepository
	actions       *PostgresActionRepository
}

func NewStore(q DBTX) *Store {
	return &Store{
		q:             q,
		partners:      NewPostgresPartnerRepository(q),
		records:       NewPostgresRecordRepository(q),
		messages:      NewPostgresMessageRepository(q),
		notifications: NewPostgresNotificationRepository(q),
		whatsapp:      NewPostgresWhatsAppRepository(q),
		templates:     NewPostgresTemplateRepository(q),
		actions:       NewPostgresActionRepository(q),
	}
}

func (s *Store) Partners() partner.Repository           { return s.partners }
func (s *Store) Records() thread.Repository             { return s.records }
func (s *Store) Messages() message.Repository           { return s.messages }
func (s *Store) Notifications() notification.Repository { return s.notifications }
func (s *Store) WhatsApp() whatsapp.Repository          { return s.whatsapp }
func (s *Store) Templates() whatsapp.TemplateRepository { return s.templates }
func (s *Store) Actions() action.Repository             { return s.actions }

// Savepoint implements store.Store. Outside a transaction fn runs as is.
func (s *Store) Savepoint(ctx context.Context, fn func(st store.Store) error) (err error) {
	if _, inTx := s.q.(*sql.Tx); !inTx {
		return fn(s)
	}

	s.savepoints++
	name := fmt.Sprintf("sp_%d", s.savepoints)
	if _, err := s.q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("error creating savepoint: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
			panic(p)
		}
	}()

	if err := fn(s); err != nil {
		if _, rbErr := s.q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("error rolling back to savepoint: %v (after %w)", rbErr, err)
		}
		return err
	}
	if _, err := s.q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("error releasing savepoint: %w", err)
	}
	return nil
}

// Transactor implements store.Transactor on a connection pool.
type Transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) InTx(ctx context.Context, fn func(st store.Store) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := fn(NewStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
