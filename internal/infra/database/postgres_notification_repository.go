// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq" // For pq.Array

	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
)

type PostgresNotificationRepository struct {
	db DBTX
}

func NewPostgresNotificationRepository(db DBTX) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

const notificationColumns = `id, author_id, mail_message_id, res_partner_id, whatsapp_number, notification_type,
               notification_status, failure_type, whatsapp_message_id, is_read, created_at, updated_at`

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `INSERT INTO mail_notifications (author_id, mail_message_id, res_partner_id, whatsapp_number,
                   notification_type, notification_status, failure_type, whatsapp_message_id, is_read)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		n.AuthorID, n.MessageID, n.PartnerID, n.WhatsAppNumber,
		n.Type, n.Status, n.FailureType, n.WhatsAppID, n.IsRead,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) BulkCreate(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	stmt, err := r.db.PrepareContext(ctx, `INSERT INTO mail_notifications (author_id, mail_message_id, res_partner_id, whatsapp_number,
                   notification_type, notification_status, failure_type, whatsapp_message_id, is_read)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING id, created_at, updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for bulk create: %w", err)
	}
	defer stmt.Close()

	for _, n := range ns {
		err := stmt.QueryRowContext(ctx,
			n.AuthorID, n.MessageID, n.PartnerID, n.WhatsAppNumber,
			n.Type, n.Status, n.FailureType, n.WhatsAppID, n.IsRead,
		).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error executing statement for bulk create (message %d, partner %v, number %q): %w",
				n.MessageID, n.PartnerID.Int64, n.WhatsAppNumber, err)
		}
	}
	return nil
}

func (r *PostgresNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	query := `UPDATE mail_notifications
               SET whatsapp_number = $1, notification_type = $2, notification_status = $3,
                   failure_type = $4, whatsapp_message_id = $5, is_read = $6, updated_at = NOW()
               WHERE id = $7
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		n.WhatsAppNumber, n.Type, n.Status, n.FailureType, n.WhatsAppID, n.IsRead, n.ID,
	).Scan(&n.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("error updating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListForMessage(ctx context.Context, messageID int64, typ notification.Type, partnerIDs []int64, numbers []string) ([]*notification.Notification, error) {
	if len(partnerIDs) == 0 && len(numbers) == 0 {
		return nil, nil
	}
	query := `SELECT ` + notificationColumns + `
               FROM mail_notifications
               WHERE mail_message_id = $1 AND notification_type = $2
                 AND (res_partner_id = ANY($3) OR (res_partner_id IS NULL AND whatsapp_number = ANY($4)))
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, messageID, typ, pq.Array(partnerIDs), pq.Array(numbers))
	if err != nil {
		return nil, fmt.Errorf("error querying notifications for message: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *PostgresNotificationRepository) CountExceptionsByRecord(ctx context.Context, typ notification.Type, authorID int64, model string, resIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	if len(resIDs) == 0 {
		return counts, nil
	}
	query := `SELECT m.res_id, COUNT(*)
               FROM mail_notifications n
               JOIN mail_messages m ON m.id = n.mail_message_id
               WHERE n.notification_type = $1
                 AND n.notification_status = $2
                 AND n.author_id = $3
                 AND m.model = $4
                 AND m.res_id = ANY($5)
                 AND m.message_type != $6
               GROUP BY m.res_id`
	rows, err := r.db.QueryContext(ctx, query, typ, notification.StatusException, authorID, model, pq.Array(resIDs), message.TypeUserNotification)
	if err != nil {
		return nil, fmt.Errorf("error counting notification exceptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var resID int64
		var n int
		if err := rows.Scan(&resID, &n); err != nil {
			return nil, fmt.Errorf("error scanning exception count row: %w", err)
		}
		counts[resID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exception count rows: %w", err)
	}
	return counts, nil
}

func (r *PostgresNotificationRepository) CancelByType(ctx context.Context, authorID int64, typ notification.Type) (int64, error) {
	query := `UPDATE mail_notifications
               SET notification_status = $1, updated_at = NOW()
               WHERE author_id = $2 AND notification_type = $3
                 AND notification_status = ANY($4)`
	res, err := r.db.ExecContext(ctx, query, notification.StatusCanceled, authorID, typ,
		pq.Array([]string{string(notification.StatusBounce), string(notification.StatusException)}))
	if err != nil {
		return 0, fmt.Errorf("error canceling notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading canceled notification count: %w", err)
	}
	return n, nil
}

// Helper to scan multiple rows
func scanNotifications(rows *sql.Rows) ([]*notification.Notification, error) {
	ns := make([]*notification.Notification, 0)
	for rows.Next() {
		n := notification.Notification{}
		if err := rows.Scan(
			&n.ID, &n.AuthorID, &n.MessageID, &n.PartnerID, &n.WhatsAppNumber, &n.Type,
			&n.Status, &n.FailureType, &n.WhatsAppID, &n.IsRead, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		ns = append(ns, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return ns, nil
}
