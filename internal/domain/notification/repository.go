// internal/domain/notification/repository.go
package notification

import "context"

// Repository defines operations on notification rows.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	BulkCreate(ctx context.Context, ns []*Notification) error
	Update(ctx context.Context, n *Notification) error

	// ListForMessage returns the notifications of type typ on messageID whose
	// recipient is one of partnerIDs, or a partner-less recipient with one of
	// numbers.
	ListForMessage(ctx context.Context, messageID int64, typ Type, partnerIDs []int64, numbers []string) ([]*Notification, error)

	// CountExceptionsByRecord counts, per res_id of model, the notifications
	// of type typ in exception authored by authorID, ignoring user
	// notification messages.
	CountExceptionsByRecord(ctx context.Context, typ Type, authorID int64, model string, resIDs []int64) (map[int64]int, error)

	// CancelByType marks the author's bounced or failed notifications of type
	// typ as canceled and returns how many were changed.
	CancelByType(ctx context.Context, authorID int64, typ Type) (int64, error)
}
