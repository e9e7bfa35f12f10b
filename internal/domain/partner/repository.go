package partner

import "context"

// Repository defines persistence operations for contacts.
type Repository interface {
	Create(ctx context.Context, p *Partner) error
	GetByID(ctx context.Context, id int64) (*Partner, error)
	// ListByIDs returns the contacts in the order of ids, skipping unknown ids.
	ListByIDs(ctx context.Context, ids []int64) ([]*Partner, error)
}
