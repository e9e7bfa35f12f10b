package thread

import "context"

// Repository loads and stores generic business records. Implementations
// populate Document.Partners from Document.PartnerIDs.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	Get(ctx context.Context, model string, id int64) (*Document, error)
	List(ctx context.Context, model string, ids []int64) ([]*Document, error)
}
