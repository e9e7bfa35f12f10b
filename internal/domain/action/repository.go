package action

import "context"

// Repository defines persistence operations for server actions.
type Repository interface {
	Create(ctx context.Context, a *ServerAction) error
	GetByID(ctx context.Context, id int64) (*ServerAction, error)
	Update(ctx context.Context, a *ServerAction) error
}
