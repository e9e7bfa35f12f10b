package message

import "context"

// Repository defines persistence operations for conversation messages.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
}
