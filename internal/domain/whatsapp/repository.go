package whatsapp

import "context"

// Repository defines persistence operations for outgoing messages.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	// ListOutgoing returns up to limit queued messages, oldest first.
	ListOutgoing(ctx context.Context, limit int) ([]*Message, error)
	CountByState(ctx context.Context, state State) (int, error)
	// Transition moves m to state to, checking CheckTransition, and updates m.
	Transition(ctx context.Context, m *Message, to State, failure FailureType) error
}

// TemplateRepository defines persistence operations for templates.
type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id int64) (*Template, error)
	// Reset restores the default body of the given templates and returns how
	// many were changed.
	Reset(ctx context.Context, ids []int64) (int64, error)
}
