// Package store groups the repositories an operation works on inside one
// transaction.
package store

import (
	"context"

	"whatsapp_gateway/internal/domain/action"
	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
)

// Store exposes the repositories bound to one transaction.
type Store interface {
	Partners() partner.Repository
	Records() thread.Repository
	Messages() message.Repository
	Notifications() notification.Repository
	WhatsApp() whatsapp.Repository
	Templates() whatsapp.TemplateRepository
	Actions() action.Repository

	// Savepoint runs fn so that when fn fails or panics only its own writes
	// are undone and the enclosing transaction stays usable.
	Savepoint(ctx context.Context, fn func(st Store) error) error
}

// Transactor runs fn inside a transaction: committed when fn returns nil,
// rolled back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(st Store) error) error
}
