// internal/domain/notification/shared_types.go
package notification

// Type is the delivery channel of a notification.
type Type string

const (
	TypeInbox    Type = "inbox"
	TypeEmail    Type = "email"
	TypeWhatsApp Type = "whatsapp"
)

// Status is the delivery status of a notification.
type Status string

const (
	StatusReady     Status = "ready"
	StatusSent      Status = "sent"
	StatusBounce    Status = "bounce"
	StatusException Status = "exception"
	StatusCanceled  Status = "canceled"
)

// Cancelable reports whether a notification in status s can be dismissed
// by its author.
func (s Status) Cancelable() bool {
	return s == StatusBounce || s == StatusException
}
