// internal/domain/notification/status.go
package notification

import (
	"database/sql"
	"time"
)

// Notification tracks the delivery of one conversation message to one
// recipient. Corresponds to the 'mail_notifications' table.
//
// A recipient is identified by PartnerID, or by WhatsAppNumber when no
// partner applies; at most one notification exists per message and identity.
type Notification struct {
	ID             int64
	AuthorID       sql.NullInt64
	MessageID      int64         // Foreign Key to mail_messages.id
	PartnerID      sql.NullInt64 // Foreign Key to res_partners.id
	WhatsAppNumber string        // raw or sanitized number for partner-less recipients
	Type           Type
	Status         Status
	FailureType    string
	WhatsAppID     sql.NullInt64 // Foreign Key to whatsapp_messages.id
	IsRead         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPartner reports whether the recipient is a contact.
func (n *Notification) HasPartner() bool { return n.PartnerID.Valid }
