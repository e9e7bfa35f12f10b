// Package whatsapp holds the outgoing WhatsApp message record, its state
// machine, templates and the transport extension point.
package whatsapp

import (
	"database/sql"
	"time"
)

// FailureType explains why a message could not be delivered.
type FailureType string

const (
	FailureNone          FailureType = ""
	FailureNumberMissing FailureType = "whatsapp_number_missing"
	FailureNumberFormat  FailureType = "whatsapp_number_format"
	FailureServer        FailureType = "whatsapp_server"
)

// Message is one queued unit of WhatsApp content bound to one number.
// Corresponds to the 'whatsapp_messages' table.
type Message struct {
	ID            int64
	UUID          string // correlation id handed to the transport
	Number        string
	Body          string
	PartnerID     sql.NullInt64
	MailMessageID sql.NullInt64
	State         State
	FailureType   FailureType
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Outgoing filters msgs down to those still waiting in the queue.
func Outgoing(msgs []*Message) []*Message {
	var out []*Message
	for _, m := range msgs {
		if m.State == StateOutgoing {
			out = append(out, m)
		}
	}
	return out
}
