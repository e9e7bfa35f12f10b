package message

import (
	"database/sql"
	"time"
)

// Type is the kind of a conversation message.
type Type string

const (
	TypeComment          Type = "comment"
	TypeNotification     Type = "notification"
	TypeUserNotification Type = "user_notification"
	TypeWhatsApp         Type = "whatsapp"
)

// Subtype tells whether a message is a public comment or an internal note.
type Subtype string

const (
	SubtypeComment Subtype = "comment"
	SubtypeNote    Subtype = "note"
)

// Message is a conversation message posted on a business record.
// Corresponds to the 'mail_messages' table.
type Message struct {
	ID        int64
	Model     string
	ResID     int64
	AuthorID  sql.NullInt64
	Body      string // plain text
	Type      Type
	Subtype   Subtype
	CreatedAt time.Time
}
