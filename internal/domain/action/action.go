// Package action holds the server actions run by the automation engine.
package action

import (
	"database/sql"
	"fmt"
	"time"
)

// State is what a server action does when triggered.
type State string

const (
	StateCode        State = "code"
	StateObjectWrite State = "object_write"
	StateEmail       State = "email"
	StateWhatsApp    State = "whatsapp"
)

// Method is how a whatsapp action delivers its message.
type Method string

const (
	MethodNone     Method = ""
	MethodWhatsApp Method = "whatsapp" // outgoing messages only, no log
	MethodComment  Method = "comment"  // post as a message
	MethodNote     Method = "note"     // post as a note
)

func (m Method) Valid() bool {
	switch m {
	case MethodNone, MethodWhatsApp, MethodComment, MethodNote:
		return true
	}
	return false
}

// ServerAction corresponds to the 'server_actions' table.
type ServerAction struct {
	ID         int64
	Name       string
	Model      string
	State      State
	TemplateID sql.NullInt64 // Foreign Key to whatsapp_templates.id
	Method     Method
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidationError reports an action configuration that cannot run.
type ValidationError struct {
	ActionID int64
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.ActionID == 0 {
		return fmt.Sprintf("invalid server action: %s", e.Reason)
	}
	return fmt.Sprintf("invalid server action %d: %s", e.ActionID, e.Reason)
}
