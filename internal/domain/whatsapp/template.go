package whatsapp

import "time"

// Template is a reusable message body bound to one model.
// Corresponds to the 'whatsapp_templates' table.
type Template struct {
	ID          int64
	Name        string
	Model       string
	Body        string // Go text/template source
	DefaultBody string // body shipped with the module, restored by a reset
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
