package partner

import "time"

// Model is the model name contacts are registered under.
const Model = "res.partner"

// Partner is a reusable contact that business records link to.
type Partner struct {
	ID          int64
	Name        string
	Mobile      string
	Phone       string
	Email       string
	CountryCode string // ISO 3166-1 alpha-2, used as the phone region
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Model implements thread.Record.
func (p *Partner) Model() string { return Model }

// RecordID implements thread.Record.
func (p *Partner) RecordID() int64 { return p.ID }

// Field returns the value of a named contact field.
func (p *Partner) Field(name string) (string, bool) {
	switch name {
	case "name":
		return p.Name, true
	case "mobile":
		return p.Mobile, true
	case "phone":
		return p.Phone, true
	case "email":
		return p.Email, true
	}
	return "", false
}

// Country implements thread.CountryCoder.
func (p *Partner) Country() string { return p.CountryCode }

// FieldNames implements thread.FieldLister.
func (p *Partner) FieldNames() []string {
	return []string{"name", "mobile", "phone", "email"}
}

// LinkedPartners implements thread.PartnerLinker: a contact is its own
// default recipient.
func (p *Partner) LinkedPartners() []*Partner { return []*Partner{p} }
