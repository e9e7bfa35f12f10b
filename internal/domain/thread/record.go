// Package thread describes the business records conversation messages are
// posted on, and the capabilities a record type may declare.
package thread

import "whatsapp_gateway/internal/domain/partner"

// Record is any business document that can receive a conversation message.
type Record interface {
	Model() string
	RecordID() int64
	// Field returns the value of a named field and whether the record type
	// has that field at all.
	Field(name string) (string, bool)
}

// NumberFielder is implemented by records declaring their own ordered list
// of phone-bearing fields.
type NumberFielder interface {
	WhatsAppNumberFields() []string
}

// PartnerLinker is implemented by records linked to contacts.
type PartnerLinker interface {
	LinkedPartners() []*partner.Partner
}

// CountryCoder is implemented by records carrying a country, used as the
// default region when sanitizing their numbers.
type CountryCoder interface {
	Country() string
}

// FieldLister is implemented by records able to enumerate their fields.
type FieldLister interface {
	FieldNames() []string
}

// LinkedPartners returns the contacts linked to r, or nil when r has no
// contact linkage.
func LinkedPartners(r Record) []*partner.Partner {
	if pl, ok := r.(PartnerLinker); ok {
		return pl.LinkedPartners()
	}
	return nil
}

// Country returns the country of r, or "" when r declares none.
func Country(r Record) string {
	if cc, ok := r.(CountryCoder); ok {
		return cc.Country()
	}
	return ""
}
