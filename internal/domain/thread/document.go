package thread

import (
	"sort"
	"time"

	"whatsapp_gateway/internal/domain/partner"
)

// Document is the generic stored form of a business record.
// Corresponds to the 'thread_records' table.
type Document struct {
	ID          int64
	ModelName   string
	Name        string
	Fields      map[string]string // a key present with "" is a set-but-empty field
	PartnerIDs  []int64
	Partners    []*partner.Partner // loaded from PartnerIDs, in order
	CountryCode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (d *Document) Model() string   { return d.ModelName }
func (d *Document) RecordID() int64 { return d.ID }

func (d *Document) Field(name string) (string, bool) {
	if name == "name" {
		return d.Name, true
	}
	v, ok := d.Fields[name]
	return v, ok
}

func (d *Document) LinkedPartners() []*partner.Partner { return d.Partners }

func (d *Document) Country() string { return d.CountryCode }

// FieldNames returns "name" followed by the stored fields in sorted order.
func (d *Document) FieldNames() []string {
	names := make([]string, 0, len(d.Fields)+1)
	names = append(names, "name")
	for k := range d.Fields {
		if k != "name" {
			names = append(names, k)
		}
	}
	sort.Strings(names[1:])
	return names
}
