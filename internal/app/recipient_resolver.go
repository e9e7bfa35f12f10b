package app

import (
	"context"

	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/phone"
	"whatsapp_gateway/internal/domain/thread"
)

// RecipientInfo is the WhatsApp destination computed for one record.
type RecipientInfo struct {
	RecordID int64
	// Partner is the contact linked to the recipient, nil when none.
	Partner *partner.Partner
	// Sanitized is the number to use, "" when no number could be sanitized.
	Sanitized string
	// Number is the raw value before sanitization.
	Number string
	// PartnerStore is true when the number comes from the contact rather
	// than from the record itself.
	PartnerStore bool
	// FieldStore is the field the number was read from.
	FieldStore string
}

// Destination returns the sanitized number, or the raw one.
func (i RecipientInfo) Destination() string {
	if i.Sanitized != "" {
		return i.Sanitized
	}
	return i.Number
}

// RecipientResolver finds the WhatsApp number of business records.
type RecipientResolver struct {
	models    *thread.Registry
	sanitizer phone.Sanitizer
}

func NewRecipientResolver(models *thread.Registry, sanitizer phone.Sanitizer) *RecipientResolver {
	return &RecipientResolver{models: models, sanitizer: sanitizer}
}

// Resolve returns one RecipientInfo per record, keyed by record id.
//
// Numbers are looked up in forceField when given, otherwise in the record's
// number fields. When none sanitizes and partnerFallback is set, the linked
// contacts are tried in order. Failing that, the first non-empty raw value
// is returned unsanitized.
func (r *RecipientResolver) Resolve(ctx context.Context, records []thread.Record, forceField string, partnerFallback bool) map[int64]RecipientInfo {
	result := make(map[int64]RecipientInfo, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		result[rec.RecordID()] = r.resolveOne(rec, forceField, partnerFallback)
	}
	return result
}

func (r *RecipientResolver) resolveOne(rec thread.Record, forceField string, partnerFallback bool) RecipientInfo {
	fields := []string{forceField}
	if forceField == "" {
		fields = r.models.NumberFields(rec)
	}
	region := thread.Country(rec)
	partners := thread.LinkedPartners(rec)

	info := RecipientInfo{RecordID: rec.RecordID()}

	for _, f := range fields {
		value, ok := rec.Field(f)
		if !ok || value == "" {
			continue
		}
		if res := phone.Sanitize(r.sanitizer, value, region); res.OK() {
			info.Sanitized = res.Sanitized
			info.Number = value
			info.FieldStore = f
			if len(partners) > 0 {
				info.Partner = partners[0]
			}
			return info
		}
	}

	if len(partners) > 0 && partnerFallback {
		return r.resolveFromPartners(info, partners, region)
	}

	// Keep the first raw value so the failure stays visible to the user.
	for _, f := range fields {
		if value, ok := rec.Field(f); ok && value != "" {
			info.Number = value
			info.FieldStore = f
			return info
		}
	}
	if len(fields) > 0 {
		info.FieldStore = fields[0]
	}
	return info
}

func (r *RecipientResolver) resolveFromPartners(info RecipientInfo, partners []*partner.Partner, region string) RecipientInfo {
	info.PartnerStore = true

	var last *partner.Partner
	for _, p := range partners {
		last = p
		for _, f := range r.models.NumberFields(p) {
			value, _ := p.Field(f)
			if value == "" {
				continue
			}
			if res := phone.Sanitize(r.sanitizer, value, partnerRegion(p, region)); res.OK() {
				info.Partner = p
				info.Sanitized = res.Sanitized
				info.Number = value
				info.FieldStore = f
				return info
			}
		}
	}

	// Label the absent value: mobile if set, else phone if set, else mobile.
	field := "mobile"
	if last.Mobile == "" {
		if last.Phone != "" {
			field = "phone"
		} else {
			field = "mobile"
		}
	}
	info.Partner = last
	info.FieldStore = field
	info.Number, _ = last.Field(field)
	return info
}

func partnerRegion(p *partner.Partner, fallback string) string {
	if p.CountryCode != "" {
		return p.CountryCode
	}
	return fallback
}
