// Package phone sanitizes phone numbers with libphonenumber.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	domainphone "whatsapp_gateway/internal/domain/phone"
)

// Mode selects how strict sanitization is.
type Mode string

const (
	// ModeParse accepts anything libphonenumber can parse.
	ModeParse Mode = "parse"
	// ModePossible also requires a plausible length for the region.
	ModePossible Mode = "possible"
	// ModeValid requires a number from an allocated range.
	ModeValid Mode = "valid"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeParse, nil
	case ModeParse, ModePossible, ModeValid:
		return m, nil
	default:
		return "", fmt.Errorf("unknown phone validation mode %q", s)
	}
}

// Sanitizer formats numbers to E.164.
type Sanitizer struct {
	mode          Mode
	defaultRegion string
}

// NewSanitizer returns a Sanitizer. defaultRegion is used when a call
// passes no region.
func NewSanitizer(mode Mode, defaultRegion string) *Sanitizer {
	if mode == "" {
		mode = ModeParse
	}
	return &Sanitizer{mode: mode, defaultRegion: strings.ToUpper(defaultRegion)}
}

// SanitizeNumbers implements phone.Sanitizer.
func (s *Sanitizer) SanitizeNumbers(numbers []string, region string) map[string]domainphone.Result {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = s.defaultRegion
	}

	results := make(map[string]domainphone.Result, len(numbers))
	for _, raw := range numbers {
		if _, done := results[raw]; done {
			continue
		}
		results[raw] = s.sanitize(raw, region)
	}
	return results
}

func (s *Sanitizer) sanitize(raw, region string) domainphone.Result {
	number := strings.TrimSpace(raw)
	if number == "" {
		return domainphone.Result{Code: domainphone.CodeEmpty, Msg: "no number"}
	}

	num, err := phonenumbers.Parse(number, region)
	if err != nil {
		return domainphone.Result{Code: domainphone.CodeInvalid, Msg: err.Error()}
	}

	switch s.mode {
	case ModePossible:
		if !phonenumbers.IsPossibleNumber(num) {
			return domainphone.Result{Code: domainphone.CodeInvalid, Msg: "impossible number"}
		}
	case ModeValid:
		if !phonenumbers.IsValidNumber(num) {
			return domainphone.Result{Code: domainphone.CodeInvalid, Msg: "invalid number"}
		}
	}

	return domainphone.Result{Sanitized: phonenumbers.Format(num, phonenumbers.E164)}
}
