// Package phone declares the number sanitization capability.
package phone

// Result is the outcome of sanitizing one raw number.
type Result struct {
	Sanitized string // canonical E.164 form, "" when sanitization failed
	Code      string // failure code, "" on success
	Msg       string
}

// OK reports whether the number was sanitized.
func (r Result) OK() bool { return r.Sanitized != "" }

// Failure codes.
const (
	CodeEmpty   = "empty"
	CodeInvalid = "invalid"
)

// Sanitizer normalizes raw phone strings. region is an ISO 3166-1 alpha-2
// code used for numbers written without a country prefix; it may be empty.
type Sanitizer interface {
	SanitizeNumbers(numbers []string, region string) map[string]Result
}

// Sanitize is a convenience for a single number.
func Sanitize(s Sanitizer, number, region string) Result {
	return s.SanitizeNumbers([]string{number}, region)[number]
}
