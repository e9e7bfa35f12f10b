package thread

import (
	"fmt"
	"sync"

	"whatsapp_gateway/internal/domain/partner"
)

// ModelSpec declares what a record type supports.
type ModelSpec struct {
	Name      string
	Thread    bool // records can receive conversation messages
	Transient bool
	// PhoneFields are the number fields of phone-mixin models, in priority order.
	PhoneFields []string
	// NumberFields, when set, replaces the default WhatsApp number fields.
	NumberFields []string
}

// Registry holds the model specs registered at startup. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]ModelSpec
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]ModelSpec)}
}

// Register adds or replaces a model spec.
func (r *Registry) Register(spec ModelSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("model spec without name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[spec.Name] = spec
	return nil
}

// Lookup returns the spec registered for model.
func (r *Registry) Lookup(model string) (ModelSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.models[model]
	return spec, ok
}

// NumberFields returns the ordered fields to look for a WhatsApp number on
// rec. A record implementing NumberFielder decides for itself. Otherwise the
// default is "mobile" when the record has such a field; phone-mixin models
// put their phone fields first and append the defaults not already listed.
func (r *Registry) NumberFields(rec Record) []string {
	if nf, ok := rec.(NumberFielder); ok {
		return nf.WhatsAppNumberFields()
	}

	spec, _ := r.Lookup(rec.Model())

	var defaults []string
	switch {
	case len(spec.NumberFields) > 0:
		defaults = append(defaults, spec.NumberFields...)
	default:
		if _, ok := rec.Field("mobile"); ok {
			defaults = append(defaults, "mobile")
		}
	}

	if len(spec.PhoneFields) == 0 {
		return defaults
	}

	fields := append([]string(nil), spec.PhoneFields...)
	for _, f := range defaults {
		if !contains(fields, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// DefaultRegistry returns a registry with the contact model registered as a
// phone-mixin model.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(ModelSpec{
		Name:        partner.Model,
		Thread:      true,
		PhoneFields: []string{"mobile", "phone"},
	})
	return r
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
