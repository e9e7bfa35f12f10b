package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotImplemented is returned by the base transport: no WhatsApp
// integration is configured.
var ErrNotImplemented = errors.New("whatsapp: method not implemented")

// Transport delivers outgoing messages and owns their state transitions.
// Implementations live in integration packages holding API credentials.
// They receive the repository of the caller's transaction and must persist
// transitions through Repository.Transition.
type Transport interface {
	Send(ctx context.Context, repo Repository, msgs []*Message) error
	SetError(ctx context.Context, repo Repository, msgs []*Message, failure FailureType) error
	SetOutgoing(ctx context.Context, repo Repository, msgs []*Message) error
	SetCanceled(ctx context.Context, repo Repository, msgs []*Message) error
}

// UnimplementedTransport is the transport in use until an integration is
// registered.
type UnimplementedTransport struct{}

func (UnimplementedTransport) Send(context.Context, Repository, []*Message) error {
	return ErrNotImplemented
}

func (UnimplementedTransport) SetError(context.Context, Repository, []*Message, FailureType) error {
	return ErrNotImplemented
}

func (UnimplementedTransport) SetOutgoing(context.Context, Repository, []*Message) error {
	return ErrNotImplemented
}

func (UnimplementedTransport) SetCanceled(context.Context, Repository, []*Message) error {
	return ErrNotImplemented
}

// TransportRegistry lets integrations register transports by name at
// startup; one of them is selected as active.
type TransportRegistry struct {
	mu        sync.RWMutex
	providers map[string]Transport
	active    string
}

func NewTransportRegistry() *TransportRegistry {
	return &TransportRegistry{providers: make(map[string]Transport)}
}

func (r *TransportRegistry) Register(name string, t Transport) error {
	if name == "" || t == nil {
		return fmt.Errorf("whatsapp: transport name and implementation are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("whatsapp: transport %q already registered", name)
	}
	r.providers[name] = t
	return nil
}

// Select makes the named transport active. An empty name resets to the
// unimplemented transport.
func (r *TransportRegistry) Select(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name != "" {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("whatsapp: unknown transport %q (registered: %v)", name, r.namesLocked())
		}
	}
	r.active = name
	return nil
}

// Active returns the selected transport, or UnimplementedTransport.
func (r *TransportRegistry) Active() Transport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.providers[r.active]; ok {
		return t
	}
	return UnimplementedTransport{}
}

func (r *TransportRegistry) namesLocked() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var defaultTransports = NewTransportRegistry()

// Register makes a transport available by name in the default registry.
// Integration packages call it from init, the way database/sql drivers
// register themselves. It panics when the name is empty or taken.
func Register(name string, t Transport) {
	if err := defaultTransports.Register(name, t); err != nil {
		panic(err)
	}
}

// DefaultTransports returns the registry Register fills.
func DefaultTransports() *TransportRegistry {
	return defaultTransports
}
