package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	UnimplementedTransport
}

func (stubTransport) Send(context.Context, Repository, []*Message) error { return nil }

func TestTransportRegistry_SelectAndActive(t *testing.T) {
	r := NewTransportRegistry()
	assert.ErrorIs(t, r.Active().Send(context.Background(), nil, nil), ErrNotImplemented)

	require.NoError(t, r.Register("stub", stubTransport{}))
	assert.Error(t, r.Register("stub", stubTransport{}))
	assert.Error(t, r.Register("", stubTransport{}))
	assert.Error(t, r.Register("nil", nil))

	assert.Error(t, r.Select("missing"))
	require.NoError(t, r.Select("stub"))
	assert.NoError(t, r.Active().Send(context.Background(), nil, nil))

	require.NoError(t, r.Select(""))
	assert.IsType(t, UnimplementedTransport{}, r.Active())
}

func TestRegister_DefaultRegistry(t *testing.T) {
	Register("default-stub", stubTransport{})
	assert.Panics(t, func() { Register("default-stub", stubTransport{}) })

	transports := DefaultTransports()
	require.NoError(t, transports.Select("default-stub"))
	t.Cleanup(func() { _ = transports.Select("") })
	assert.IsType(t, stubTransport{}, transports.Active())
}
