package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/whatsapp"
)

func TestDispatchService_ProcessQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tx(t, func(st store.Store) {
		for i := 0; i < 12; i++ {
			require.NoError(t, st.WhatsApp().Create(ctx, &whatsapp.Message{UUID: fmt.Sprintf("uuid-%d", i), Number: fmt.Sprintf("+1555010%02d", i)}))
		}
		require.NoError(t, st.WhatsApp().Create(ctx, &whatsapp.Message{Number: "x", State: whatsapp.StateError}))
	})

	// Without a transport the queue is left untouched.
	picked, err := f.dispatch.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, picked)
	n, err := f.dispatch.QueueLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	tr := &recordingTransport{}
	f.useTransport(t, tr)

	picked, err = f.dispatch.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, picked)
	picked, err = f.dispatch.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, picked)
	picked, err = f.dispatch.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Zero(t, picked)

	assert.Len(t, tr.sent, 12)
	n, err = f.dispatch.QueueLength(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
