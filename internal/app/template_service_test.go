package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
)

func TestTemplateService_Render(t *testing.T) {
	s := NewTemplateService(testLogger())
	lead := &thread.Document{ID: 12, ModelName: leadModel, Name: "Big deal", Fields: map[string]string{"stage": "won"}}

	out, err := s.Render(&whatsapp.Template{ID: 1, Model: leadModel, Body: `{{.Model}}#{{.ID}} {{.Name}} is {{.Record.stage}}{{field "missing"}}`}, lead)
	require.NoError(t, err)
	assert.Equal(t, "crm.lead#12 Big deal is won", out)

	contact := &partner.Partner{ID: 3, Name: "Ann", Mobile: "+1 555-0100"}
	out, err = s.Render(&whatsapp.Template{ID: 2, Model: partner.Model, Body: `Hi {{.Name}} ({{field "mobile"}})`}, contact)
	require.NoError(t, err)
	assert.Equal(t, "Hi Ann (+1 555-0100)", out)

	_, err = s.Render(&whatsapp.Template{ID: 2, Model: partner.Model, Body: "x"}, lead)
	assert.ErrorIs(t, err, ErrTemplateModelMismatch)

	_, err = s.Render(&whatsapp.Template{ID: 4, Body: "{{.Broken"}, lead)
	assert.Error(t, err)
}

func TestTemplateService_Reset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tx(t, func(st store.Store) {
		edited := &whatsapp.Template{Name: "a", Model: leadModel, Body: "edited", DefaultBody: "original"}
		pristine := &whatsapp.Template{Name: "b", Model: leadModel, Body: "same"}
		require.NoError(t, st.Templates().Create(ctx, edited))
		require.NoError(t, st.Templates().Create(ctx, pristine))

		n, err := f.templates.Reset(ctx, st, []int64{edited.ID, pristine.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := st.Templates().GetByID(ctx, edited.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", got.Body)

		n, err = f.templates.Reset(ctx, st, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
