package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
	"whatsapp_gateway/internal/infra/database"
)

func TestDB_RollbackRestoresState(t *testing.T) {
	db := New()
	ctx := context.Background()

	boom := errors.New("boom")
	var created int64
	err := db.InTx(ctx, func(st store.Store) error {
		p := &partner.Partner{Name: "Alice"}
		require.NoError(t, st.Partners().Create(ctx, p))
		created = p.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = db.InTx(ctx, func(st store.Store) error {
		_, err := st.Partners().GetByID(ctx, created)
		return err
	})
	assert.ErrorIs(t, err, database.ErrPartnerNotFound)
}

func TestDB_RecordLoadsPartners(t *testing.T) {
	db := New()
	ctx := context.Background()

	require.NoError(t, db.InTx(ctx, func(st store.Store) error {
		p := &partner.Partner{Name: "Bob", Mobile: "+1 555-0200"}
		require.NoError(t, st.Partners().Create(ctx, p))

		d := &thread.Document{ModelName: "crm.lead", Name: "Lead", PartnerIDs: []int64{p.ID}}
		require.NoError(t, st.Records().Create(ctx, d))

		got, err := st.Records().Get(ctx, "crm.lead", d.ID)
		require.NoError(t, err)
		require.Len(t, got.Partners, 1)
		assert.Equal(t, "Bob", got.Partners[0].Name)

		_, err = st.Records().Get(ctx, "other.model", d.ID)
		assert.ErrorIs(t, err, database.ErrRecordNotFound)
		return nil
	}))
}

func TestDB_NotificationQueries(t *testing.T) {
	db := New()
	ctx := context.Background()
	author := sql.NullInt64{Int64: 7, Valid: true}

	require.NoError(t, db.InTx(ctx, func(st store.Store) error {
		msg := &message.Message{Model: "crm.lead", ResID: 1, AuthorID: author, Type: message.TypeWhatsApp}
		require.NoError(t, st.Messages().Create(ctx, msg))

		require.NoError(t, st.Notifications().BulkCreate(ctx, []*notification.Notification{
			{AuthorID: author, MessageID: msg.ID, WhatsAppNumber: "bad", Type: notification.TypeWhatsApp, Status: notification.StatusException},
			{AuthorID: author, MessageID: msg.ID, PartnerID: sql.NullInt64{Int64: 99, Valid: true}, Type: notification.TypeWhatsApp, Status: notification.StatusReady},
		}))

		found, err := st.Notifications().ListForMessage(ctx, msg.ID, notification.TypeWhatsApp, []int64{99}, []string{"bad"})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		counts, err := st.Notifications().CountExceptionsByRecord(ctx, notification.TypeWhatsApp, 7, "crm.lead", []int64{1, 2})
		require.NoError(t, err)
		assert.Equal(t, map[int64]int{1: 1}, counts)

		n, err := st.Notifications().CancelByType(ctx, 7, notification.TypeWhatsApp)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	}))
}

func TestDB_ListOutgoingOldestFirst(t *testing.T) {
	db := New()
	ctx := context.Background()

	require.NoError(t, db.InTx(ctx, func(st store.Store) error {
		for _, num := range []string{"+1", "+2", "+3"} {
			require.NoError(t, st.WhatsApp().Create(ctx, &whatsapp.Message{Number: num}))
		}
		msgs, err := st.WhatsApp().ListOutgoing(ctx, 2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "+1", msgs[0].Number)

		require.NoError(t, st.WhatsApp().Transition(ctx, msgs[0], whatsapp.StateCanceled, whatsapp.FailureNone))
		msgs, err = st.WhatsApp().ListOutgoing(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
		return nil
	}))
}

func TestDB_RecordFieldsAreCopied(t *testing.T) {
	db := New()
	ctx := context.Background()

	d := &thread.Document{ModelName: "crm.lead", Name: "Lead", Fields: map[string]string{"phone": "+1 555-0100"}}
	require.NoError(t, db.InTx(ctx, func(st store.Store) error {
		return st.Records().Create(ctx, d)
	}))
	d.Fields["phone"] = "changed by caller"

	boom := errors.New("boom")
	err := db.InTx(ctx, func(st store.Store) error {
		got, err := st.Records().Get(ctx, "crm.lead", d.ID)
		require.NoError(t, err)
		assert.Equal(t, "+1 555-0100", got.Fields["phone"])
		got.Fields["phone"] = "changed by reader"
		got.Fields["mobile"] = "+1 555-0101"

		again, err := st.Records().Get(ctx, "crm.lead", d.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"phone": "+1 555-0100"}, again.Fields)
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, db.InTx(ctx, func(st store.Store) error {
		got, err := st.Records().Get(ctx, "crm.lead", d.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"phone": "+1 555-0100"}, got.Fields)
		return nil
	}))
}

func TestDB_SavepointUndoesOnlyItsWrites(t *testing.T) {
	db := New()
	ctx := context.Background()

	boom := errors.New("boom")
	var kept, undone int64
	require.NoError(t, db.InTx(ctx, func(st store.Store) error {
		p := &partner.Partner{Name: "Kept"}
		require.NoError(t, st.Partners().Create(ctx, p))
		kept = p.ID

		err := st.Savepoint(ctx, func(sp store.Store) error {
			q := &partner.Partner{Name: "Undone"}
			require.NoError(t, sp.Partners().Create(ctx, q))
			undone = q.ID
			return boom
		})
		assert.ErrorIs(t, err, boom)

		assert.Panics(t, func() {
			_ = st.Savepoint(ctx, func(sp store.Store) error {
				require.NoError(t, sp.Partners().Create(ctx, &partner.Partner{Name: "Panicked"}))
				panic("transport blew up")
			})
		})
		return nil
	}))

	require.NoError(t, db.InTx(ctx, func(st store.Store) error {
		p, err := st.Partners().GetByID(ctx, kept)
		require.NoError(t, err)
		assert.Equal(t, "Kept", p.Name)

		_, err = st.Partners().GetByID(ctx, undone)
		assert.ErrorIs(t, err, database.ErrPartnerNotFound)
		return nil
	}))
}
