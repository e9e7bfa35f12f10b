package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/whatsapp"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var partnerCols = []string{"id", "name", "mobile", "phone", "email", "country_code", "created_at", "updated_at"}

func TestPartnerRepository_ListByIDsKeepsOrder(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM res_partners WHERE id = ANY`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(partnerCols).
			AddRow(1, "Alice", "+15550100", "", "", "US", now, now).
			AddRow(3, "Carol", "", "+15550300", "", "US", now, now))

	partners, err := NewPostgresPartnerRepository(db).ListByIDs(context.Background(), []int64{3, 2, 1})
	require.NoError(t, err)
	require.Len(t, partners, 2)
	assert.Equal(t, int64(3), partners[0].ID)
	assert.Equal(t, int64(1), partners[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPartnerRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`FROM res_partners WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := NewPostgresPartnerRepository(db).GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrPartnerNotFound)
}

func TestRecordRepository_GetLoadsFieldsAndPartners(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM thread_records WHERE model = \$1 AND id = \$2`).
		WithArgs("crm.lead", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "model", "name", "fields", "partner_ids", "country_code", "created_at", "updated_at"}).
			AddRow(7, "crm.lead", "Lead", []byte(`{"mobile":""}`), []byte(`{5}`), "BE", now, now))
	mock.ExpectQuery(`FROM res_partners WHERE id = ANY`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(partnerCols).AddRow(5, "Bob", "+1 555-0200", "", "", "US", now, now))

	d, err := NewPostgresRecordRepository(db).Get(context.Background(), "crm.lead", 7)
	require.NoError(t, err)

	v, ok := d.Field("mobile")
	assert.True(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, []int64{5}, d.PartnerIDs)
	require.Len(t, d.Partners, 1)
	assert.Equal(t, "Bob", d.Partners[0].Name)
	assert.Equal(t, "BE", d.Country())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CancelByType(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(`UPDATE mail_notifications`).
		WithArgs(notification.StatusCanceled, int64(3), notification.TypeWhatsApp, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewPostgresNotificationRepository(db).CancelByType(context.Background(), 3, notification.TypeWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CountExceptionsByRecord(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`GROUP BY m.res_id`).
		WillReturnRows(sqlmock.NewRows([]string{"res_id", "count"}).AddRow(10, 2))

	counts, err := NewPostgresNotificationRepository(db).CountExceptionsByRecord(context.Background(), notification.TypeWhatsApp, 1, "crm.lead", []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{10: 2}, counts)
}

func TestWhatsAppRepository_Transition(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresWhatsAppRepository(db)
	now := time.Now()

	m := &whatsapp.Message{ID: 9, State: whatsapp.StateOutgoing}
	mock.ExpectQuery(`UPDATE whatsapp_messages`).
		WithArgs(whatsapp.StateSent, whatsapp.FailureNone, int64(9), whatsapp.StateOutgoing).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	require.NoError(t, repo.Transition(context.Background(), m, whatsapp.StateSent, whatsapp.FailureNone))
	assert.Equal(t, whatsapp.StateSent, m.State)

	// sent -> canceled never reaches the database.
	err := repo.Transition(context.Background(), m, whatsapp.StateCanceled, whatsapp.FailureNone)
	assert.ErrorIs(t, err, whatsapp.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_InTx(t *testing.T) {
	db, mock := newMock(t)
	tr := NewTransactor(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE whatsapp_templates`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tr.InTx(context.Background(), func(st store.Store) error {
		n, err := st.Templates().Reset(context.Background(), []int64{1})
		assert.Equal(t, int64(1), n)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = tr.InTx(context.Background(), func(store.Store) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SavepointRollsBackOnlyItsWrites(t *testing.T) {
	db, mock := newMock(t)
	tr := NewTransactor(db)
	ctx := context.Background()

	boom := errors.New("transport down")
	mock.ExpectBegin()
	mock.ExpectExec(`SAVEPOINT sp_1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`UPDATE whatsapp_messages`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(`ROLLBACK TO SAVEPOINT sp_1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SAVEPOINT sp_2`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`RELEASE SAVEPOINT sp_2`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := tr.InTx(ctx, func(st store.Store) error {
		err := st.Savepoint(ctx, func(sp store.Store) error {
			m := &whatsapp.Message{ID: 9, State: whatsapp.StateOutgoing}
			require.NoError(t, sp.WhatsApp().Transition(ctx, m, whatsapp.StateSent, whatsapp.FailureNone))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		return st.Savepoint(ctx, func(store.Store) error { return nil })
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SavepointRollsBackOnPanic(t *testing.T) {
	db, mock := newMock(t)
	tr := NewTransactor(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`SAVEPOINT sp_1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`ROLLBACK TO SAVEPOINT sp_1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tr.InTx(ctx, func(st store.Store) error {
			return st.Savepoint(ctx, func(store.Store) error { panic("boom") })
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
