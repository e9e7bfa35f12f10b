package app

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
	"whatsapp_gateway/internal/infra/memory"
	"whatsapp_gateway/internal/infra/metrics"
	"whatsapp_gateway/internal/infra/phone"
)

const leadModel = "crm.lead"

type fixture struct {
	db         *memory.DB
	models     *thread.Registry
	transports *whatsapp.TransportRegistry
	metrics    *metrics.Metrics
	resolver   *RecipientResolver
	reconciler *NotificationReconciler
	templates  *TemplateService
	threads    *ThreadService
	actions    *ActionService
	dispatch   *DispatchService
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()

	models := thread.DefaultRegistry()
	require.NoError(t, models.Register(thread.ModelSpec{Name: leadModel, Thread: true}))
	require.NoError(t, models.Register(thread.ModelSpec{Name: "wizard.tmp", Thread: true, Transient: true}))
	require.NoError(t, models.Register(thread.ModelSpec{Name: "res.country"}))

	f := &fixture{
		db:         memory.New(),
		models:     models,
		transports: whatsapp.NewTransportRegistry(),
		metrics:    metrics.New(),
	}
	sanitizer := phone.NewSanitizer(phone.ModeParse, "")
	dispatcher := NewDispatcher(f.transports, f.metrics, logger)

	f.resolver = NewRecipientResolver(models, sanitizer)
	f.reconciler = NewNotificationReconciler(sanitizer, dispatcher, f.metrics, logger)
	f.templates = NewTemplateService(logger)
	f.threads = NewThreadService(f.resolver, f.reconciler, f.templates, logger)
	f.actions = NewActionService(f.db, models, f.threads, f.reconciler, f.templates, 1, logger)
	f.dispatch = NewDispatchService(f.db, dispatcher, 10, logger)
	return f
}

// tx runs fn in a committed transaction, failing the test on error.
func (f *fixture) tx(t *testing.T, fn func(st store.Store)) {
	t.Helper()
	require.NoError(t, f.db.InTx(context.Background(), func(st store.Store) error {
		fn(st)
		return nil
	}))
}

func (f *fixture) useTransport(t *testing.T, tr whatsapp.Transport) {
	t.Helper()
	require.NoError(t, f.transports.Register("test", tr))
	require.NoError(t, f.transports.Select("test"))
}

func createPartner(t *testing.T, st store.Store, p *partner.Partner) *partner.Partner {
	t.Helper()
	require.NoError(t, st.Partners().Create(context.Background(), p))
	return p
}

func createLead(t *testing.T, st store.Store, fields map[string]string, partners ...*partner.Partner) *thread.Document {
	t.Helper()
	d := &thread.Document{ModelName: leadModel, Name: "Lead", Fields: fields}
	for _, p := range partners {
		d.PartnerIDs = append(d.PartnerIDs, p.ID)
	}
	require.NoError(t, st.Records().Create(context.Background(), d))
	loaded, err := st.Records().Get(context.Background(), leadModel, d.ID)
	require.NoError(t, err)
	return loaded
}

func createMessage(t *testing.T, st store.Store, rec thread.Record, body string) *message.Message {
	t.Helper()
	m := &message.Message{
		Model:    rec.Model(),
		ResID:    rec.RecordID(),
		AuthorID: nullID(1),
		Body:     body,
		Type:     message.TypeWhatsApp,
		Subtype:  message.SubtypeNote,
	}
	require.NoError(t, st.Messages().Create(context.Background(), m))
	return m
}

// metricValue sums the counter samples of the named metric family.
func metricValue(t *testing.T, f *fixture, name string) float64 {
	t.Helper()
	families, err := f.metrics.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// recordingTransport marks every message it receives as sent.
type recordingTransport struct {
	sent []string
	err  error
}

func (tr *recordingTransport) Send(ctx context.Context, repo whatsapp.Repository, msgs []*whatsapp.Message) error {
	if tr.err != nil {
		return tr.err
	}
	for _, m := range msgs {
		if err := repo.Transition(ctx, m, whatsapp.StateSent, whatsapp.FailureNone); err != nil {
			return err
		}
		tr.sent = append(tr.sent, m.Number)
	}
	return nil
}

func (tr *recordingTransport) SetError(ctx context.Context, repo whatsapp.Repository, msgs []*whatsapp.Message, failure whatsapp.FailureType) error {
	for _, m := range msgs {
		if err := repo.Transition(ctx, m, whatsapp.StateError, failure); err != nil {
			return err
		}
	}
	return nil
}

func (tr *recordingTransport) SetOutgoing(ctx context.Context, repo whatsapp.Repository, msgs []*whatsapp.Message) error {
	for _, m := range msgs {
		if err := repo.Transition(ctx, m, whatsapp.StateOutgoing, whatsapp.FailureNone); err != nil {
			return err
		}
	}
	return nil
}

func (tr *recordingTransport) SetCanceled(ctx context.Context, repo whatsapp.Repository, msgs []*whatsapp.Message) error {
	for _, m := range msgs {
		if err := repo.Transition(ctx, m, whatsapp.StateCanceled, whatsapp.FailureNone); err != nil {
			return err
		}
	}
	return nil
}
