// Package memory is an in-process implementation of store.Store used for
// development and tests. Transactions are serialized and rolled back by
// restoring a snapshot.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"whatsapp_gateway/internal/domain/action"
	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
	"whatsapp_gateway/internal/infra/database"
)

type recordKey struct {
	model string
	id    int64
}

type data struct {
	partners      map[int64]partner.Partner
	records       map[recordKey]thread.Document
	messages      map[int64]message.Message
	notifications map[int64]notification.Notification
	whatsapp      map[int64]whatsapp.Message
	templates     map[int64]whatsapp.Template
	actions       map[int64]action.ServerAction
	nextID        int64
}

func newData() data {
	return data{
		partners:      make(map[int64]partner.Partner),
		records:       make(map[recordKey]thread.Document),
		messages:      make(map[int64]message.Message),
		notifications: make(map[int64]notification.Notification),
		whatsapp:      make(map[int64]whatsapp.Message),
		templates:     make(map[int64]whatsapp.Template),
		actions:       make(map[int64]action.ServerAction),
	}
}

// Stored values are never mutated in place; record fields are the only
// reference-typed values and are copied.
func (d *data) clone() data {
	records := make(map[recordKey]thread.Document, len(d.records))
	for k, doc := range d.records {
		records[k] = copyDocument(doc)
	}
	return data{
		partners:      maps.Clone(d.partners),
		records:       records,
		messages:      maps.Clone(d.messages),
		notifications: maps.Clone(d.notifications),
		whatsapp:      maps.Clone(d.whatsapp),
		templates:     maps.Clone(d.templates),
		actions:       maps.Clone(d.actions),
		nextID:        d.nextID,
	}
}

func copyDocument(d thread.Document) thread.Document {
	d.Fields = maps.Clone(d.Fields)
	d.PartnerIDs = append([]int64(nil), d.PartnerIDs...)
	return d
}

func (d *data) newID() int64 {
	d.nextID++
	return d.nextID
}

// DB holds all tables in memory.
type DB struct {
	mu   sync.Mutex
	data data
	now  func() time.Time
}

func New() *DB {
	return &DB{data: newData(), now: time.Now}
}

// InTx implements store.Transactor.
func (db *DB) InTx(ctx context.Context, fn func(st store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	return (&txStore{db: db}).restoreOnFailure(fn)
}

// restoreOnFailure runs fn and puts the data back as it was when fn fails
// or panics.
func (s *txStore) restoreOnFailure(fn func(st store.Store) error) error {
	snapshot := s.db.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.db.data = snapshot
			panic(p)
		}
	}()
	if err := fn(s); err != nil {
		s.db.data = snapshot
		return err
	}
	return nil
}

type txStore struct {
	db *DB
}

func (s *txStore) Partners() partner.Repository           { return partnerRepo{s.db} }
func (s *txStore) Records() thread.Repository             { return recordRepo{s.db} }
func (s *txStore) Messages() message.Repository           { return messageRepo{s.db} }
func (s *txStore) Notifications() notification.Repository { return notificationRepo{s.db} }
func (s *txStore) WhatsApp() whatsapp.Repository          { return whatsappRepo{s.db} }
func (s *txStore) Templates() whatsapp.TemplateRepository { return templateRepo{s.db} }
func (s *txStore) Actions() action.Repository             { return actionRepo{s.db} }

// Savepoint implements store.Store.
func (s *txStore) Savepoint(_ context.Context, fn func(st store.Store) error) error {
	return s.restoreOnFailure(fn)
}

type partnerRepo struct{ db *DB }

func (r partnerRepo) Create(_ context.Context, p *partner.Partner) error {
	p.ID = r.db.data.newID()
	p.CreatedAt = r.db.now()
	p.UpdatedAt = p.CreatedAt
	r.db.data.partners[p.ID] = *p
	return nil
}

func (r partnerRepo) GetByID(_ context.Context, id int64) (*partner.Partner, error) {
	p, ok := r.db.data.partners[id]
	if !ok {
		return nil, database.ErrPartnerNotFound
	}
	return &p, nil
}

func (r partnerRepo) ListByIDs(_ context.Context, ids []int64) ([]*partner.Partner, error) {
	var out []*partner.Partner
	for _, id := range ids {
		if p, ok := r.db.data.partners[id]; ok {
			out = append(out, &p)
		}
	}
	return out, nil
}

type recordRepo struct{ db *DB }

func (r recordRepo) Create(_ context.Context, d *thread.Document) error {
	if d.ModelName == "" {
		return fmt.Errorf("error creating record: model is required")
	}
	d.ID = r.db.data.newID()
	d.CreatedAt = r.db.now()
	d.UpdatedAt = d.CreatedAt
	stored := copyDocument(*d)
	stored.Partners = nil
	r.db.data.records[recordKey{d.ModelName, d.ID}] = stored
	return nil
}

func (r recordRepo) Get(ctx context.Context, model string, id int64) (*thread.Document, error) {
	stored, ok := r.db.data.records[recordKey{model, id}]
	if !ok {
		return nil, database.ErrRecordNotFound
	}
	d := copyDocument(stored)
	d.Partners, _ = partnerRepo(r).ListByIDs(ctx, d.PartnerIDs)
	return &d, nil
}

func (r recordRepo) List(ctx context.Context, model string, ids []int64) ([]*thread.Document, error) {
	var out []*thread.Document
	for _, id := range ids {
		if d, err := r.Get(ctx, model, id); err == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

type messageRepo struct{ db *DB }

func (r messageRepo) Create(_ context.Context, m *message.Message) error {
	m.ID = r.db.data.newID()
	m.CreatedAt = r.db.now()
	r.db.data.messages[m.ID] = *m
	return nil
}

func (r messageRepo) GetByID(_ context.Context, id int64) (*message.Message, error) {
	m, ok := r.db.data.messages[id]
	if !ok {
		return nil, database.ErrMessageNotFound
	}
	return &m, nil
}
