package memory

import (
	"context"
	"fmt"
	"sort"

	"whatsapp_gateway/internal/domain/action"
	"whatsapp_gateway/internal/domain/whatsapp"
	"whatsapp_gateway/internal/infra/database"
)

type whatsappRepo struct{ db *DB }

func (r whatsappRepo) Create(_ context.Context, m *whatsapp.Message) error {
	if m.State == "" {
		m.State = whatsapp.StateOutgoing
	}
	m.ID = r.db.data.newID()
	m.CreatedAt = r.db.now()
	m.UpdatedAt = m.CreatedAt
	r.db.data.whatsapp[m.ID] = *m
	return nil
}

func (r whatsappRepo) GetByID(_ context.Context, id int64) (*whatsapp.Message, error) {
	m, ok := r.db.data.whatsapp[id]
	if !ok {
		return nil, database.ErrWhatsAppMessageNotFound
	}
	return &m, nil
}

func (r whatsappRepo) ListOutgoing(_ context.Context, limit int) ([]*whatsapp.Message, error) {
	var out []*whatsapp.Message
	for _, m := range r.db.data.whatsapp {
		if m.State == whatsapp.StateOutgoing {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r whatsappRepo) CountByState(_ context.Context, state whatsapp.State) (int, error) {
	n := 0
	for _, m := range r.db.data.whatsapp {
		if m.State == state {
			n++
		}
	}
	return n, nil
}

func (r whatsappRepo) Transition(_ context.Context, m *whatsapp.Message, to whatsapp.State, failure whatsapp.FailureType) error {
	if err := whatsapp.CheckTransition(m.State, to); err != nil {
		return err
	}
	stored, ok := r.db.data.whatsapp[m.ID]
	if !ok || stored.State != m.State {
		return fmt.Errorf("whatsapp message %d in state %s: %w", m.ID, m.State, database.ErrWhatsAppMessageNotFound)
	}
	stored.State = to
	stored.FailureType = failure
	stored.UpdatedAt = r.db.now()
	r.db.data.whatsapp[m.ID] = stored
	*m = stored
	return nil
}

type templateRepo struct{ db *DB }

func (r templateRepo) Create(_ context.Context, t *whatsapp.Template) error {
	if t.DefaultBody == "" {
		t.DefaultBody = t.Body
	}
	t.ID = r.db.data.newID()
	t.CreatedAt = r.db.now()
	t.UpdatedAt = t.CreatedAt
	r.db.data.templates[t.ID] = *t
	return nil
}

func (r templateRepo) GetByID(_ context.Context, id int64) (*whatsapp.Template, error) {
	t, ok := r.db.data.templates[id]
	if !ok {
		return nil, database.ErrTemplateNotFound
	}
	return &t, nil
}

func (r templateRepo) Reset(_ context.Context, ids []int64) (int64, error) {
	var changed int64
	for _, id := range ids {
		t, ok := r.db.data.templates[id]
		if !ok || t.Body == t.DefaultBody {
			continue
		}
		t.Body = t.DefaultBody
		t.UpdatedAt = r.db.now()
		r.db.data.templates[id] = t
		changed++
	}
	return changed, nil
}

type actionRepo struct{ db *DB }

func (r actionRepo) Create(_ context.Context, a *action.ServerAction) error {
	a.ID = r.db.data.newID()
	a.CreatedAt = r.db.now()
	a.UpdatedAt = a.CreatedAt
	r.db.data.actions[a.ID] = *a
	return nil
}

func (r actionRepo) GetByID(_ context.Context, id int64) (*action.ServerAction, error) {
	a, ok := r.db.data.actions[id]
	if !ok {
		return nil, database.ErrActionNotFound
	}
	return &a, nil
}

func (r actionRepo) Update(_ context.Context, a *action.ServerAction) error {
	if _, ok := r.db.data.actions[a.ID]; !ok {
		return database.ErrActionNotFound
	}
	a.UpdatedAt = r.db.now()
	r.db.data.actions[a.ID] = *a
	return nil
}
