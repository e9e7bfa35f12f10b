package memory

import (
	"context"
	"slices"
	"sort"

	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/infra/database"
)

type notificationRepo struct{ db *DB }

func (r notificationRepo) Create(_ context.Context, n *notification.Notification) error {
	n.ID = r.db.data.newID()
	n.CreatedAt = r.db.now()
	n.UpdatedAt = n.CreatedAt
	r.db.data.notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) BulkCreate(ctx context.Context, ns []*notification.Notification) error {
	for _, n := range ns {
		if err := r.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r notificationRepo) Update(_ context.Context, n *notification.Notification) error {
	if _, ok := r.db.data.notifications[n.ID]; !ok {
		return database.ErrNotificationNotFound
	}
	n.UpdatedAt = r.db.now()
	r.db.data.notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) ListForMessage(_ context.Context, messageID int64, typ notification.Type, partnerIDs []int64, numbers []string) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, n := range r.db.data.notifications {
		if n.MessageID != messageID || n.Type != typ {
			continue
		}
		match := n.PartnerID.Valid && slices.Contains(partnerIDs, n.PartnerID.Int64)
		if !n.PartnerID.Valid && slices.Contains(numbers, n.WhatsAppNumber) {
			match = true
		}
		if match {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r notificationRepo) CountExceptionsByRecord(_ context.Context, typ notification.Type, authorID int64, model string, resIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, n := range r.db.data.notifications {
		if n.Type != typ || n.Status != notification.StatusException {
			continue
		}
		if !n.AuthorID.Valid || n.AuthorID.Int64 != authorID {
			continue
		}
		m, ok := r.db.data.messages[n.MessageID]
		if !ok || m.Model != model || m.Type == message.TypeUserNotification {
			continue
		}
		if slices.Contains(resIDs, m.ResID) {
			counts[m.ResID]++
		}
	}
	return counts, nil
}

func (r notificationRepo) CancelByType(_ context.Context, authorID int64, typ notification.Type) (int64, error) {
	var changed int64
	for id, n := range r.db.data.notifications {
		if n.Type != typ || !n.Status.Cancelable() {
			continue
		}
		if !n.AuthorID.Valid || n.AuthorID.Int64 != authorID {
			continue
		}
		n.Status = notification.StatusCanceled
		n.UpdatedAt = r.db.now()
		r.db.data.notifications[id] = n
		changed++
	}
	return changed, nil
}
