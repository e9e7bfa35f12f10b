package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/domain/partner"
	"whatsapp_gateway/internal/domain/phone"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
)

// WhatsAppNotify lists who to notify by WhatsApp for one conversation message.
type WhatsAppNotify struct {
	PartnerIDs []int64
	// Numbers are raw numbers notified without a contact.
	Numbers []string
	// PartnerNumbers forces the number used for a contact.
	PartnerNumbers map[int64]string
	// ResendExisting reuses the notifications already attached to the
	// message instead of creating new ones.
	ResendExisting bool
	// QueueOnly leaves the messages for the queue dispatcher.
	QueueOnly bool
}

// NotificationReconciler turns a conversation message into outgoing
// WhatsApp messages and their notification records.
type NotificationReconciler struct {
	sanitizer  phone.Sanitizer
	dispatcher *Dispatcher
	metrics    Metrics
	logger     *logrus.Entry
	newUUID    func() string
}

func NewNotificationReconciler(sanitizer phone.Sanitizer, dispatcher *Dispatcher, m Metrics, logger *logrus.Entry) *NotificationReconciler {
	if m == nil {
		m = nopMetrics{}
	}
	return &NotificationReconciler{
		sanitizer:  sanitizer,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger.WithField("component", "notification_reconciler"),
		newUUID:    uuid.NewString,
	}
}

// Notify creates one outgoing message and one notification per recipient
// of msg. rec is the record msg is posted on; it may be nil. Transport
// failures do not fail the call.
func (r *NotificationReconciler) Notify(ctx context.Context, st store.Store, msg *message.Message, rec thread.Record, req WhatsAppNotify) ([]*whatsapp.Message, error) {
	batch, err := r.createBatch(ctx, st, msg.ID, plainText(msg.Body), rec, req)
	if err != nil || len(batch) == 0 {
		return nil, err
	}

	created, updated, err := r.reconcile(ctx, st, msg, batch, req.ResendExisting)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordNotifications(created, updated)

	r.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"outgoing":   len(batch),
		"created":    created,
		"updated":    updated,
		"queue_only": req.QueueOnly,
	}).Info("WhatsApp notifications reconciled")

	if !req.QueueOnly {
		r.dispatcher.Dispatch(ctx, st, batch, OriginReconcile)
	}
	return batch, nil
}

// SendWithoutLog creates outgoing messages that are not attached to any
// conversation message, so no notification is recorded, and dispatches them
// unless req.QueueOnly is set.
func (r *NotificationReconciler) SendWithoutLog(ctx context.Context, st store.Store, body string, rec thread.Record, req WhatsAppNotify) ([]*whatsapp.Message, error) {
	batch, err := r.createBatch(ctx, st, 0, plainText(body), rec, req)
	if err != nil || len(batch) == 0 {
		return nil, err
	}
	if !req.QueueOnly {
		r.dispatcher.Dispatch(ctx, st, batch, OriginAction)
	}
	return batch, nil
}

func (r *NotificationReconciler) createBatch(ctx context.Context, st store.Store, messageID int64, body string, rec thread.Record, req WhatsAppNotify) ([]*whatsapp.Message, error) {
	partners, err := st.Partners().ListByIDs(ctx, uniqueIDs(req.PartnerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load partners to notify: %w", err)
	}

	batch := make([]*whatsapp.Message, 0, len(partners)+len(req.Numbers))
	for _, p := range partners {
		batch = append(batch, r.partnerMessage(messageID, body, p, req.PartnerNumbers[p.ID]))
	}

	region := ""
	if rec != nil {
		region = thread.Country(rec)
	}
	numbers := uniqueStrings(req.Numbers)
	sanitized := r.sanitizer.SanitizeNumbers(numbers, region)
	// Two spellings of one number are one recipient.
	seen := make(map[string]bool, len(numbers))
	for _, raw := range numbers {
		m := r.baseMessage(messageID, body)
		if res := sanitized[raw]; res.OK() {
			m.Number = res.Sanitized
		} else {
			m.Number = raw
			m.State = whatsapp.StateError
			m.FailureType = whatsapp.FailureNumberMissing
		}
		if seen[m.Number] {
			continue
		}
		seen[m.Number] = true
		batch = append(batch, m)
	}

	for _, m := range batch {
		if err := st.WhatsApp().Create(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to create whatsapp message for %q: %w", m.Number, err)
		}
		r.metrics.RecordOutgoingCreated(string(m.State))
	}
	return batch, nil
}

func (r *NotificationReconciler) baseMessage(messageID int64, body string) *whatsapp.Message {
	return &whatsapp.Message{
		UUID:          r.newUUID(),
		Body:          body,
		MailMessageID: sql.NullInt64{Int64: messageID, Valid: messageID != 0},
		State:         whatsapp.StateOutgoing,
	}
}

func (r *NotificationReconciler) partnerMessage(messageID int64, body string, p *partner.Partner, forced string) *whatsapp.Message {
	m := r.baseMessage(messageID, body)
	m.PartnerID = sql.NullInt64{Int64: p.ID, Valid: true}

	number := forced
	if number == "" {
		number = p.Mobile
	}
	if number == "" {
		number = p.Phone
	}
	if number == "" {
		m.State = whatsapp.StateError
		m.FailureType = whatsapp.FailureNumberMissing
		return m
	}

	if res := phone.Sanitize(r.sanitizer, number, p.Country()); res.OK() {
		number = res.Sanitized
	}
	m.Number = number
	return m
}

// reconcile creates or updates the notification of every message in batch.
func (r *NotificationReconciler) reconcile(ctx context.Context, st store.Store, msg *message.Message, batch []*whatsapp.Message, resend bool) (created, updated int, err error) {
	byPartner := make(map[int64]*notification.Notification)
	byNumber := make(map[string]*notification.Notification)

	if resend {
		var partnerIDs []int64
		var numbers []string
		for _, m := range batch {
			if m.PartnerID.Valid {
				partnerIDs = append(partnerIDs, m.PartnerID.Int64)
			} else {
				numbers = append(numbers, m.Number)
			}
		}
		existing, err := st.Notifications().ListForMessage(ctx, msg.ID, notification.TypeWhatsApp, partnerIDs, numbers)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to load existing notifications: %w", err)
		}
		for _, n := range existing {
			if n.HasPartner() {
				if _, seen := byPartner[n.PartnerID.Int64]; !seen {
					byPartner[n.PartnerID.Int64] = n
				}
			} else if _, seen := byNumber[n.WhatsAppNumber]; !seen {
				byNumber[n.WhatsAppNumber] = n
			}
		}
	}

	// A matched row stays indexed so every batch message of the same
	// recipient lands on it; new rows are indexed too.
	var toCreate []*notification.Notification
	for _, m := range batch {
		status, failure := notificationStatus(m)

		var existing *notification.Notification
		if m.PartnerID.Valid {
			existing = byPartner[m.PartnerID.Int64]
		} else {
			existing = byNumber[m.Number]
		}

		if existing != nil && existing.ID == 0 {
			existing.Status = status
			existing.FailureType = failure
			existing.WhatsAppID = sql.NullInt64{Int64: m.ID, Valid: true}
			continue
		}
		if existing != nil {
			existing.Type = notification.TypeWhatsApp
			existing.Status = status
			existing.FailureType = failure
			existing.WhatsAppID = sql.NullInt64{Int64: m.ID, Valid: true}
			existing.WhatsAppNumber = m.Number
			if err := st.Notifications().Update(ctx, existing); err != nil {
				return 0, 0, fmt.Errorf("failed to update notification %d: %w", existing.ID, err)
			}
			updated++
			continue
		}

		n := &notification.Notification{
			AuthorID:       msg.AuthorID,
			MessageID:      msg.ID,
			PartnerID:      m.PartnerID,
			WhatsAppNumber: m.Number,
			Type:           notification.TypeWhatsApp,
			Status:         status,
			FailureType:    failure,
			WhatsAppID:     sql.NullInt64{Int64: m.ID, Valid: true},
			IsRead:         true,
		}
		toCreate = append(toCreate, n)
		if m.PartnerID.Valid {
			byPartner[m.PartnerID.Int64] = n
		} else {
			byNumber[m.Number] = n
		}
	}

	if err := st.Notifications().BulkCreate(ctx, toCreate); err != nil {
		return 0, 0, fmt.Errorf("failed to create notifications: %w", err)
	}
	return len(toCreate), updated, nil
}

func notificationStatus(m *whatsapp.Message) (notification.Status, string) {
	if m.State == whatsapp.StateOutgoing {
		return notification.StatusReady, ""
	}
	return notification.StatusException, string(m.FailureType)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
