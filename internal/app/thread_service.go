package app

import (
	"context"
	"database/sql"
	"fmt"
	"maps"

	"github.com/sirupsen/logrus"

	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/notification"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
)

// PostWhatsApp describes a WhatsApp message posted on a record.
type PostWhatsApp struct {
	Body    string
	Subtype message.Subtype // defaults to note
	// PartnerIDs and Numbers are extra recipients.
	PartnerIDs     []int64
	Numbers        []string
	PartnerNumbers map[int64]string
	// NumberField forces the record field the recipient number is read from.
	NumberField    string
	ResendExisting bool
	QueueOnly      bool
}

// PostResult is what posting produced.
type PostResult struct {
	Message  *message.Message
	Outgoing []*whatsapp.Message
}

// ThreadService posts WhatsApp messages on business records.
type ThreadService struct {
	resolver   *RecipientResolver
	reconciler *NotificationReconciler
	templates  *TemplateService
	logger     *logrus.Entry
}

func NewThreadService(resolver *RecipientResolver, reconciler *NotificationReconciler, templates *TemplateService, logger *logrus.Entry) *ThreadService {
	return &ThreadService{
		resolver:   resolver,
		reconciler: reconciler,
		templates:  templates,
		logger:     logger.WithField("component", "thread_service"),
	}
}

// MessageWhatsApp posts body on rec as a WhatsApp message and notifies the
// recipients. When no recipient is given, or a number field is forced, the
// record's own recipient is resolved and put first. A record with no
// usable number still gets an error message so the failure is visible.
func (s *ThreadService) MessageWhatsApp(ctx context.Context, st store.Store, rec thread.Record, authorID int64, req PostWhatsApp) (*PostResult, error) {
	notify := s.recipients(ctx, rec, req)

	subtype := req.Subtype
	if subtype == "" {
		subtype = message.SubtypeNote
	}
	msg := &message.Message{
		Model:    rec.Model(),
		ResID:    rec.RecordID(),
		AuthorID: nullID(authorID),
		Body:     plainText(req.Body),
		Type:     message.TypeWhatsApp,
		Subtype:  subtype,
	}
	if err := st.Messages().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to post message on %s/%d: %w", rec.Model(), rec.RecordID(), err)
	}

	outgoing, err := s.reconciler.Notify(ctx, st, msg, rec, notify)
	if err != nil {
		return nil, err
	}
	return &PostResult{Message: msg, Outgoing: outgoing}, nil
}

// MessageWhatsAppWithTemplate renders templateID on rec, or uses
// fallbackBody when templateID is 0, and posts the result.
func (s *ThreadService) MessageWhatsAppWithTemplate(ctx context.Context, st store.Store, rec thread.Record, authorID, templateID int64, fallbackBody string, req PostWhatsApp) (*PostResult, error) {
	body, err := s.renderBody(ctx, st, rec, templateID, fallbackBody)
	if err != nil {
		return nil, err
	}
	req.Body = body
	return s.MessageWhatsApp(ctx, st, rec, authorID, req)
}

// ScheduleMass posts on every record and leaves the messages to the queue.
func (s *ThreadService) ScheduleMass(ctx context.Context, st store.Store, records []thread.Record, authorID int64, body string, templateID int64) ([]*PostResult, error) {
	results := make([]*PostResult, 0, len(records))
	for _, rec := range records {
		res, err := s.MessageWhatsAppWithTemplate(ctx, st, rec, authorID, templateID, body, PostWhatsApp{QueueOnly: true})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	s.logger.WithFields(logrus.Fields{"records": len(records), "template_id": templateID}).Info("Mass WhatsApp scheduled")
	return results, nil
}

// HasWhatsAppError reports, for each id, whether one of the author's
// messages on that record has a failed WhatsApp notification.
func (s *ThreadService) HasWhatsAppError(ctx context.Context, st store.Store, model string, ids []int64, authorID int64) (map[int64]bool, error) {
	counts, err := st.Notifications().CountExceptionsByRecord(ctx, notification.TypeWhatsApp, authorID, model, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up whatsapp errors: %w", err)
	}
	result := make(map[int64]bool, len(ids))
	for _, id := range ids {
		result[id] = counts[id] > 0
	}
	return result, nil
}

// CancelWhatsAppNotifications dismisses the author's bounced or failed
// WhatsApp notifications.
func (s *ThreadService) CancelWhatsAppNotifications(ctx context.Context, st store.Store, authorID int64) (int64, error) {
	n, err := st.Notifications().CancelByType(ctx, authorID, notification.TypeWhatsApp)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel whatsapp notifications: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"author_id": authorID, "canceled": n}).Info("WhatsApp notifications canceled")
	return n, nil
}

func (s *ThreadService) renderBody(ctx context.Context, st store.Store, rec thread.Record, templateID int64, fallback string) (string, error) {
	if templateID == 0 {
		return fallback, nil
	}
	tpl, err := st.Templates().GetByID(ctx, templateID)
	if err != nil {
		return "", fmt.Errorf("failed to load template %d: %w", templateID, err)
	}
	return s.templates.Render(tpl, rec)
}

// recipients merges the record's resolved recipient into the requested ones.
func (s *ThreadService) recipients(ctx context.Context, rec thread.Record, req PostWhatsApp) WhatsAppNotify {
	notify := WhatsAppNotify{
		PartnerIDs:     append([]int64(nil), req.PartnerIDs...),
		Numbers:        append([]string(nil), req.Numbers...),
		PartnerNumbers: make(map[int64]string, len(req.PartnerNumbers)+1),
		ResendExisting: req.ResendExisting,
		QueueOnly:      req.QueueOnly,
	}
	maps.Copy(notify.PartnerNumbers, req.PartnerNumbers)

	if req.NumberField == "" && (len(req.PartnerIDs) > 0 || len(req.Numbers) > 0) {
		return notify
	}

	info := s.resolver.Resolve(ctx, []thread.Record{rec}, req.NumberField, true)[rec.RecordID()]
	number := info.Destination()
	switch {
	case info.Partner != nil:
		if number != "" {
			notify.PartnerNumbers[info.Partner.ID] = number
		}
		notify.PartnerIDs = append([]int64{info.Partner.ID}, notify.PartnerIDs...)
	case number != "":
		notify.Numbers = append([]string{number}, notify.Numbers...)
	case len(notify.Numbers) == 0:
		notify.Numbers = []string{""}
	}
	return notify
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
