package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"whatsapp_gateway/internal/domain/action"
	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
	idb "whatsapp_gateway/internal/infra/database"
)

const msgWhatsAppModelIncoherent = "Sending WhatsApp can only be done on a mail.thread or a transient model"

// ActionService configures and runs "send WhatsApp message" server actions.
type ActionService struct {
	tx              store.Transactor
	models          *thread.Registry
	threads         *ThreadService
	reconciler      *NotificationReconciler
	templates       *TemplateService
	defaultAuthorID int64
	logger          *logrus.Entry
}

func NewActionService(
	tx store.Transactor,
	models *thread.Registry,
	threads *ThreadService,
	reconciler *NotificationReconciler,
	templates *TemplateService,
	defaultAuthorID int64,
	logger *logrus.Entry,
) *ActionService {
	return &ActionService{
		tx:              tx,
		models:          models,
		threads:         threads,
		reconciler:      reconciler,
		templates:       templates,
		defaultAuthorID: defaultAuthorID,
		logger:          logger.WithField("component", "action_service"),
	}
}

// Normalize clears the WhatsApp settings that do not apply to a. tpl is
// the template referenced by a, nil when none could be loaded.
func (s *ActionService) Normalize(a *action.ServerAction, tpl *whatsapp.Template) {
	if a.State != action.StateWhatsApp || tpl == nil || tpl.Model != a.Model {
		a.TemplateID = sql.NullInt64{}
	}
	switch {
	case a.State != action.StateWhatsApp:
		a.Method = action.MethodNone
	case a.Method == action.MethodNone:
		a.Method = action.MethodWhatsApp
	}
}

// Validate checks that a WhatsApp action targets a model able to receive
// messages.
func (s *ActionService) Validate(a *action.ServerAction) error {
	if !a.Method.Valid() {
		return &action.ValidationError{ActionID: a.ID, Reason: fmt.Sprintf("unknown WhatsApp method %q", a.Method)}
	}
	if a.State != action.StateWhatsApp {
		return nil
	}
	spec, ok := s.models.Lookup(a.Model)
	if !ok || spec.Transient || !spec.Thread {
		return &action.ValidationError{ActionID: a.ID, Reason: msgWhatsAppModelIncoherent}
	}
	return nil
}

// Save normalizes, validates and stores a.
func (s *ActionService) Save(ctx context.Context, a *action.ServerAction) error {
	return s.tx.InTx(ctx, func(st store.Store) error {
		var tpl *whatsapp.Template
		if a.TemplateID.Valid {
			t, err := st.Templates().GetByID(ctx, a.TemplateID.Int64)
			if err != nil && !errors.Is(err, idb.ErrTemplateNotFound) {
				return fmt.Errorf("failed to load template of action: %w", err)
			}
			tpl = t
		}
		s.Normalize(a, tpl)
		if err := s.Validate(a); err != nil {
			return err
		}
		if a.ID == 0 {
			return st.Actions().Create(ctx, a)
		}
		return st.Actions().Update(ctx, a)
	})
}

// Run executes the action on the records resIDs of its model and returns
// how many records were processed. An action without template or records
// does nothing.
func (s *ActionService) Run(ctx context.Context, actionID int64, resIDs []int64) (int, error) {
	processed := 0
	err := s.tx.InTx(ctx, func(st store.Store) error {
		a, err := st.Actions().GetByID(ctx, actionID)
		if err != nil {
			return err
		}
		if a.State != action.StateWhatsApp {
			return &action.ValidationError{ActionID: a.ID, Reason: fmt.Sprintf("action state is %q, not %q", a.State, action.StateWhatsApp)}
		}
		if err := s.Validate(a); err != nil {
			return err
		}
		if !a.TemplateID.Valid || len(resIDs) == 0 {
			return nil
		}

		tpl, err := st.Templates().GetByID(ctx, a.TemplateID.Int64)
		if err != nil {
			return fmt.Errorf("failed to load template of action %d: %w", a.ID, err)
		}
		records, err := LoadRecords(ctx, st, a.Model, resIDs)
		if err != nil {
			return fmt.Errorf("failed to load records of action %d: %w", a.ID, err)
		}

		for _, rec := range records {
			if err := s.runOne(ctx, st, a, tpl, rec); err != nil {
				return err
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"action_id": actionID,
		"requested": len(resIDs),
		"processed": processed,
	}).Info("WhatsApp server action run")
	return processed, nil
}

func (s *ActionService) runOne(ctx context.Context, st store.Store, a *action.ServerAction, tpl *whatsapp.Template, rec thread.Record) error {
	switch a.Method {
	case action.MethodComment, action.MethodNote:
		subtype := message.SubtypeNote
		if a.Method == action.MethodComment {
			subtype = message.SubtypeComment
		}
		_, err := s.threads.MessageWhatsAppWithTemplate(ctx, st, rec, s.defaultAuthorID, tpl.ID, "", PostWhatsApp{Subtype: subtype})
		return err
	default:
		body, err := s.templates.Render(tpl, rec)
		if err != nil {
			return err
		}
		_, err = s.reconciler.SendWithoutLog(ctx, st, body, rec, s.threads.recipients(ctx, rec, PostWhatsApp{}))
		return err
	}
}
