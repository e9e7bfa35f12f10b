package app

import (
	"context"
	"fmt"

	"whatsapp_gateway/internal/domain/store"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrNoRecordIDs = fmt.Errorf("no record ids given")

// AdminService backs the chat admin commands. Every call is checked
// against the configured admin Telegram ID.
type AdminService struct {
	tx              store.Transactor
	threads         *ThreadService
	dispatch        *DispatchService
	adminTelegramID int64
	authorID        int64 // WhatsApp author the admin acts as
}

func NewAdminService(tx store.Transactor, threads *ThreadService, dispatch *DispatchService, adminID, authorID int64) *AdminService {
	return &AdminService{
		tx:              tx,
		threads:         threads,
		dispatch:        dispatch,
		adminTelegramID: adminID,
		authorID:        authorID,
	}
}

// QueueStatus reports how many outgoing messages are waiting.
func (s *AdminService) QueueStatus(ctx context.Context, performingAdminID int64) (int, error) {
	if performingAdminID != s.adminTelegramID {
		return 0, ErrAdminNotAuthorized
	}
	n, err := s.dispatch.QueueLength(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count whatsapp queue: %w", err)
	}
	return n, nil
}

// WhatsAppErrors returns the ids among ids of model with a failed WhatsApp
// notification.
func (s *AdminService) WhatsAppErrors(ctx context.Context, performingAdminID int64, model string, ids []int64) ([]int64, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	if len(ids) == 0 {
		return nil, ErrNoRecordIDs
	}

	var flags map[int64]bool
	err := s.tx.InTx(ctx, func(st store.Store) error {
		var err error
		flags, err = s.threads.HasWhatsAppError(ctx, st, model, ids, s.authorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	var failed []int64
	for _, id := range ids {
		if flags[id] {
			failed = append(failed, id)
		}
	}
	return failed, nil
}

// CancelFailed dismisses the failed WhatsApp notifications.
func (s *AdminService) CancelFailed(ctx context.Context, performingAdminID int64) (int64, error) {
	if performingAdminID != s.adminTelegramID {
		return 0, ErrAdminNotAuthorized
	}
	var n int64
	err := s.tx.InTx(ctx, func(st store.Store) error {
		var err error
		n, err = s.threads.CancelWhatsAppNotifications(ctx, st, s.authorID)
		return err
	})
	return n, err
}
