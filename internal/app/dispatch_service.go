package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/whatsapp"
)

const defaultQueueBatchSize = 100

// DispatchService sends the queued outgoing messages.
type DispatchService struct {
	tx         store.Transactor
	dispatcher *Dispatcher
	batchSize  int
	logger     *logrus.Entry
}

func NewDispatchService(tx store.Transactor, dispatcher *Dispatcher, batchSize int, logger *logrus.Entry) *DispatchService {
	if batchSize <= 0 {
		batchSize = defaultQueueBatchSize
	}
	return &DispatchService{
		tx:         tx,
		dispatcher: dispatcher,
		batchSize:  batchSize,
		logger:     logger.WithField("component", "dispatch_service"),
	}
}

// ProcessQueue hands the oldest outgoing messages to the transport and
// returns how many were picked up. Transport failures are not returned.
func (s *DispatchService) ProcessQueue(ctx context.Context) (int, error) {
	picked := 0
	err := s.tx.InTx(ctx, func(st store.Store) error {
		msgs, err := st.WhatsApp().ListOutgoing(ctx, s.batchSize)
		if err != nil {
			return fmt.Errorf("failed to load whatsapp queue: %w", err)
		}
		picked = len(msgs)
		if picked == 0 {
			return nil
		}
		s.dispatcher.Dispatch(ctx, st, msgs, OriginQueue)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if picked > 0 {
		s.logger.WithField("count", picked).Info("WhatsApp queue processed")
	}
	return picked, nil
}

// QueueLength returns the number of outgoing messages waiting.
func (s *DispatchService) QueueLength(ctx context.Context) (int, error) {
	var n int
	err := s.tx.InTx(ctx, func(st store.Store) error {
		var err error
		n, err = st.WhatsApp().CountByState(ctx, whatsapp.StateOutgoing)
		return err
	})
	return n, err
}
