package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/whatsapp"
)

// Metrics receives processing counters. *metrics.Metrics implements it.
type Metrics interface {
	RecordOutgoingCreated(state string)
	RecordNotifications(created, updated int)
	RecordDispatch(origin string, failed bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutgoingCreated(string) {}
func (nopMetrics) RecordNotifications(int, int) {}
func (nopMetrics) RecordDispatch(string, bool)  {}

// Dispatch origins.
const (
	OriginReconcile = "reconcile"
	OriginQueue     = "queue"
	OriginAction    = "action"
)

// Dispatcher hands outgoing messages to the active transport. Transport
// failures are logged and counted, never returned.
type Dispatcher struct {
	transports *whatsapp.TransportRegistry
	metrics    Metrics
	logger     *logrus.Entry
}

func NewDispatcher(transports *whatsapp.TransportRegistry, m Metrics, logger *logrus.Entry) *Dispatcher {
	if m == nil {
		m = nopMetrics{}
	}
	return &Dispatcher{
		transports: transports,
		metrics:    m,
		logger:     logger.WithField("component", "dispatcher"),
	}
}

// Dispatch sends the outgoing messages among msgs and reports whether the
// transport accepted them. The transport runs under a savepoint of st: what
// it wrote is undone when it fails, the rest of the transaction is kept.
func (d *Dispatcher) Dispatch(ctx context.Context, st store.Store, msgs []*whatsapp.Message, origin string) bool {
	outgoing := whatsapp.Outgoing(msgs)
	if len(outgoing) == 0 {
		return true
	}

	before := make([]whatsapp.Message, len(outgoing))
	for i, m := range outgoing {
		before[i] = *m
	}
	err := st.Savepoint(ctx, func(sp store.Store) error {
		return d.send(ctx, sp.WhatsApp(), outgoing)
	})
	d.metrics.RecordDispatch(origin, err != nil)
	if err != nil {
		// The savepoint undid the transitions; keep the callers' copies in step.
		for i, m := range outgoing {
			*m = before[i]
		}
		entry := d.logger.WithFields(logrus.Fields{
			"origin": origin,
			"count":  len(outgoing),
		}).WithError(err)
		if errors.Is(err, whatsapp.ErrNotImplemented) {
			entry.Warn("No WhatsApp transport configured, messages stay queued")
		} else {
			entry.Error("WhatsApp transport failed")
		}
		return false
	}
	d.logger.WithFields(logrus.Fields{"origin": origin, "count": len(outgoing)}).Debug("WhatsApp messages handed to transport")
	return true
}

// send calls the active transport, turning a panic into an error.
func (d *Dispatcher) send(ctx context.Context, repo whatsapp.Repository, msgs []*whatsapp.Message) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("whatsapp transport panicked: %v", p)
		}
	}()
	return d.transports.Active().Send(ctx, repo, msgs)
}
