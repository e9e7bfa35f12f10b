package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// QueueProcessor drains one batch of the outgoing WhatsApp queue.
type QueueProcessor interface {
	ProcessQueue(ctx context.Context) (int, error)
}

// Alerter is told about failed jobs, e.g. the admin chat.
type Alerter interface {
	Alert(job string, err error)
}

type QueueScheduler struct {
	cronEngine *cron.Cron
	processor  QueueProcessor
	alerter    Alerter
	logger     *logrus.Entry
	cronSpec   string
	jobTimeout time.Duration
}

func NewQueueScheduler(
	processor QueueProcessor,
	logger *logrus.Logger,
	cronSpec string, // e.g., "*/1 * * * *" (every minute)
) *QueueScheduler {
	return &QueueScheduler{
		// SkipIfStillRunning keeps two drains from competing for the same batch.
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		processor:  processor,
		logger:     logger.WithField("component", "queue_scheduler"),
		cronSpec:   cronSpec,
		jobTimeout: 1 * time.Minute,
	}
}

// SetAlerter makes failed queue runs reach a.
func (s *QueueScheduler) SetAlerter(a Alerter) {
	s.alerter = a
}

// Start registers the queue job and starts the cron engine.
func (s *QueueScheduler) Start() error {
	s.logger.Info("Starting queue scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, s.runQueueJob)
	if err != nil {
		s.logger.WithError(err).WithField("spec", s.cronSpec).Error("Could not add queue cron job")
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Queue scheduler started.")
	return nil
}

func (s *QueueScheduler) runQueueJob() {
	s.logger.Debug("Cron job triggered for outgoing WhatsApp queue.")
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	n, err := s.processor.ProcessQueue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during queue processing")
		if s.alerter != nil {
			s.alerter.Alert("queue dispatch", err)
		}
		return
	}
	if n > 0 {
		s.logger.WithField("count", n).Info("Outgoing WhatsApp batch handed to transport.")
	}
}

func (s *QueueScheduler) Stop() {
	s.logger.Info("Stopping queue scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Queue scheduler gracefully stopped.")
}
