package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// SubscriptionSweepJobName identifies the subscription sweep in logs and TriggerNow
const SubscriptionSweepJobName = "subscription-sweep"

// SubscriptionSweeper expires trials and paid periods that have ended
type SubscriptionSweeper interface {
	SweepSubscriptions(ctx context.Context) (int, error)
}

// SubscriptionSweepJob moves companies whose trial or period has ended to expired
type SubscriptionSweepJob struct {
	sweeper SubscriptionSweeper
	logger  *zap.Logger
}

// NewSubscriptionSweepJob creates the job
func NewSubscriptionSweepJob(sweeper SubscriptionSweeper, logger *zap.Logger) *SubscriptionSweepJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionSweepJob{sweeper: sweeper, logger: logger}
}

// Name implements Job
func (j *SubscriptionSweepJob) Name() string {
	return SubscriptionSweepJobName
}

// Run implements Job
func (j *SubscriptionSweepJob) Run(ctx context.Context) error {
	expired, err := j.sweeper.SweepSubscriptions(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		j.logger.Info("Subscriptions expired", zap.Int("count", expired))
	}
	return nil
}

var _ Job = (*SubscriptionSweepJob)(nil)
