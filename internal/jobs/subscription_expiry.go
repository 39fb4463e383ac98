package jobs

import (
	"context"
	"log"
	"time"

	"medremind/internal/services"
)

// SubscriptionExpiryJob downgrades premium subscriptions whose billing period
// lapsed without a renewal webhook arriving.
type SubscriptionExpiryJob struct {
	payments *services.PaymentService
}

// NewSubscriptionExpiryJob creates a new subscription expiry job
func NewSubscriptionExpiryJob(payments *services.PaymentService) *SubscriptionExpiryJob {
	return &SubscriptionExpiryJob{payments: payments}
}

// Name identifies the job in logs and the health payload.
func (j *SubscriptionExpiryJob) Name() string { return "subscription-expiry" }

// Run downgrades every lapsed premium subscription to the free tier.
func (j *SubscriptionExpiryJob) Run(ctx context.Context) error {
	n, err := j.payments.DowngradeExpired(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		log.Printf("💳 [SUB-EXPIRY] Downgraded %d lapsed subscriptions to free tier", n)
	} else {
		log.Println("ℹ️  [SUB-EXPIRY] No lapsed subscriptions")
	}
	return nil
}

// Next returns the top of the next hour. Billing periods end on whole-hour
// boundaries, so aligned sweeps catch lapses promptly.
func (j *SubscriptionExpiryJob) Next(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}
