package jobs

import (
	"context"
	"log"
	"time"

	"medremind/internal/services"
)

// refillCheckHour is the local hour the daily refill sweep runs at. Morning
// keeps the alert actionable: pharmacies are open.
const refillCheckHour = 9

// RefillCheckJob sweeps all medications once a day and surfaces the ones
// whose remaining supply crossed the refill threshold.
type RefillCheckJob struct {
	medications *services.MedicationService
	notifier    services.Notifier
}

// NewRefillCheckJob creates a new refill check job
func NewRefillCheckJob(medications *services.MedicationService, notifier services.Notifier) *RefillCheckJob {
	return &RefillCheckJob{
		medications: medications,
		notifier:    notifier,
	}
}

// Name identifies the job in logs and the health payload.
func (j *RefillCheckJob) Name() string { return "refill-check" }

// Run finds every medication that needs a refill and fires an alert for each.
func (j *RefillCheckJob) Run(ctx context.Context) error {
	low, err := j.medications.AllLowSupply(ctx)
	if err != nil {
		return err
	}

	if len(low) == 0 {
		log.Println("ℹ️  [REFILL-CHECK] No medications below refill threshold")
		return nil
	}

	for _, med := range low {
		log.Printf("🔔 [REFILL-CHECK] %s for user %s is low: %d of %d remaining (refill at %d)",
			med.Name, med.UserID, med.CurrentSupply, med.TotalSupply, med.RefillAt)
		if j.notifier != nil {
			j.notifier.Notify(med.UserID, med.ID, med.Name, "Refill needed", "")
		}
	}

	log.Printf("✅ [REFILL-CHECK] Flagged %d medications for refill", len(low))
	return nil
}

// Next returns the first local 9 AM after now.
func (j *RefillCheckJob) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), refillCheckHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
