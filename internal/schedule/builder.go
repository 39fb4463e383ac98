package schedule

import (
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"medremind/internal/models"
)

// Placeholders substituted for fields the extraction model could not read.
const (
	PlaceholderName   = "Unnamed Medication"
	PlaceholderDosage = "No dosage specified"
)

// FallbackTime is the single reminder time used when the engine cannot
// produce a usable schedule for a record.
const FallbackTime = "09:00"

// Minimal defensive supply used when building a record fails outright.
const (
	fallbackTotalSupply = 30
	fallbackRefillAt    = 6
)

// colorPalette holds the cosmetic card colors assigned to new records.
var colorPalette = []string{
	"#4CAF50", "#2196F3", "#9C27B0", "#FF9800",
	"#E91E63", "#00BCD4", "#FF5722", "#795548",
}

// Builder composes the frequency parser, timing adjuster and supply estimator
// into canonical medication records. One Builder is safe to reuse across a
// whole scan batch; records are independent of each other.
type Builder struct {
	parser *Parser

	now     func() time.Time
	newID   func() string
	pickIdx func(n int) int
}

// NewBuilder creates a builder over the given named-time vocabulary.
func NewBuilder(vocab Vocabulary) *Builder {
	return &Builder{
		parser:  NewParser(vocab),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		pickIdx: rand.Intn,
	}
}

// Build turns one extracted medicine into a canonical record. It never fails:
// any panic out of the parsing pipeline degrades to a minimal valid record so
// a single unreadable medicine cannot sink the rest of the scan.
func (b *Builder) Build(raw models.RawExtraction) (med models.Medication) {
	now := b.now()
	med = models.Medication{
		ID:              b.newID(),
		Name:            fieldOrPlaceholder(raw.Name, PlaceholderName),
		Dosage:          fieldOrPlaceholder(raw.Dosage, PlaceholderDosage),
		StartDate:       now,
		Duration:        fieldOrPlaceholder(raw.Duration, NoInformation),
		Color:           colorPalette[b.pickIdx(len(colorPalette))],
		ReminderEnabled: true,
		RefillReminder:  true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  [BUILDER] Failed to build record for %q, using defensive fallback: %v", raw.Name, r)
			med.Times = []string{FallbackTime}
			med.CurrentSupply = fallbackTotalSupply
			med.TotalSupply = fallbackTotalSupply
			med.RefillAt = fallbackRefillAt
		}
	}()

	times := b.parser.Resolve(cleanField(raw.Frequency), cleanField(raw.Dosage))
	times = AdjustForTiming(times, cleanField(raw.Timing))
	times = sanitizeTimes(times)

	dosesPerDay := EffectiveDosesPerDay(raw.Frequency, raw.Dosage, len(times))
	supply := EstimateSupply(cleanField(raw.Duration), dosesPerDay)

	med.Times = times
	med.CurrentSupply = supply.TotalSupply
	med.TotalSupply = supply.TotalSupply
	med.RefillAt = supply.RefillAt
	return med
}

// sanitizeTimes drops malformed entries and guarantees a non-empty schedule.
// The engine should never hand the notification scheduler a trigger it cannot
// parse.
func sanitizeTimes(times []string) []string {
	valid := make([]string, 0, len(times))
	for _, t := range times {
		if ValidTime(t) {
			valid = append(valid, Normalize(t))
		}
	}
	if len(valid) == 0 {
		return []string{FallbackTime}
	}
	return dedupeTimes(valid)
}

// cleanField treats the extraction sentinel as an absent value.
func cleanField(s string) string {
	if s == NoInformation {
		return ""
	}
	return s
}

func fieldOrPlaceholder(s, placeholder string) string {
	if s == "" || s == NoInformation {
		return placeholder
	}
	return s
}
