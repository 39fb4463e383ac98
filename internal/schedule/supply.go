package schedule

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NoInformation is the sentinel the extraction model emits for fields it
// could not read off the prescription.
const NoInformation = "No information available"

// DefaultDurationDays is assumed when the prescription states no duration,
// or states one the estimator cannot read (including "ongoing").
const DefaultDurationDays = 30

// refillFraction is the share of the total supply left when the refill
// reminder should fire.
const refillFraction = 0.2

var leadingIntPattern = regexp.MustCompile(`\d+`)

// Supply is the derived stock accounting for one medication.
type Supply struct {
	TotalSupply int
	RefillAt    int
}

// EstimateSupply derives the total dose count for a course from its free-text
// duration and the number of doses per day, along with the threshold at which
// a refill reminder should trigger.
func EstimateSupply(duration string, dosesPerDay float64) Supply {
	days := ParseDurationDays(duration)
	if dosesPerDay <= 0 {
		dosesPerDay = 1
	}

	total := int(math.Ceil(float64(days) * dosesPerDay))
	refill := int(math.Ceil(float64(total) * refillFraction))

	// The refill reminder must fire strictly before the supply runs out.
	// Rounding can push the threshold to the full total on tiny courses.
	if total > 0 && refill >= total {
		refill = total - 1
	}

	return Supply{TotalSupply: total, RefillAt: refill}
}

// ParseDurationDays reads a day count out of free text like "14 days",
// "2 months" or "ongoing". Months are approximated at 30 days. Text with no
// usable number falls back to the 30-day default.
func ParseDurationDays(duration string) int {
	trimmed := strings.TrimSpace(duration)
	if trimmed == "" || strings.EqualFold(trimmed, NoInformation) {
		return DefaultDurationDays
	}

	lower := strings.ToLower(trimmed)
	match := leadingIntPattern.FindString(lower)
	if match == "" {
		return DefaultDurationDays
	}
	n, err := strconv.Atoi(match)
	if err != nil || n <= 0 {
		return DefaultDurationDays
	}

	if strings.Contains(lower, "month") {
		return n * 30
	}
	return n
}

// EffectiveDosesPerDay is the dose rate used for supply math. It is normally
// the resolved schedule length, except for "1-2 times" prescriptions, which
// average out to 1.5 doses per day even though the reminder schedule carries
// two times. That mismatch mirrors how prescriptions are actually filled and
// is kept intentionally.
func EffectiveDosesPerDay(frequency, dosage string, scheduleLen int) float64 {
	text := strings.ToLower(frequency + " " + dosage)
	if strings.Contains(text, "1-2 times") {
		return 1.5
	}
	if scheduleLen < 1 {
		return 1
	}
	return float64(scheduleLen)
}
