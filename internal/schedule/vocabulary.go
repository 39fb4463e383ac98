package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Canonical reminder times used when no user meal-time profile is configured.
// These values are shared with the mobile client and must not change without
// a coordinated migration of existing reminder triggers.
const (
	DefaultMorningTime   = "09:00"
	DefaultAfternoonTime = "13:00"
	DefaultEveningTime   = "18:00"
	DefaultNightTime     = "21:00"
)

// Vocabulary maps the named times of day the parser resolves free text into.
// Meal times from the user's settings feed directly into these slots
// (breakfast -> morning, lunch -> afternoon, evening snacks -> evening,
// dinner -> night).
type Vocabulary struct {
	Morning   string
	Afternoon string
	Evening   string
	Night     string
}

// DefaultVocabulary returns the built-in named times.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Morning:   DefaultMorningTime,
		Afternoon: DefaultAfternoonTime,
		Evening:   DefaultEveningTime,
		Night:     DefaultNightTime,
	}
}

var timeOfDayPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// ValidTime reports whether s is a well-formed "HH:MM" clock time.
func ValidTime(s string) bool {
	return timeOfDayPattern.MatchString(s)
}

// Normalize re-formats a valid clock time with zero padding ("9:05" -> "09:05").
// Invalid input is returned unchanged.
func Normalize(s string) string {
	h, m, ok := splitClock(s)
	if !ok {
		return s
	}
	return formatClock(h, m)
}

// Sanitize validates and normalizes a vocabulary, substituting the built-in
// default for any slot that is not a well-formed clock time.
func (v Vocabulary) Sanitize() Vocabulary {
	out := v
	if !ValidTime(out.Morning) {
		out.Morning = DefaultMorningTime
	}
	if !ValidTime(out.Afternoon) {
		out.Afternoon = DefaultAfternoonTime
	}
	if !ValidTime(out.Evening) {
		out.Evening = DefaultEveningTime
	}
	if !ValidTime(out.Night) {
		out.Night = DefaultNightTime
	}
	out.Morning = Normalize(out.Morning)
	out.Afternoon = Normalize(out.Afternoon)
	out.Evening = Normalize(out.Evening)
	out.Night = Normalize(out.Night)
	return out
}

func splitClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
