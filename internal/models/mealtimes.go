package models

import "fmt"

// Default meal times, aligned with the engine's canonical named times.
const (
	DefaultBreakfastTime     = "09:00"
	DefaultLunchTime         = "13:00"
	DefaultEveningSnacksTime = "18:00"
	DefaultDinnerTime        = "21:00"
)

// MealTimeProfile is the user-configurable mapping of named meals to clock
// times. The schedule engine treats it as authoritative for resolving the
// morning/afternoon/evening/night slots.
type MealTimeProfile struct {
	Breakfast     string `json:"breakfast" yaml:"breakfast"`
	Lunch         string `json:"lunch" yaml:"lunch"`
	EveningSnacks string `json:"eveningSnacks" yaml:"eveningSnacks"`
	Dinner        string `json:"dinner" yaml:"dinner"`
}

// DefaultMealTimes returns the built-in profile used when the user has not
// configured one.
func DefaultMealTimes() MealTimeProfile {
	return MealTimeProfile{
		Breakfast:     DefaultBreakfastTime,
		Lunch:         DefaultLunchTime,
		EveningSnacks: DefaultEveningSnacksTime,
		Dinner:        DefaultDinnerTime,
	}
}

// Validate checks every slot is a well-formed HH:MM time.
func (p MealTimeProfile) Validate() error {
	for name, value := range map[string]string{
		"breakfast":     p.Breakfast,
		"lunch":         p.Lunch,
		"eveningSnacks": p.EveningSnacks,
		"dinner":        p.Dinner,
	} {
		if !validClockTime(value) {
			return fmt.Errorf("invalid %s time %q, expected HH:MM", name, value)
		}
	}
	return nil
}

// Duplicates the schedule package's clock validation; models must stay a
// leaf package with no import of the engine.
func validClockTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}
