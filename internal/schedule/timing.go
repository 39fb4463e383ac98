package schedule

import "strings"

// FoodOffsetMinutes is the shift applied for "before food"/"after food"
// instructions.
const FoodOffsetMinutes = 30

// AdjustForTiming shifts every reminder time by the food offset when the
// timing modifier calls for it: "after food" pushes doses 30 minutes later,
// "before food" pulls them 30 minutes earlier. Hours wrap around midnight.
// Without a recognized modifier the input is returned untouched.
//
// The shift is applied once per record, at build time. Re-applying it to an
// already-adjusted schedule compounds the offset.
func AdjustForTiming(times []string, modifier string) []string {
	mod := strings.ToLower(modifier)
	switch {
	case strings.Contains(mod, "after food"):
		return shiftAll(times, FoodOffsetMinutes)
	case strings.Contains(mod, "before food"):
		return shiftAll(times, -FoodOffsetMinutes)
	}
	return times
}

func shiftAll(times []string, offsetMinutes int) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = shiftClock(t, offsetMinutes)
	}
	return out
}

func shiftClock(t string, offsetMinutes int) string {
	h, m, ok := splitClock(t)
	if !ok {
		// Malformed input passes through unchanged rather than erroring.
		return t
	}
	total := (h*60 + m + offsetMinutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return formatClock(total/60, total%60)
}
