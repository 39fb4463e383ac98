package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// Parser resolves free-text prescription frequency and dosage descriptions
// into an ordered list of daily "HH:MM" reminder times.
//
// Matching is deliberately permissive: everything is lowercased and tested by
// substring, the way the text comes off handwritten prescriptions. Rules are
// evaluated strictly in order and the first satisfied rule wins, so ambiguous
// text ("once at night") resolves by precedence, not by longest match.
type Parser struct {
	vocab Vocabulary
}

// NewParser creates a parser over the given named-time vocabulary.
func NewParser(vocab Vocabulary) *Parser {
	return &Parser{vocab: vocab.Sanitize()}
}

var (
	hourlyPattern      = regexp.MustCompile(`(\d+)\s*hourly`)
	doseSegmentPattern = regexp.MustCompile(`(?i)^\s*\d+(?:\.\d+)?\s*(?:ml|mg|units)(?:\s*-\s*\d+(?:\.\d+)?\s*(?:ml|mg|units))+\s*$`)
)

// sixHourTimes is the canonical four-dose day. It is also used for the
// "qid" abbreviation and four-segment dosage patterns.
var sixHourTimes = []string{"06:00", "12:00", "18:00", "00:00"}

// eightHourTimes is the canonical three-dose day for "8 hourly".
var eightHourTimes = []string{"08:00", "16:00", "00:00"}

// Resolve turns a frequency description plus an optional dosage string into
// a non-empty ordered list of reminder times. It never fails: text that
// matches no rule falls back to a single morning dose.
func (p *Parser) Resolve(frequency, dosage string) []string {
	text := strings.TrimSpace(strings.ToLower(frequency + " " + dosage))

	type rule struct {
		match   func(text, dosage string) bool
		resolve func(text, dosage string) []string
	}

	// Order is load-bearing. Hourly intervals outrank dose-count segments,
	// which outrank named times of day, which outrank abbreviations.
	rules := []rule{
		{p.matchEmpty, p.resolveEmpty},
		{p.matchHourly, p.resolveHourly},
		{p.matchDoseSegments, p.resolveDoseSegments},
		{p.matchNamedCombination, p.resolveNamedCombination},
		{p.matchAbbreviation, p.resolveAbbreviation},
	}

	for _, r := range rules {
		if r.match(text, dosage) {
			if times := r.resolve(text, dosage); len(times) > 0 {
				return times
			}
			// A matched rule with a malformed capture is treated as a
			// non-match; fall through to the remaining rules.
		}
	}

	return p.fallbackScan(text)
}

func (p *Parser) matchEmpty(text, _ string) bool {
	return text == ""
}

func (p *Parser) resolveEmpty(_, _ string) []string {
	return []string{p.vocab.Morning}
}

func (p *Parser) matchHourly(text, _ string) bool {
	return hourlyPattern.MatchString(text)
}

func (p *Parser) resolveHourly(text, _ string) []string {
	m := hourlyPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	interval, err := strconv.Atoi(m[1])
	if err != nil || interval <= 0 {
		return nil
	}

	switch interval {
	case 6:
		return cloneTimes(sixHourTimes)
	case 8:
		return cloneTimes(eightHourTimes)
	case 12:
		return []string{p.vocab.Morning, p.vocab.Night}
	case 24:
		return []string{p.vocab.Morning}
	}

	dosesPerDay := 24 / interval
	if dosesPerDay < 1 {
		return nil
	}
	times := make([]string, 0, dosesPerDay)
	for i := 0; i < dosesPerDay; i++ {
		hour := (8 + i*interval) % 24
		times = append(times, formatClock(hour, 0))
	}
	return times
}

func (p *Parser) matchDoseSegments(_, dosage string) bool {
	return doseSegmentPattern.MatchString(dosage)
}

func (p *Parser) resolveDoseSegments(_, dosage string) []string {
	segments := strings.Count(dosage, "-") + 1
	switch segments {
	case 2:
		return []string{p.vocab.Morning, p.vocab.Night}
	case 3:
		return []string{p.vocab.Morning, p.vocab.Afternoon, p.vocab.Night}
	case 4:
		return cloneTimes(sixHourTimes)
	}
	return nil
}

func (p *Parser) matchNamedCombination(text, _ string) bool {
	return p.resolveNamedCombination(text, "") != nil
}

func (p *Parser) resolveNamedCombination(text, _ string) []string {
	morning := strings.Contains(text, "morning")
	switch {
	case morning && strings.Contains(text, "night"):
		return []string{p.vocab.Morning, p.vocab.Night}
	case morning && strings.Contains(text, "evening"):
		return []string{p.vocab.Morning, p.vocab.Evening}
	case morning && strings.Contains(text, "afternoon"):
		return []string{p.vocab.Morning, p.vocab.Afternoon}
	}

	switch text {
	case "morning":
		return []string{p.vocab.Morning}
	case "afternoon":
		return []string{p.vocab.Afternoon}
	case "evening":
		return []string{p.vocab.Evening}
	case "night", "1 night":
		return []string{p.vocab.Night}
	}
	return nil
}

// abbreviationGroups lists the recognized medical shorthand tokens in
// precedence order. Earlier groups win when text contains tokens from more
// than one group.
var abbreviationGroups = []struct {
	tokens []string
	times  func(v Vocabulary) []string
}{
	{
		tokens: []string{"od", "qd", "1-0-0", "once", "1 time", "once daily", "1 day", "once a day"},
		times:  func(v Vocabulary) []string { return []string{v.Morning} },
	},
	{
		tokens: []string{"bid", "bd", "1-0-1", "twice", "2 times", "twice daily", "b.i.d"},
		times:  func(v Vocabulary) []string { return []string{v.Morning, v.Night} },
	},
	{
		tokens: []string{"tid", "tds", "1-1-1", "three", "3 times", "t.i.d"},
		times:  func(v Vocabulary) []string { return []string{v.Morning, v.Afternoon, v.Night} },
	},
	{
		tokens: []string{"qid", "four", "4 times", "q.i.d"},
		times:  func(v Vocabulary) []string { return cloneTimes(sixHourTimes) },
	},
	{
		tokens: []string{"1-2 times"},
		times:  func(v Vocabulary) []string { return []string{v.Morning, v.Night} },
	},
}

func (p *Parser) matchAbbreviation(text, _ string) bool {
	return p.resolveAbbreviation(text, "") != nil
}

func (p *Parser) resolveAbbreviation(text, _ string) []string {
	for _, group := range abbreviationGroups {
		for _, token := range group.tokens {
			if strings.Contains(text, token) {
				return group.times(p.vocab)
			}
		}
	}
	return nil
}

// fallbackScan independently tests for each named time of day and appends
// matches in fixed chronological order. With no match at all, the schedule
// defaults to a single morning dose.
func (p *Parser) fallbackScan(text string) []string {
	var times []string
	if strings.Contains(text, "morning") {
		times = append(times, p.vocab.Morning)
	}
	if strings.Contains(text, "afternoon") {
		times = append(times, p.vocab.Afternoon)
	}
	if strings.Contains(text, "evening") {
		times = append(times, p.vocab.Evening)
	}
	if strings.Contains(text, "night") {
		times = append(times, p.vocab.Night)
	}
	if len(times) == 0 {
		return []string{p.vocab.Morning}
	}
	return dedupeTimes(times)
}

func cloneTimes(times []string) []string {
	out := make([]string, len(times))
	copy(out, times)
	return out
}

func dedupeTimes(times []string) []string {
	seen := make(map[string]bool, len(times))
	out := times[:0]
	for _, t := range times {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
