package schedule

import (
	"reflect"
	"testing"
)

func TestResolve_RulePrecedence(t *testing.T) {
	p := NewParser(DefaultVocabulary())

	tests := []struct {
		name      string
		frequency string
		dosage    string
		expected  []string
	}{
		// Empty input defaults to a single morning dose
		{"empty input", "", "", []string{"09:00"}},
		{"whitespace only", "   ", "  ", []string{"09:00"}},

		// Hourly intervals
		{"6 hourly", "6 hourly", "", []string{"06:00", "12:00", "18:00", "00:00"}},
		{"8 hourly", "8 hourly", "", []string{"08:00", "16:00", "00:00"}},
		{"12 hourly", "12 hourly", "", []string{"09:00", "21:00"}},
		{"24 hourly", "24 hourly", "", []string{"09:00"}},
		{"4 hourly synthesized", "4 hourly", "", []string{"08:00", "12:00", "16:00", "20:00", "00:00", "04:00"}},
		{"3 hourly synthesized", "3 hourly", "", []string{"08:00", "11:00", "14:00", "17:00", "20:00", "23:00", "02:00", "05:00"}},
		{"hourly in dosage text", "", "take 6 hourly", []string{"06:00", "12:00", "18:00", "00:00"}},
		{"interval over a day is a non-match", "48 hourly", "", []string{"09:00"}},

		// Dose-count segments in the dosage string
		{"two segments", "", "1 ml - 1 ml", []string{"09:00", "21:00"}},
		{"three segments", "", "1 ml - 1 ml - 1 ml", []string{"09:00", "13:00", "21:00"}},
		{"four segments", "", "5 mg - 5 mg - 5 mg - 5 mg", []string{"06:00", "12:00", "18:00", "00:00"}},
		{"mixed units", "", "2 units - 1 units - 2 units", []string{"09:00", "13:00", "21:00"}},
		{"five segments fall through", "", "1 mg - 1 mg - 1 mg - 1 mg - 1 mg", []string{"09:00"}},

		// Named time-of-day combinations outrank abbreviations
		{"morning and night", "morning and night", "", []string{"09:00", "21:00"}},
		{"morning and evening", "morning and evening", "", []string{"09:00", "18:00"}},
		{"morning and afternoon", "morning and afternoon", "", []string{"09:00", "13:00"}},
		{"exact morning", "morning", "", []string{"09:00"}},
		{"exact afternoon", "afternoon", "", []string{"13:00"}},
		{"exact evening", "evening", "", []string{"18:00"}},
		{"exact night", "night", "", []string{"21:00"}},
		{"one night", "1 night", "", []string{"21:00"}},

		// Medical abbreviations and cardinal frequency words
		{"od", "od", "", []string{"09:00"}},
		{"once daily", "once daily", "", []string{"09:00"}},
		{"1-0-0", "1-0-0", "", []string{"09:00"}},
		{"bid", "bid", "", []string{"09:00", "21:00"}},
		{"twice daily", "twice daily", "", []string{"09:00", "21:00"}},
		{"1-0-1", "1-0-1", "", []string{"09:00", "21:00"}},
		{"b.i.d with dots", "b.i.d", "", []string{"09:00", "21:00"}},
		{"tid", "tid", "", []string{"09:00", "13:00", "21:00"}},
		{"three times a day", "three times a day", "", []string{"09:00", "13:00", "21:00"}},
		{"1-1-1", "1-1-1", "", []string{"09:00", "13:00", "21:00"}},
		{"qid", "qid", "", []string{"06:00", "12:00", "18:00", "00:00"}},
		{"4 times daily", "4 times a day", "", []string{"06:00", "12:00", "18:00", "00:00"}},
		{"1-2 times", "1-2 times", "", []string{"09:00", "21:00"}},

		// Fallback substring scan in fixed chronological order
		{"night then morning mention", "at night and in the morning if needed", "", []string{"09:00", "21:00"}},
		{"evening mention only", "take in the evening please", "", []string{"18:00"}},
		{"no recognizable text", "as directed", "", []string{"09:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Resolve(tt.frequency, tt.dosage)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Resolve(%q, %q) = %v, want %v",
					tt.frequency, tt.dosage, got, tt.expected)
			}
		})
	}
}

func TestResolve_FirstMatchingRuleWins(t *testing.T) {
	p := NewParser(DefaultVocabulary())

	// "once at night" satisfies both the abbreviation group ("once") and the
	// fallback scan ("night"). The named-combination rule needs an exact
	// single-time match so it passes, and the abbreviation rule runs before
	// the fallback, so "once" decides.
	got := p.Resolve("once at night", "")
	want := []string{"09:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve(\"once at night\", \"\") = %v, want %v", got, want)
	}

	// But with "morning" present the named-combination rule claims the text
	// before any abbreviation is considered.
	got = p.Resolve("once in the morning and at night", "")
	want = []string{"09:00", "21:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve(\"once in the morning and at night\", \"\") = %v, want %v", got, want)
	}
}

func TestResolve_NeverEmpty(t *testing.T) {
	p := NewParser(DefaultVocabulary())

	inputs := [][2]string{
		{"", ""},
		{"???", "!!!"},
		{"0 hourly", ""},
		{"100 hourly", ""},
		{"zzz", "1 ml - 1 ml - 1 ml - 1 ml - 1 ml - 1 ml"},
		{"No information available", "No information available"},
	}

	for _, in := range inputs {
		got := p.Resolve(in[0], in[1])
		if len(got) == 0 {
			t.Errorf("Resolve(%q, %q) returned an empty schedule", in[0], in[1])
		}
		for _, tm := range got {
			if !ValidTime(tm) {
				t.Errorf("Resolve(%q, %q) produced malformed time %q", in[0], in[1], tm)
			}
		}
	}
}

func TestResolve_CustomVocabulary(t *testing.T) {
	p := NewParser(Vocabulary{
		Morning:   "07:30",
		Afternoon: "12:15",
		Evening:   "17:45",
		Night:     "22:00",
	})

	tests := []struct {
		frequency string
		expected  []string
	}{
		{"twice daily", []string{"07:30", "22:00"}},
		{"tid", []string{"07:30", "12:15", "22:00"}},
		{"morning", []string{"07:30"}},
		{"12 hourly", []string{"07:30", "22:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			got := p.Resolve(tt.frequency, "")
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.frequency, got, tt.expected)
			}
		})
	}
}

func TestResolve_InvalidVocabularyFallsBackToDefaults(t *testing.T) {
	p := NewParser(Vocabulary{Morning: "25:99", Night: "banana"})

	got := p.Resolve("twice daily", "")
	want := []string{DefaultMorningTime, DefaultNightTime}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve with invalid vocabulary = %v, want %v", got, want)
	}
}
