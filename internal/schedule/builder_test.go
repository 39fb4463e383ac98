package schedule

import (
	"reflect"
	"testing"
	"time"

	"medremind/internal/models"
)

func newTestBuilder() *Builder {
	b := NewBuilder(DefaultVocabulary())
	b.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	b.newID = func() string { return "med-test-id" }
	b.pickIdx = func(int) int { return 0 }
	return b
}

func TestBuild_FullPrescription(t *testing.T) {
	b := newTestBuilder()

	med := b.Build(models.RawExtraction{
		Name:      "Amoxicillin",
		Dosage:    "500mg",
		Frequency: "twice daily",
		Timing:    "after food",
		Duration:  "14 days",
	})

	if med.ID == "" {
		t.Error("expected an assigned id")
	}
	if med.Name != "Amoxicillin" || med.Dosage != "500mg" {
		t.Errorf("unexpected name/dosage: %q / %q", med.Name, med.Dosage)
	}
	wantTimes := []string{"09:30", "21:30"} // twice daily shifted for after food
	if !reflect.DeepEqual(med.Times, wantTimes) {
		t.Errorf("Times = %v, want %v", med.Times, wantTimes)
	}
	if med.TotalSupply != 28 {
		t.Errorf("TotalSupply = %d, want 28", med.TotalSupply)
	}
	if med.CurrentSupply != med.TotalSupply {
		t.Errorf("CurrentSupply = %d, want full supply %d", med.CurrentSupply, med.TotalSupply)
	}
	if med.RefillAt != 6 { // ceil(28 * 0.2)
		t.Errorf("RefillAt = %d, want 6", med.RefillAt)
	}
	if !med.ReminderEnabled || !med.RefillReminder {
		t.Error("reminders should default to enabled")
	}
	if med.Color == "" {
		t.Error("expected a palette color")
	}
}

func TestBuild_MissingFieldsGetPlaceholders(t *testing.T) {
	b := newTestBuilder()

	med := b.Build(models.RawExtraction{
		Name:      "No information available",
		Dosage:    "",
		Frequency: "No information available",
		Duration:  "No information available",
	})

	if med.Name != PlaceholderName {
		t.Errorf("Name = %q, want %q", med.Name, PlaceholderName)
	}
	if med.Dosage != PlaceholderDosage {
		t.Errorf("Dosage = %q, want %q", med.Dosage, PlaceholderDosage)
	}
	// Sentinel frequency and dosage count as empty input
	if !reflect.DeepEqual(med.Times, []string{"09:00"}) {
		t.Errorf("Times = %v, want single morning default", med.Times)
	}
	if med.TotalSupply != 30 || med.RefillAt != 6 {
		t.Errorf("supply = %d/%d, want 30/6", med.TotalSupply, med.RefillAt)
	}
}

func TestBuild_DoseSegmentsDriveScheduleAndSupply(t *testing.T) {
	b := newTestBuilder()

	med := b.Build(models.RawExtraction{
		Name:     "Paracetamol Syrup",
		Dosage:   "1 ml - 1 ml - 1 ml",
		Duration: "10 days",
	})

	if !reflect.DeepEqual(med.Times, []string{"09:00", "13:00", "21:00"}) {
		t.Errorf("Times = %v, want three-dose day", med.Times)
	}
	if med.TotalSupply != 30 { // 10 days * 3 doses
		t.Errorf("TotalSupply = %d, want 30", med.TotalSupply)
	}
}

func TestBuild_OneToTwoTimesKeepsAverageSupplyRate(t *testing.T) {
	b := newTestBuilder()

	med := b.Build(models.RawExtraction{
		Name:      "Antacid",
		Frequency: "1-2 times",
		Duration:  "30 days",
	})

	// Two reminder times but supply accrues at the 1.5/day average; the
	// mismatch is intentional and mirrors how such prescriptions are filled.
	if len(med.Times) != 2 {
		t.Errorf("Times = %v, want 2 entries", med.Times)
	}
	if med.TotalSupply != 45 {
		t.Errorf("TotalSupply = %d, want 45", med.TotalSupply)
	}
}

func TestBuild_NeverProducesUnusableRecord(t *testing.T) {
	b := newTestBuilder()

	inputs := []models.RawExtraction{
		{},
		{Frequency: "???", Dosage: "!!!", Duration: "???"},
		{Name: "X", Frequency: "0 hourly", Duration: "-5 days"},
	}

	for _, raw := range inputs {
		med := b.Build(raw)
		if len(med.Times) == 0 {
			t.Errorf("Build(%+v) produced no times", raw)
		}
		for _, tm := range med.Times {
			if !ValidTime(tm) {
				t.Errorf("Build(%+v) produced malformed time %q", raw, tm)
			}
		}
		if med.TotalSupply <= 0 {
			t.Errorf("Build(%+v) produced TotalSupply %d", raw, med.TotalSupply)
		}
		if med.RefillAt >= med.TotalSupply {
			t.Errorf("Build(%+v): RefillAt %d >= TotalSupply %d", raw, med.RefillAt, med.TotalSupply)
		}
	}
}

func TestBuild_PanicDegradesToFallbackRecord(t *testing.T) {
	b := newTestBuilder()
	b.parser = nil // force a panic inside the pipeline

	med := b.Build(models.RawExtraction{Name: "Ibuprofen", Frequency: "bid"})

	if !reflect.DeepEqual(med.Times, []string{FallbackTime}) {
		t.Errorf("Times = %v, want fallback %q", med.Times, FallbackTime)
	}
	if med.TotalSupply != 30 || med.RefillAt != 6 {
		t.Errorf("supply = %d/%d, want defensive 30/6", med.TotalSupply, med.RefillAt)
	}
	if med.Name != "Ibuprofen" {
		t.Errorf("Name = %q, fallback record should keep extracted name", med.Name)
	}
}
