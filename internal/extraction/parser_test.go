package extraction

import (
	"reflect"
	"testing"

	"medremind/internal/models"
)

func TestParseMedicines(t *testing.T) {
	text := `Here are the medicines I can identify:

### Medicine 1
- **Name**: Amoxicillin
- **Dosage**: 500mg
- **Frequency**: twice daily
- **Timing**: after food
- **Duration**: 14 days

### Medicine 2
- **Name**: Paracetamol Syrup
- **Dosage**: 1 ml - 1 ml - 1 ml
- **Frequency**: No information available
- **Timing**: No information available
- **Duration**: 5 days
`

	got := ParseMedicines(text)
	want := []models.RawExtraction{
		{
			Name:      "Amoxicillin",
			Dosage:    "500mg",
			Frequency: "twice daily",
			Timing:    "after food",
			Duration:  "14 days",
		},
		{
			Name:      "Paracetamol Syrup",
			Dosage:    "1 ml - 1 ml - 1 ml",
			Frequency: "No information available",
			Timing:    "No information available",
			Duration:  "5 days",
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseMedicines() = %+v, want %+v", got, want)
	}
}

func TestParseMedicines_FormattingDrift(t *testing.T) {
	// LLM output wobbles: different heading depth, trailing colon, plain
	// asterisk bullets, bold values.
	text := "## Medicine 1:\r\n" +
		"* **Name**: Ibuprofen\r\n" +
		"* **Dose**: 200mg\r\n" +
		"* **Frequency**: **tid**\r\n"

	got := ParseMedicines(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 medicine, got %d", len(got))
	}
	if got[0].Name != "Ibuprofen" || got[0].Dosage != "200mg" || got[0].Frequency != "tid" {
		t.Errorf("unexpected extraction: %+v", got[0])
	}
}

func TestParseMedicines_SkipsEmptyBlocks(t *testing.T) {
	text := `### Medicine 1
- **Name**: No information available
- **Dosage**: No information available

### Medicine 2
- **Name**: Cetirizine
`

	got := ParseMedicines(text)
	if len(got) != 1 {
		t.Fatalf("expected only the non-empty block, got %d medicines", len(got))
	}
	if got[0].Name != "Cetirizine" {
		t.Errorf("Name = %q, want Cetirizine", got[0].Name)
	}
}

func TestParseMedicines_NoBlocks(t *testing.T) {
	for _, text := range []string{"", "I could not read this prescription.", "- **Name**: orphan line"} {
		if got := ParseMedicines(text); len(got) != 0 {
			t.Errorf("ParseMedicines(%q) = %+v, want none", text, got)
		}
	}
}
