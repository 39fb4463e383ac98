package extraction

import (
	"strings"

	"medremind/internal/models"
)

const maxExtractionSize = 100 * 1024 // 100KB

// ParseMedicines splits the extraction model's markdown answer into one
// RawExtraction per "### Medicine N" block. Field lines look like
// "- **Name**: Amoxicillin". Unknown field labels are ignored; blocks with no
// usable fields at all are dropped. The function is forgiving about
// formatting drift since the text comes from an LLM, not a serializer.
func ParseMedicines(text string) []models.RawExtraction {
	if len(text) > maxExtractionSize {
		text = text[:maxExtractionSize]
	}

	// Normalize line endings
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var medicines []models.RawExtraction
	var current *models.RawExtraction

	flush := func() {
		if current != nil && hasContent(*current) {
			medicines = append(medicines, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if isMedicineHeading(line) {
			flush()
			current = &models.RawExtraction{}
			continue
		}
		if current == nil {
			continue
		}

		label, value, ok := parseFieldLine(line)
		if !ok {
			continue
		}
		switch strings.ToLower(label) {
		case "name", "medicine", "medicine name":
			current.Name = value
		case "dosage", "dose":
			current.Dosage = value
		case "frequency":
			current.Frequency = value
		case "timing":
			current.Timing = value
		case "duration":
			current.Duration = value
		}
	}
	flush()

	return medicines
}

// isMedicineHeading accepts "### Medicine 1" and minor variations like
// "## Medicine 2:".
func isMedicineHeading(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	heading := strings.ToLower(strings.TrimLeft(line, "# "))
	return strings.HasPrefix(heading, "medicine")
}

// parseFieldLine parses "- **Label**: value" bullet lines.
func parseFieldLine(line string) (label, value string, ok bool) {
	if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
		return "", "", false
	}
	line = strings.TrimLeft(line, "-* \t")

	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}

	label = strings.Trim(line[:idx], "* ")
	value = strings.TrimSpace(strings.Trim(strings.TrimSpace(line[idx+1:]), "*"))
	if label == "" {
		return "", "", false
	}
	return label, value, true
}

// hasContent reports whether the extraction carries at least one real field.
func hasContent(raw models.RawExtraction) bool {
	for _, field := range []string{raw.Name, raw.Dosage, raw.Frequency, raw.Timing, raw.Duration} {
		if field != "" && field != "No information available" {
			return true
		}
	}
	return false
}
