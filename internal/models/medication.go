package models

import "time"

// RawExtraction carries the free-text fields the extraction model read off a
// prescription for one medicine. Fields the model could not read hold the
// "No information available" sentinel or are empty. Values are never mutated
// after extraction.
type RawExtraction struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Timing    string `json:"timing,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Medication is the canonical record the app stores, reminds from and
// decrements as doses are taken.
type Medication struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Dosage          string    `json:"dosage"`
	Times           []string  `json:"times"`
	StartDate       time.Time `json:"startDate"`
	Duration        string    `json:"duration"`
	Color           string    `json:"color"`
	CurrentSupply   int       `json:"currentSupply"`
	TotalSupply     int       `json:"totalSupply"`
	RefillAt        int       `json:"refillAt"`
	ReminderEnabled bool      `json:"reminderEnabled"`
	RefillReminder  bool      `json:"refillReminder"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NeedsRefill reports whether the remaining supply has crossed the refill
// threshold.
func (m *Medication) NeedsRefill() bool {
	return m.RefillReminder && m.TotalSupply > 0 && m.CurrentSupply <= m.RefillAt
}

// CreateMedicationRequest is the manual-entry form payload.
type CreateMedicationRequest struct {
	Name            string   `json:"name"`
	Dosage          string   `json:"dosage"`
	Frequency       string   `json:"frequency"`
	Timing          string   `json:"timing,omitempty"`
	Duration        string   `json:"duration,omitempty"`
	Times           []string `json:"times,omitempty"` // explicit times override parsing
	ReminderEnabled *bool    `json:"reminderEnabled,omitempty"`
	RefillReminder  *bool    `json:"refillReminder,omitempty"`
}

// UpdateMedicationRequest replaces an existing record's editable fields.
type UpdateMedicationRequest struct {
	Name            *string  `json:"name,omitempty"`
	Dosage          *string  `json:"dosage,omitempty"`
	Times           []string `json:"times,omitempty"`
	Duration        *string  `json:"duration,omitempty"`
	Color           *string  `json:"color,omitempty"`
	CurrentSupply   *int     `json:"currentSupply,omitempty"`
	TotalSupply     *int     `json:"totalSupply,omitempty"`
	RefillAt        *int     `json:"refillAt,omitempty"`
	ReminderEnabled *bool    `json:"reminderEnabled,omitempty"`
	RefillReminder  *bool    `json:"refillReminder,omitempty"`
}

// Dose event status values.
const (
	DoseTaken   = "taken"
	DoseSkipped = "skipped"
)

// DoseEvent is one entry in a medication's dose history.
type DoseEvent struct {
	ID           string    `json:"id"`
	MedicationID string    `json:"medicationId"`
	UserID       string    `json:"userId"`
	Status       string    `json:"status"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// ScanResult is the response of a prescription scan: one canonical record per
// medicine the extraction model detected.
type ScanResult struct {
	Medications []Medication `json:"medications"`
	RawText     string       `json:"rawText,omitempty"`
}
