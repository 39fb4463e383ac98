package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medremind/internal/database"
	"medremind/internal/models"
)

// ErrNotFound is returned when a record does not exist or belongs to another
// user.
var ErrNotFound = fmt.Errorf("record not found")

// MedicationService owns medication persistence: the canonical records the
// engine produces, plus dose history and supply bookkeeping.
type MedicationService struct {
	db *database.DB
}

// NewMedicationService creates a medication service.
func NewMedicationService(db *database.DB) *MedicationService {
	return &MedicationService{db: db}
}

// Add appends a new medication record.
func (s *MedicationService) Add(ctx context.Context, med *models.Medication) error {
	times, err := json.Marshal(med.Times)
	if err != nil {
		return fmt.Errorf("failed to encode times: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO medications (
			id, user_id, name, dosage, times, start_date, duration, color,
			current_supply, total_supply, refill_at,
			reminder_enabled, refill_reminder, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		med.ID, med.UserID, med.Name, med.Dosage, string(times), med.StartDate,
		med.Duration, med.Color, med.CurrentSupply, med.TotalSupply, med.RefillAt,
		med.ReminderEnabled, med.RefillReminder, med.CreatedAt, med.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert medication: %w", err)
	}
	return nil
}

// Get returns one medication owned by the user.
func (s *MedicationService) Get(ctx context.Context, userID, id string) (*models.Medication, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, dosage, times, start_date, duration, color,
			current_supply, total_supply, refill_at,
			reminder_enabled, refill_reminder, created_at, updated_at
		FROM medications WHERE id = ? AND user_id = ?`, id, userID)
	return scanMedication(row)
}

// List returns all of the user's medications, newest first.
func (s *MedicationService) List(ctx context.Context, userID string) ([]models.Medication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, dosage, times, start_date, duration, color,
			current_supply, total_supply, refill_at,
			reminder_enabled, refill_reminder, created_at, updated_at
		FROM medications WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var meds []models.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, *med)
	}
	return meds, rows.Err()
}

// Count returns how many medications the user currently tracks.
func (s *MedicationService) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM medications WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// Update replaces the editable fields of an existing record.
func (s *MedicationService) Update(ctx context.Context, userID, id string, req *models.UpdateMedicationRequest) (*models.Medication, error) {
	med, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		med.Name = *req.Name
	}
	if req.Dosage != nil {
		med.Dosage = *req.Dosage
	}
	if len(req.Times) > 0 {
		med.Times = req.Times
	}
	if req.Duration != nil {
		med.Duration = *req.Duration
	}
	if req.Color != nil {
		med.Color = *req.Color
	}
	if req.CurrentSupply != nil {
		med.CurrentSupply = *req.CurrentSupply
	}
	if req.TotalSupply != nil {
		med.TotalSupply = *req.TotalSupply
	}
	if req.RefillAt != nil {
		med.RefillAt = *req.RefillAt
	}
	if req.ReminderEnabled != nil {
		med.ReminderEnabled = *req.ReminderEnabled
	}
	if req.RefillReminder != nil {
		med.RefillReminder = *req.RefillReminder
	}
	med.UpdatedAt = time.Now()

	times, err := json.Marshal(med.Times)
	if err != nil {
		return nil, fmt.Errorf("failed to encode times: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE medications SET
			name = ?, dosage = ?, times = ?, duration = ?, color = ?,
			current_supply = ?, total_supply = ?, refill_at = ?,
			reminder_enabled = ?, refill_reminder = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		med.Name, med.Dosage, string(times), med.Duration, med.Color,
		med.CurrentSupply, med.TotalSupply, med.RefillAt,
		med.ReminderEnabled, med.RefillReminder, med.UpdatedAt,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}
	return med, nil
}

// Delete removes a medication and (via cascade) its dose history.
func (s *MedicationService) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM medications WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordDose logs a taken or skipped dose. Taken doses decrement the current
// supply, never below zero.
func (s *MedicationService) RecordDose(ctx context.Context, userID, medicationID, status string) (*models.Medication, error) {
	if status != models.DoseTaken && status != models.DoseSkipped {
		return nil, fmt.Errorf("invalid dose status %q", status)
	}

	med, err := s.Get(ctx, userID, medicationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dose_events (id, medication_id, user_id, status, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), medicationID, userID, status, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record dose: %w", err)
	}

	if status == models.DoseTaken && med.CurrentSupply > 0 {
		med.CurrentSupply--
		med.UpdatedAt = now
		_, err = s.db.ExecContext(ctx,
			"UPDATE medications SET current_supply = ?, updated_at = ? WHERE id = ?",
			med.CurrentSupply, now, medicationID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement supply: %w", err)
		}
	}

	return med, nil
}

// Refill resets the current supply to the full total.
func (s *MedicationService) Refill(ctx context.Context, userID, medicationID string) (*models.Medication, error) {
	med, err := s.Get(ctx, userID, medicationID)
	if err != nil {
		return nil, err
	}

	med.CurrentSupply = med.TotalSupply
	med.UpdatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		"UPDATE medications SET current_supply = ?, updated_at = ? WHERE id = ?",
		med.CurrentSupply, med.UpdatedAt, medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to refill: %w", err)
	}
	return med, nil
}

// DoseHistory returns the user's dose events for one medication, newest first.
func (s *MedicationService) DoseHistory(ctx context.Context, userID, medicationID string, limit int) ([]models.DoseEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, medication_id, user_id, status, recorded_at
		FROM dose_events WHERE medication_id = ? AND user_id = ?
		ORDER BY recorded_at DESC LIMIT ?`, medicationID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dose events: %w", err)
	}
	defer rows.Close()

	var events []models.DoseEvent
	for rows.Next() {
		var e models.DoseEvent
		if err := rows.Scan(&e.ID, &e.MedicationID, &e.UserID, &e.Status, &e.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LowSupply returns the user's medications at or below their refill threshold
// with refill reminders enabled.
func (s *MedicationService) LowSupply(ctx context.Context, userID string) ([]models.Medication, error) {
	meds, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	low := make([]models.Medication, 0)
	for _, med := range meds {
		if med.NeedsRefill() {
			low = append(low, med)
		}
	}
	return low, nil
}

// AllLowSupply sweeps every user's medications for refill candidates.
// Used by the daily refill-check job.
func (s *MedicationService) AllLowSupply(ctx context.Context) ([]models.Medication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, dosage, times, start_date, duration, color,
			current_supply, total_supply, refill_at,
			reminder_enabled, refill_reminder, created_at, updated_at
		FROM medications
		WHERE refill_reminder = 1 AND total_supply > 0 AND current_supply <= refill_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query low supply: %w", err)
	}
	defer rows.Close()

	var meds []models.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, *med)
	}
	return meds, rows.Err()
}

// AllWithReminders returns every medication with reminders enabled, for
// rebuilding the trigger set on startup.
func (s *MedicationService) AllWithReminders(ctx context.Context) ([]models.Medication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, dosage, times, start_date, duration, color,
			current_supply, total_supply, refill_at,
			reminder_enabled, refill_reminder, created_at, updated_at
		FROM medications WHERE reminder_enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder medications: %w", err)
	}
	defer rows.Close()

	var meds []models.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, *med)
	}
	return meds, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (*models.Medication, error) {
	var med models.Medication
	var times string
	err := row.Scan(
		&med.ID, &med.UserID, &med.Name, &med.Dosage, &times, &med.StartDate,
		&med.Duration, &med.Color, &med.CurrentSupply, &med.TotalSupply,
		&med.RefillAt, &med.ReminderEnabled, &med.RefillReminder,
		&med.CreatedAt, &med.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan medication: %w", err)
	}
	if err := json.Unmarshal([]byte(times), &med.Times); err != nil {
		return nil, fmt.Errorf("failed to decode times: %w", err)
	}
	return &med, nil
}
