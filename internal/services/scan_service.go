package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medremind/internal/database"
	"medremind/internal/extraction"
	"medremind/internal/logging"
	"medremind/internal/models"
	"medremind/internal/schedule"
)

var (
	// ErrScanLimitReached means the user exhausted today's scan quota.
	ErrScanLimitReached = errors.New("daily scan limit reached")
	// ErrMedicationLimit means adding the scanned medicines would exceed the
	// tier's medication cap.
	ErrMedicationLimit = errors.New("medication limit reached for current plan")
)

// ScanService runs the full prescription-scan pipeline: extraction model,
// markdown parsing, record building, persistence and reminder scheduling.
// Records are built against the requesting user's meal-time profile, so two
// users scanning the same prescription can get different reminder times.
type ScanService struct {
	extractor   *extraction.Client
	medications *MedicationService
	reminders   *ReminderService
	payments    *PaymentService
	settings    *SettingsService
	db          *database.DB
}

// NewScanService wires the scan pipeline together.
func NewScanService(extractor *extraction.Client, medications *MedicationService, reminders *ReminderService, payments *PaymentService, settings *SettingsService, db *database.DB) *ScanService {
	return &ScanService{
		extractor:   extractor,
		medications: medications,
		reminders:   reminders,
		payments:    payments,
		settings:    settings,
		db:          db,
	}
}

// vocabularyFromProfile maps the user's named meals onto the parser's named
// time-of-day slots (breakfast -> morning, lunch -> afternoon,
// evening snacks -> evening, dinner -> night).
func vocabularyFromProfile(profile models.MealTimeProfile) schedule.Vocabulary {
	return schedule.Vocabulary{
		Morning:   profile.Breakfast,
		Afternoon: profile.Lunch,
		Evening:   profile.EveningSnacks,
		Night:     profile.Dinner,
	}.Sanitize()
}

// builderFor returns a record builder resolving named times against the
// user's meal-time profile. The profile is authoritative for the named slots;
// a settings read failure degrades to the built-in defaults rather than
// failing the scan.
func (s *ScanService) builderFor(ctx context.Context, userID string) *schedule.Builder {
	profile, err := s.settings.GetMealTimes(ctx, userID)
	if err != nil {
		logging.WithScan("", userID).Warn("failed to load meal times, using defaults", "error", err)
		return schedule.NewBuilder(schedule.DefaultVocabulary())
	}
	return schedule.NewBuilder(vocabularyFromProfile(profile))
}

// ScanImage processes a prescription photo.
func (s *ScanService) ScanImage(ctx context.Context, userID string, imageData []byte, mimeType string) (*models.ScanResult, error) {
	return s.scan(ctx, userID, func() (string, error) {
		return s.extractor.ExtractFromImage(imageData, mimeType)
	})
}

// ScanPDF processes an uploaded prescription PDF. Text is pulled out locally
// so only text, not the document, goes to the extraction model.
func (s *ScanService) ScanPDF(ctx context.Context, userID string, pdfData []byte) (*models.ScanResult, error) {
	text, err := extraction.ExtractPDFText(pdfData)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return s.scan(ctx, userID, func() (string, error) {
		return s.extractor.ExtractFromText(text)
	})
}

func (s *ScanService) scan(ctx context.Context, userID string, extract func() (string, error)) (*models.ScanResult, error) {
	scanID := uuid.New().String()
	logger := logging.WithScan(scanID, userID)

	limits, err := s.tierLimits(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScanQuota(ctx, userID, limits); err != nil {
		scansTotal.WithLabelValues("quota_exceeded").Inc()
		return nil, err
	}

	raw, err := extract()
	if err != nil {
		scansTotal.WithLabelValues("extraction_error").Inc()
		logger.Error("extraction model call failed", "error", err)
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	extractions := extraction.ParseMedicines(raw)
	logger.Info("prescription scanned", "medicines_detected", len(extractions))

	if limits.MaxMedications >= 0 {
		count, err := s.medications.Count(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count+len(extractions) > limits.MaxMedications {
			return nil, ErrMedicationLimit
		}
	}

	builder := s.builderFor(ctx, userID)
	result := &models.ScanResult{Medications: make([]models.Medication, 0, len(extractions))}
	for _, ext := range extractions {
		med := builder.Build(ext)
		med.UserID = userID

		if err := s.medications.Add(ctx, &med); err != nil {
			logging.WithMedication(logger, med.ID, med.Name).Error("failed to save medication", "error", err)
			return nil, err
		}
		if med.ReminderEnabled {
			if err := s.reminders.Schedule(med); err != nil {
				logging.WithMedication(logger, med.ID, med.Name).Warn("failed to schedule reminders", "error", err)
			}
		}
		result.Medications = append(result.Medications, med)
	}

	if err := s.recordScan(ctx, scanID, userID); err != nil {
		logger.Warn("failed to record scan usage", "error", err)
	}

	scansTotal.WithLabelValues("ok").Inc()
	scannedMedicationsTotal.Add(float64(len(result.Medications)))
	return result, nil
}

// BuildFromRequest turns a manual-entry form into a full record, running the
// same normalization pipeline the scanner uses, against the user's meal-time
// profile. Explicit times skip parsing.
func (s *ScanService) BuildFromRequest(ctx context.Context, userID string, req *models.CreateMedicationRequest) models.Medication {
	med := s.builderFor(ctx, userID).Build(models.RawExtraction{
		Name:      req.Name,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
		Timing:    req.Timing,
		Duration:  req.Duration,
	})
	med.UserID = userID

	if len(req.Times) > 0 {
		valid := make([]string, 0, len(req.Times))
		for _, t := range req.Times {
			if schedule.ValidTime(t) {
				valid = append(valid, schedule.Normalize(t))
			}
		}
		if len(valid) > 0 {
			med.Times = valid
		}
	}
	if req.ReminderEnabled != nil {
		med.ReminderEnabled = *req.ReminderEnabled
	}
	if req.RefillReminder != nil {
		med.RefillReminder = *req.RefillReminder
	}
	return med
}

// ScansToday returns how many scans the user ran since local midnight.
func (s *ScanService) ScansToday(ctx context.Context, userID string) (int, error) {
	year, month, day := time.Now().Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.Local)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scan_log WHERE user_id = ? AND scanned_at >= ?`,
		userID, midnight,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return count, nil
}

func (s *ScanService) tierLimits(ctx context.Context, userID string) (models.TierLimits, error) {
	sub, err := s.payments.GetSubscription(ctx, userID)
	if err != nil {
		return models.TierLimits{}, err
	}
	return models.GetTierLimits(sub.EffectiveTier()), nil
}

func (s *ScanService) checkScanQuota(ctx context.Context, userID string, limits models.TierLimits) error {
	if limits.ScansPerDay < 0 {
		return nil
	}
	count, err := s.ScansToday(ctx, userID)
	if err != nil {
		return err
	}
	if count >= limits.ScansPerDay {
		return ErrScanLimitReached
	}
	return nil
}

func (s *ScanService) recordScan(ctx context.Context, scanID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_log (id, user_id, scanned_at) VALUES (?, ?, ?)`,
		scanID, userID, time.Now(),
	)
	return err
}
