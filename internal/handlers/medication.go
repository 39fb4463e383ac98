package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"medremind/internal/models"
	"medremind/internal/services"
)

// MedicationHandler handles medication HTTP requests
type MedicationHandler struct {
	medications *services.MedicationService
	scans       *services.ScanService
	reminders   *services.ReminderService
	payments    *services.PaymentService
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(medications *services.MedicationService, scans *services.ScanService, reminders *services.ReminderService, payments *services.PaymentService) *MedicationHandler {
	return &MedicationHandler{
		medications: medications,
		scans:       scans,
		reminders:   reminders,
		payments:    payments,
	}
}

// List returns all medications for the authenticated user
// GET /api/medications
func (h *MedicationHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	meds, err := h.medications.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list medications",
		})
	}
	return c.JSON(fiber.Map{"medications": meds})
}

// Get returns one medication plus its next scheduled dose
// GET /api/medications/:id
func (h *MedicationHandler) Get(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	med, err := h.medications.Get(c.Context(), userID, c.Params("id"))
	if err != nil {
		return medicationError(c, err)
	}

	resp := fiber.Map{"medication": med}
	if med.ReminderEnabled {
		if next, at, err := services.NextDose(med.Times, time.Now()); err == nil {
			resp["nextDose"] = next
			resp["nextDoseAt"] = at
		}
	}
	return c.JSON(resp)
}

// Create adds a medication from the manual-entry form. Free-text frequency,
// timing and duration go through the same normalization the scanner uses.
// POST /api/medications
func (h *MedicationHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req models.CreateMedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Medication name is required",
		})
	}

	if err := h.checkMedicationLimit(c, userID); err != nil {
		return err
	}

	med := h.scans.BuildFromRequest(c.Context(), userID, &req)
	if err := h.medications.Add(c.Context(), &med); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save medication",
		})
	}

	if med.ReminderEnabled {
		if err := h.reminders.Schedule(med); err != nil {
			// Record is saved; reminders will be rebuilt on next restart.
			return c.Status(fiber.StatusCreated).JSON(med)
		}
	}
	return c.Status(fiber.StatusCreated).JSON(med)
}

// Update edits a medication and reschedules its reminders
// PUT /api/medications/:id
func (h *MedicationHandler) Update(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req models.UpdateMedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	med, err := h.medications.Update(c.Context(), userID, c.Params("id"), &req)
	if err != nil {
		return medicationError(c, err)
	}

	if med.ReminderEnabled {
		_ = h.reminders.Schedule(*med)
	} else {
		h.reminders.Unschedule(med.ID)
	}
	return c.JSON(med)
}

// Delete removes a medication and its reminders
// DELETE /api/medications/:id
func (h *MedicationHandler) Delete(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")

	if err := h.medications.Delete(c.Context(), userID, id); err != nil {
		return medicationError(c, err)
	}
	h.reminders.Unschedule(id)
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordDose marks a scheduled dose taken or skipped
// POST /api/medications/:id/dose
func (h *MedicationHandler) RecordDose(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Status != models.DoseTaken && req.Status != models.DoseSkipped {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status must be 'taken' or 'skipped'",
		})
	}

	med, err := h.medications.RecordDose(c.Context(), userID, c.Params("id"), req.Status)
	if err != nil {
		return medicationError(c, err)
	}
	return c.JSON(fiber.Map{
		"medication":  med,
		"needsRefill": med.NeedsRefill(),
	})
}

// Refill restores a medication's supply to its total
// POST /api/medications/:id/refill
func (h *MedicationHandler) Refill(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	med, err := h.medications.Refill(c.Context(), userID, c.Params("id"))
	if err != nil {
		return medicationError(c, err)
	}
	return c.JSON(med)
}

// DoseHistory returns the dose event log for a medication
// GET /api/medications/:id/history
func (h *MedicationHandler) DoseHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	events, err := h.medications.DoseHistory(c.Context(), userID, c.Params("id"), limit)
	if err != nil {
		return medicationError(c, err)
	}
	return c.JSON(fiber.Map{"events": events})
}

// LowSupply returns the user's medications at or below their refill threshold
// GET /api/medications/low-supply
func (h *MedicationHandler) LowSupply(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	meds, err := h.medications.LowSupply(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list low-supply medications",
		})
	}
	return c.JSON(fiber.Map{"medications": meds})
}

func (h *MedicationHandler) checkMedicationLimit(c *fiber.Ctx, userID string) error {
	sub, err := h.payments.GetSubscription(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check subscription",
		})
	}
	limits := models.GetTierLimits(sub.EffectiveTier())
	if limits.MaxMedications < 0 {
		return nil
	}

	count, err := h.medications.Count(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check medication count",
		})
	}
	if count >= limits.MaxMedications {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "Medication limit reached for your plan",
			"limit":   limits.MaxMedications,
			"upgrade": "premium",
		})
	}
	return nil
}

func medicationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Medication not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
