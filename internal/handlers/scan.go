package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"medremind/internal/services"
)

// 10 MB upload cap, matching the mobile client's camera output.
const maxUploadBytes = 10 * 1024 * 1024

// ScanHandler handles prescription scan HTTP requests
type ScanHandler struct {
	scans *services.ScanService
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(scans *services.ScanService) *ScanHandler {
	return &ScanHandler{scans: scans}
}

// Scan accepts a prescription photo or PDF as multipart form data and returns
// the normalized medication records.
// POST /api/scan
func (h *ScanHandler) Scan(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A 'file' upload is required",
		})
	}
	if fileHeader.Size > maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File exceeds the 10 MB limit",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read upload",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read upload",
		})
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	var result interface{}
	switch {
	case mimeType == "application/pdf" || strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf"):
		result, err = h.scans.ScanPDF(c.Context(), userID, data)
	case strings.HasPrefix(mimeType, "image/"):
		result, err = h.scans.ScanImage(c.Context(), userID, data, mimeType)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported file type, upload an image or PDF",
		})
	}

	if err != nil {
		return scanError(c, err)
	}
	return c.JSON(result)
}

// Usage returns today's scan count for the authenticated user
// GET /api/scan/usage
func (h *ScanHandler) Usage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	count, err := h.scans.ScansToday(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read scan usage",
		})
	}
	return c.JSON(fiber.Map{"scans_today": count})
}

func scanError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrScanLimitReached):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":   "Daily scan limit reached",
			"upgrade": "premium",
		})
	case errors.Is(err, services.ErrMedicationLimit):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "Medication limit reached for your plan",
			"upgrade": "premium",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Scan failed, please try again",
		})
	}
}
