package controllers

import (
	"jofotara-backend/database"
	"jofotara-backend/models"
	"jofotara-backend/numbering"

	"github.com/gofiber/fiber/v2"
)

// SequenceReport runs the read-only gap scan for one series.
func SequenceReport(c *fiber.Ctx) error {
	kind := models.SeriesKind(c.Params("kind"))
	if !kind.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown series kind")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	report, err := numbering.Scan(db, kind)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// ResequenceSeries renumbers a whole series in creation order. The batch is
// all-or-nothing: one locked invoice aborts it untouched.
func ResequenceSeries(c *fiber.Ctx) error {
	kind := models.SeriesKind(c.Params("kind"))
	if !kind.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown series kind")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	actorID, _ := c.Locals("userID").(string)
	changed, err := numbering.BulkResequence(db, kind, actorID)
	if err != nil {
		return err
	}

	report, err := numbering.Scan(db, kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"renumbered": changed,
		"report":     report,
		"message":    "success",
	})
}
