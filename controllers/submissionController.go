package controllers

import (
	"jofotara-backend/database"
	"jofotara-backend/jofotara"
	"jofotara-backend/middlewares"
	"jofotara-backend/models"

	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler carries the submitter and the seller lookup so tests
// can swap both for fakes.
type SubmissionHandler struct {
	Submitter *jofotara.Submitter
	Seller    func(c *fiber.Ctx) (*models.Company, error)
}

// NewSubmissionHandler wires the production handler: HTTP authority client,
// seller identity resolved from the tenant's company row.
func NewSubmissionHandler() *SubmissionHandler {
	return &SubmissionHandler{
		Submitter: jofotara.NewSubmitter(jofotara.NewHTTPClientFromEnv()),
		Seller:    sellerFromSchema,
	}
}

func sellerFromSchema(c *fiber.Ctx) (*models.Company, error) {
	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "tenant schema missing")
	}
	var company models.Company
	if err := database.DB.Where("schema_name = ?", schema).First(&company).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusConflict, "seller identity not configured for tenant")
	}
	return &company, nil
}

type SubmitInput struct {
	// Corrected acknowledges a previous validation_error attempt.
	Corrected bool `json:"corrected"`
}

// Submit reports an invoice to the authority and records the attempt.
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	var input SubmitInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	seller, err := h.Seller(c)
	if err != nil {
		return err
	}

	var invoice models.Invoice
	if err := db.First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	sub, err := h.Submitter.Submit(c.UserContext(), db, seller, invoice.ID, jofotara.SubmitOptions{
		Corrected: input.Corrected,
	})
	return respondSubmission(c, sub, err)
}

type CreditNoteInput struct {
	OriginalInvoiceID uint   `json:"original_invoice_id" validate:"required"`
	Reason            string `json:"reason" validate:"required"`
	Corrected         bool   `json:"corrected"`
}

// SubmitCreditNote reports an existing invoice as a credit note against an
// already submitted original. The invoice under :id is flagged as a credit
// invoice if it is not one yet, and the billing reference to the original
// is attached to the submission.
func (h *SubmissionHandler) SubmitCreditNote(c *fiber.Ctx) error {
	var input CreditNoteInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	seller, err := h.Seller(c)
	if err != nil {
		return err
	}

	var credit models.Invoice
	if err := db.First(&credit, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}
	if !credit.IsCreditInvoice {
		if err := db.Model(&credit).Update("is_credit_invoice", true).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not flag credit invoice")
		}
	}

	sub, err := h.Submitter.SubmitCreditNote(c.UserContext(), db, seller, credit.ID,
		input.OriginalInvoiceID, input.Reason, jofotara.SubmitOptions{Corrected: input.Corrected})
	return respondSubmission(c, sub, err)
}

// ListSubmissions returns the full attempt history for an invoice, oldest
// first. The history is append-only; this is the audit view.
func (h *SubmissionHandler) ListSubmissions(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var invoice models.Invoice
	if err := db.First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	var subs []models.Submission
	if err := db.Where("invoice_id = ?", invoice.ID).
		Order("created_at, id").
		Find(&subs).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list submissions")
	}
	return c.JSON(fiber.Map{"submissions": subs, "message": "success"})
}

// respondSubmission renders the attempt when one was recorded, even on
// failure: the caller needs to see the stored state, not just an error.
func respondSubmission(c *fiber.Ctx, sub *models.Submission, err error) error {
	if err != nil {
		if sub == nil {
			return err
		}
		status := fiber.StatusBadGateway
		if sub.Status == models.SubmissionValidationError {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{
			"submission": sub,
			"message":    err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"submission": sub,
		"message":    "submitted",
	})
}
