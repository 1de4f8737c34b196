package controllers

import (
	"fmt"
	"time"

	"jofotara-backend/database"
	"jofotara-backend/jofotara"
	"jofotara-backend/middlewares"
	"jofotara-backend/models"
	"jofotara-backend/numbering"
	"jofotara-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type LineItemInput struct {
	ArticleID   *string `json:"article_id"`
	Description string  `json:"description" validate:"required"`
	Quantity    string  `json:"quantity" validate:"required"`
	UnitPrice   string  `json:"unit_price" validate:"required"`
	Discount    string  `json:"discount"`
	TaxCategory string  `json:"tax_category" validate:"omitempty,oneof=standard zero_rated exempt"`
	TaxPercent  string  `json:"tax_percent"`
}

type CreateInvoiceInput struct {
	CustomerID    uint            `json:"customer_id" validate:"required"`
	Kind          string          `json:"kind" validate:"omitempty,oneof=taxable exempt write_off quote"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash receivable"`
	IssueDate     string          `json:"issue_date"`
	Note          string          `json:"note"`
	Items         []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// buildItems parses and validates the line inputs into model rows.
func buildItems(inputs []LineItemInput) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0, len(inputs))
	for i, in := range inputs {
		qty, err := utils.ParseAmount(in.Quantity)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("line %d: %s", i, err.Error()))
		}
		price, err := utils.ParseAmount(in.UnitPrice)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("line %d: %s", i, err.Error()))
		}
		discount, err := utils.ParseAmount(in.Discount)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("line %d: %s", i, err.Error()))
		}
		percent, err := utils.ParseAmount(in.TaxPercent)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("line %d: %s", i, err.Error()))
		}
		if qty.IsNegative() || price.IsNegative() || discount.IsNegative() {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("line %d: negative amounts are not allowed", i))
		}
		category := models.TaxCategory(in.TaxCategory)
		if in.TaxCategory == "" {
			category = models.TaxStandard
		}
		items = append(items, models.LineItem{
			ArticleID:   in.ArticleID,
			Description: in.Description,
			Quantity:    qty,
			UnitPrice:   price,
			Discount:    discount,
			TaxCategory: category,
			TaxPercent:  percent,
		})
	}
	return items, nil
}

// CreateInvoice mints a number from the requested series and persists the
// draft in the same request transaction: a creation that fails after
// allocation burns the number, which the gap report will surface.
func CreateInvoice(c *fiber.Ctx) error {
	var input CreateInvoiceInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	items, err := buildItems(input.Items)
	if err != nil {
		return err
	}

	totals, err := jofotara.ComputeTotals(items)
	if err != nil {
		return err
	}

	kind := models.SeriesKind(input.Kind)
	if input.Kind == "" {
		kind = models.SeriesTaxable
	}

	issueDate := time.Now().UTC().Truncate(24 * time.Hour)
	if input.IssueDate != "" {
		issueDate, err = time.Parse("2006-01-02", input.IssueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid issue_date, want YYYY-MM-DD")
		}
	}

	number, err := numbering.Allocate(db, kind)
	if err != nil {
		return err
	}

	currency := input.Currency
	if currency == "" {
		currency = "JOD"
	}
	method := models.PaymentMethod(input.PaymentMethod)
	if input.PaymentMethod == "" {
		method = models.PaymentCash
	}

	invoice := models.Invoice{
		Number:        number,
		Kind:          kind,
		CustomerID:    input.CustomerID,
		Items:         items,
		Status:        models.InvoiceDraft,
		Currency:      currency,
		PaymentMethod: method,
		Subtotal:      totals.TaxExclusive,
		DiscountTotal: totals.Discount,
		TaxTotal:      totals.Tax,
		Total:         totals.TaxInclusive,
		IssueDate:     issueDate,
		Note:          input.Note,
	}
	if err := db.Create(&invoice).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create invoice: "+err.Error())
	}

	db.Preload("Items").Preload("Customer").First(&invoice, invoice.ID)
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// DuplicateInvoice copies an invoice's lines into a fresh draft with a
// fresh number from the same series.
func DuplicateInvoice(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var source models.Invoice
	if err := db.Preload("Items").First(&source, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	number, err := numbering.Allocate(db, source.Kind)
	if err != nil {
		return err
	}

	copyInv := models.Invoice{
		Number:        number,
		Kind:          source.Kind,
		CustomerID:    source.CustomerID,
		Items:         copyItems(source.Items),
		Status:        models.InvoiceDraft,
		Currency:      source.Currency,
		PaymentMethod: source.PaymentMethod,
		Subtotal:      source.Subtotal,
		DiscountTotal: source.DiscountTotal,
		TaxTotal:      source.TaxTotal,
		Total:         source.Total,
		IssueDate:     time.Now().UTC().Truncate(24 * time.Hour),
		Note:          source.Note,
	}
	if err := db.Create(&copyInv).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not duplicate invoice: "+err.Error())
	}

	db.Preload("Items").Preload("Customer").First(&copyInv, copyInv.ID)
	return c.Status(fiber.StatusCreated).JSON(copyInv)
}

// WriteOffInvoice marks an invoice written off and mints a write-off
// document (its own series) mirroring the original's lines.
func WriteOffInvoice(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var source models.Invoice
	if err := db.Preload("Items").First(&source, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	level, err := numbering.LockLevelOf(db, source.ID)
	if err != nil {
		return err
	}
	if level == numbering.LockLocked {
		return numbering.ErrNumberLocked
	}

	number, err := numbering.Allocate(db, models.SeriesWriteOff)
	if err != nil {
		return err
	}

	writeOff := models.Invoice{
		Number:        number,
		Kind:          models.SeriesWriteOff,
		CustomerID:    source.CustomerID,
		Items:         copyItems(source.Items),
		Status:        models.InvoiceWrittenOff,
		Currency:      source.Currency,
		PaymentMethod: source.PaymentMethod,
		Subtotal:      source.Subtotal,
		DiscountTotal: source.DiscountTotal,
		TaxTotal:      source.TaxTotal,
		Total:         source.Total,
		IssueDate:     time.Now().UTC().Truncate(24 * time.Hour),
		Note:          "write-off of " + source.Number,
	}
	if err := db.Create(&writeOff).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create write-off: "+err.Error())
	}
	if err := db.Model(&models.Invoice{}).
		Where("id = ?", source.ID).
		Update("status", models.InvoiceWrittenOff).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not mark invoice written off")
	}

	return c.Status(fiber.StatusCreated).JSON(writeOff)
}

// CancelInvoice voids an invoice that was never submitted. Submitted
// documents are immutable; their reversal is a credit note.
func CancelInvoice(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var invoice models.Invoice
	if err := db.First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	level, err := numbering.LockLevelOf(db, invoice.ID)
	if err != nil {
		return err
	}
	if level == numbering.LockLocked {
		return numbering.ErrNumberLocked
	}

	if err := db.Model(&invoice).Update("status", models.InvoiceCancelled).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not cancel invoice")
	}
	return c.JSON(invoice)
}

func GetInvoices(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	q := db.Model(&models.Invoice{}).Preload("Customer")
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var invoices []models.Invoice
	if err := q.Order("created_at DESC, id DESC").Find(&invoices).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list invoices")
	}
	return c.JSON(fiber.Map{"invoices": invoices, "message": "success"})
}

func GetInvoice(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var invoice models.Invoice
	if err := db.Preload("Items").Preload("Customer").First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	level, err := numbering.LockLevelOf(db, invoice.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoice": invoice, "lock_level": level.String()})
}

type NumberChangeInput struct {
	Number    string `json:"number" validate:"required"`
	Reason    string `json:"reason"`
	Confirmed bool   `json:"confirmed"`
}

// ChangeInvoiceNumber runs the audited number-edit path. The guard check,
// the audit row and the update are one transaction inside
// numbering.ChangeNumber.
func ChangeInvoiceNumber(c *fiber.Ctx) error {
	var input NumberChangeInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var invoice models.Invoice
	if err := db.First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	actorID, _ := c.Locals("userID").(string)
	if err := numbering.ChangeNumber(db, invoice.ID, input.Number, input.Reason, actorID, input.Confirmed); err != nil {
		return err
	}

	db.First(&invoice, invoice.ID)
	return c.JSON(invoice)
}

func copyItems(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.LineItem{
			ArticleID:   item.ArticleID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			TaxCategory: item.TaxCategory,
			TaxPercent:  item.TaxPercent,
		})
	}
	return out
}
