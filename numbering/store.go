package numbering

import (
	"fmt"
	"strings"

	"jofotara-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChangeNumber applies an audited number edit. Guard check, collision
// check, audit row and the update run inside one transaction, with the
// invoice row locked FOR UPDATE: a concurrent submit (which takes the same
// lock) cannot land a submitted row between the guard read and the number
// write, and competing edits serialize on the row.
func ChangeNumber(db *gorm.DB, invoiceID uint, newNumber, reason, actorID string, confirmed bool) error {
	newNumber = strings.TrimSpace(newNumber)

	return db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, invoiceID).Error; err != nil {
			return fmt.Errorf("load invoice %d: %w", invoiceID, err)
		}

		var subs []models.Submission
		if err := tx.Where("invoice_id = ?", invoiceID).Find(&subs).Error; err != nil {
			return fmt.Errorf("load submissions: %w", err)
		}

		level := LevelForSubmissions(invoice.Status, subs)
		if err := CheckEdit(level, invoice.Number, newNumber, reason, confirmed); err != nil {
			return err
		}

		// Collision with any other invoice in the tenant. The unique index
		// on invoices.number backs this up if a concurrent writer races us.
		var clash int64
		if err := tx.Model(&models.Invoice{}).
			Where("number = ? AND id <> ?", newNumber, invoiceID).
			Count(&clash).Error; err != nil {
			return fmt.Errorf("collision check: %w", err)
		}
		if clash > 0 {
			return fmt.Errorf("%w: number %s is already in use", ErrInvalidNumber, newNumber)
		}

		audit := models.NumberChangeAudit{
			InvoiceID: invoice.ID,
			OldNumber: invoice.Number,
			NewNumber: newNumber,
			Reason:    strings.TrimSpace(reason),
			ActorID:   actorID,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("write audit row: %w", err)
		}

		if err := tx.Model(&models.Invoice{}).
			Where("id = ?", invoice.ID).
			Update("number", newNumber).Error; err != nil {
			return fmt.Errorf("update number: %w", err)
		}
		return nil
	})
}

// LockLevelOf loads an invoice's submissions and derives its current lock
// level. Read-only helper for the API surface.
func LockLevelOf(db *gorm.DB, invoiceID uint) (LockLevel, error) {
	var invoice models.Invoice
	if err := db.First(&invoice, invoiceID).Error; err != nil {
		return LockFree, err
	}
	var subs []models.Submission
	if err := db.Where("invoice_id = ?", invoiceID).Find(&subs).Error; err != nil {
		return LockFree, err
	}
	return LevelForSubmissions(invoice.Status, subs), nil
}
