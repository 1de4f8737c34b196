package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus is the closed set of lifecycle states for one submission
// attempt. Every consumer switches exhaustively over these values.
type SubmissionStatus string

const (
	SubmissionNotSubmitted    SubmissionStatus = "not_submitted"
	SubmissionPending         SubmissionStatus = "pending"
	SubmissionSubmitted       SubmissionStatus = "submitted"
	SubmissionFailed          SubmissionStatus = "failed"
	SubmissionValidationError SubmissionStatus = "validation_error"
)

// Valid reports whether s is a known submission status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionNotSubmitted, SubmissionPending, SubmissionSubmitted,
		SubmissionFailed, SubmissionValidationError:
		return true
	}
	return false
}

// Submission records one attempt to report an invoice to the tax authority.
// Rows are append-only: the per-invoice history is part of the compliance
// record and is never deleted or rewritten, only transitioned forward.
// At most one row per invoice ever reaches "submitted" (partial unique
// index, see database.MigrateTenantSchema).
type Submission struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	InvoiceID uint `json:"invoice_id" gorm:"not null;index"`

	Status SubmissionStatus `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending'"`

	// Set by the authority on acceptance.
	UUID   string `json:"uuid" gorm:"size:64"`
	QRCode string `json:"qr_code" gorm:"type:text"`

	// The exact payload that was (or would have been) sent. Kept verbatim
	// for reproducibility audits.
	XMLContent   string `json:"-" gorm:"type:text"`
	ErrorMessage string `json:"error_message" gorm:"type:text"`

	// Raw authority response, for dispute forensics.
	ResponsePayload datatypes.JSON `json:"-" gorm:"type:jsonb"`

	IsCreditInvoice   bool   `json:"is_credit_invoice"`
	OriginalInvoiceID *uint  `json:"original_invoice_id" gorm:"index"`
	ReasonForReturn   string `json:"reason_for_return"`

	CreatedAt time.Time `json:"created_at"`
}
