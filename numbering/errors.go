package numbering

import "errors"

var (
	// ErrSeriesNotConfigured means no InvoiceSeries row exists for the
	// requested kind. Fatal to the calling operation: an invoice cannot be
	// created without a configured series.
	ErrSeriesNotConfigured = errors.New("invoice series not configured")

	// ErrNumberLocked means a submitted Submission exists for the invoice.
	// The number is immutable; issue a credit note instead of editing.
	ErrNumberLocked = errors.New("invoice number is locked: a submitted report exists, issue a credit note instead of editing")

	// ErrConfirmationRequired means the invoice is past draft and the edit
	// needs both a reason and an explicit confirmation flag.
	ErrConfirmationRequired = errors.New("number edit requires a reason and explicit confirmation")

	// ErrReasonRequired means a free-level edit was attempted without the
	// reason the audit trail needs. No confirmation is involved at this
	// level, only the missing reason.
	ErrReasonRequired = errors.New("number edit requires a reason for the audit log")

	// ErrInvalidNumber covers empty, unchanged or colliding replacement
	// numbers.
	ErrInvalidNumber = errors.New("invalid invoice number")
)
