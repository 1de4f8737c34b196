package jofotara

import "errors"

// Local validation failures. The encoder never performs I/O, so none of
// these is retryable as-is; the invoice data has to change first.
var (
	ErrEmptyLineItems         = errors.New("invoice has no line items")
	ErrInvalidTaxCategory     = errors.New("invalid tax category")
	ErrMissingCreditReference = errors.New("credit note is missing its original invoice reference")
)

// State-precondition failures. These reject before any Submission row is
// created.
var (
	ErrAlreadySubmitted     = errors.New("invoice already submitted: issue a credit note instead")
	ErrOriginalNotSubmitted = errors.New("original invoice has no submitted report")
	ErrSubmissionInFlight   = errors.New("a submission attempt for this invoice is still pending")
	ErrInvoiceNotCorrected  = errors.New("previous attempt hit a validation error: confirm the invoice data was corrected before retrying")
)
