package jofotara

import (
	"context"
	"errors"
	"fmt"

	"jofotara-backend/logger"
	"jofotara-backend/models"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Submitter drives the submission lifecycle:
//
//	not_submitted -> pending -> {submitted | failed | validation_error}
//
// failed retries freely; validation_error retries only once the caller
// confirms the invoice data was corrected; submitted is terminal for the
// invoice (reversals go through a credit note against a new invoice).
// Every attempt leaves exactly one Submission row behind.
type Submitter struct {
	client Client
	log    zerolog.Logger
}

func NewSubmitter(client Client) *Submitter {
	return &Submitter{
		client: client,
		log:    logger.WithComponent("submitter"),
	}
}

// SubmitOptions carries caller assertions about the retry state.
type SubmitOptions struct {
	// Corrected must be set to retry after a validation_error attempt.
	Corrected bool
}

// Submit reports a standard invoice. Guard failures reject before any
// Submission row exists; encoder failures leave a validation_error row;
// transport failures leave a failed row. Exactly one of those.
func (s *Submitter) Submit(ctx context.Context, db *gorm.DB, seller *models.Company, invoiceID uint, opts SubmitOptions) (*models.Submission, error) {
	return s.run(ctx, db, seller, invoiceID, nil, opts)
}

// SubmitCreditNote reports a credit invoice referencing an already
// submitted original. The original's submitted record is never touched; the
// credit note gets its own Submission history.
func (s *Submitter) SubmitCreditNote(ctx context.Context, db *gorm.DB, seller *models.Company, creditInvoiceID, originalInvoiceID uint, reason string, opts SubmitOptions) (*models.Submission, error) {
	return s.run(ctx, db, seller, creditInvoiceID, &creditRequest{
		originalInvoiceID: originalInvoiceID,
		reason:            reason,
	}, opts)
}

type creditRequest struct {
	originalInvoiceID uint
	reason            string
}

func (s *Submitter) run(ctx context.Context, db *gorm.DB, seller *models.Company, invoiceID uint, credit *creditRequest, opts SubmitOptions) (*models.Submission, error) {
	var (
		sub     models.Submission
		invoice models.Invoice
		ctxRef  *CreditContext
	)

	// Phase 1: guard checks and the pending row, atomically. The invoice row
	// is locked FOR UPDATE so competing submits serialize on it: under the
	// per-request transaction middleware this whole call runs inside the
	// request's transaction and our pending row stays invisible to other
	// sessions until that commits, so without the lock two concurrent submits
	// would both scan an empty history and both dispatch to the authority.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, invoiceID).Error; err != nil {
			return fmt.Errorf("load invoice %d: %w", invoiceID, err)
		}
		if err := tx.Preload("Items").Preload("Customer").First(&invoice, invoiceID).Error; err != nil {
			return fmt.Errorf("load invoice %d: %w", invoiceID, err)
		}

		var history []models.Submission
		if err := tx.Where("invoice_id = ?", invoiceID).
			Order("created_at, id").
			Find(&history).Error; err != nil {
			return fmt.Errorf("load submission history: %w", err)
		}
		for _, prev := range history {
			switch prev.Status {
			case models.SubmissionSubmitted:
				return ErrAlreadySubmitted
			case models.SubmissionPending:
				return ErrSubmissionInFlight
			case models.SubmissionNotSubmitted, models.SubmissionFailed, models.SubmissionValidationError:
			}
		}
		if n := len(history); n > 0 && history[n-1].Status == models.SubmissionValidationError && !opts.Corrected {
			return ErrInvoiceNotCorrected
		}

		if credit != nil {
			ref, err := creditContext(tx, credit)
			if err != nil {
				return err
			}
			ctxRef = ref
		}

		sub = models.Submission{
			InvoiceID:       invoice.ID,
			Status:          models.SubmissionPending,
			IsCreditInvoice: credit != nil,
			ReasonForReturn: reasonOf(credit),
		}
		if credit != nil {
			sub.OriginalInvoiceID = &credit.originalInvoiceID
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("create submission attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Phase 2: encode. Pure computation; a failure here is a data problem,
	// recorded on the attempt and never sent anywhere.
	payload, err := Encode(&invoice, invoice.Items, seller, &invoice.Customer, ctxRef)
	if err != nil {
		if terr := s.transition(db, sub.ID, models.SubmissionPending, models.SubmissionValidationError, map[string]any{
			"error_message": err.Error(),
		}); terr != nil {
			return nil, terr
		}
		sub.Status = models.SubmissionValidationError
		sub.ErrorMessage = err.Error()
		s.log.Warn().Uint("invoice_id", invoice.ID).Err(err).Msg("submission rejected by local validation")
		return &sub, err
	}

	// Phase 3: the external call. Once dispatched it always resolves: any
	// transport outcome other than success lands in failed, never vanishes.
	result, callErr := s.client.Submit(ctx, payload)
	if callErr != nil {
		if terr := s.transition(db, sub.ID, models.SubmissionPending, models.SubmissionFailed, map[string]any{
			"xml_content":   string(payload),
			"error_message": callErr.Error(),
		}); terr != nil {
			return nil, terr
		}
		sub.Status = models.SubmissionFailed
		sub.XMLContent = string(payload)
		sub.ErrorMessage = callErr.Error()
		s.log.Error().Uint("invoice_id", invoice.ID).Err(callErr).Msg("authority submission failed")
		return &sub, fmt.Errorf("remote submission failure: %w", callErr)
	}

	if terr := s.transition(db, sub.ID, models.SubmissionPending, models.SubmissionSubmitted, map[string]any{
		"xml_content":      string(payload),
		"uuid":             result.UUID,
		"qr_code":          result.QRCode,
		"response_payload": datatypes.JSON(result.Raw),
	}); terr != nil {
		return nil, terr
	}
	sub.Status = models.SubmissionSubmitted
	sub.XMLContent = string(payload)
	sub.UUID = result.UUID
	sub.QRCode = result.QRCode
	s.log.Info().Uint("invoice_id", invoice.ID).Str("uuid", result.UUID).Msg("invoice submitted")
	return &sub, nil
}

// transition moves one attempt between states with a status precondition,
// so a concurrent writer cannot double-apply a terminal state.
func (s *Submitter) transition(db *gorm.DB, subID uint, from, to models.SubmissionStatus, updates map[string]any) error {
	updates["status"] = to
	res := db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", subID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("transition submission %d to %s: %w", subID, to, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transition submission %d to %s: attempt is no longer %s", subID, to, from)
	}
	return nil
}

// creditContext resolves the original document a credit note reverses and
// fails if that document was never accepted by the authority.
func creditContext(tx *gorm.DB, credit *creditRequest) (*CreditContext, error) {
	if credit.originalInvoiceID == 0 {
		return nil, ErrMissingCreditReference
	}
	var original models.Invoice
	if err := tx.First(&original, credit.originalInvoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissingCreditReference
		}
		return nil, fmt.Errorf("load original invoice %d: %w", credit.originalInvoiceID, err)
	}

	var accepted models.Submission
	err := tx.Where("invoice_id = ? AND status = ?", original.ID, models.SubmissionSubmitted).
		First(&accepted).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOriginalNotSubmitted
		}
		return nil, fmt.Errorf("load original submission: %w", err)
	}

	return &CreditContext{
		OriginalNumber: original.Number,
		OriginalUUID:   accepted.UUID,
		OriginalTotal:  original.Total,
		Reason:         credit.reason,
	}, nil
}

func reasonOf(credit *creditRequest) string {
	if credit == nil {
		return ""
	}
	return credit.reason
}
