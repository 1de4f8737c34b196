package numbering

import (
	"fmt"
	"strings"

	"jofotara-backend/models"
)

// LockLevel is the derived editability of an invoice's number. It has no
// storage of its own: it is a pure function of the invoice status and the
// submission history, recomputed on every check.
type LockLevel int8

const (
	// LockFree: draft invoice, nothing in flight. Edits need no ceremony.
	LockFree LockLevel = iota
	// LockWarning: past draft but never submitted. Edits need a reason and
	// an explicit confirmation.
	LockWarning
	// LockLocked: a submitted report exists. The number is immutable.
	LockLocked
)

func (l LockLevel) String() string {
	switch l {
	case LockFree:
		return "free"
	case LockWarning:
		return "warning"
	case LockLocked:
		return "locked"
	}
	return fmt.Sprintf("LockLevel(%d)", int8(l))
}

// LevelFor derives the lock level from invoice status plus two facts about
// the submission history: whether any attempt is pending, and whether any
// attempt ever reached submitted.
func LevelFor(status models.InvoiceStatus, hasPending, hasSubmitted bool) LockLevel {
	if hasSubmitted {
		return LockLocked
	}
	if status == models.InvoiceDraft && !hasPending {
		return LockFree
	}
	return LockWarning
}

// LevelForSubmissions derives the lock level from the raw submission rows.
func LevelForSubmissions(status models.InvoiceStatus, subs []models.Submission) LockLevel {
	var pending, submitted bool
	for _, s := range subs {
		switch s.Status {
		case models.SubmissionPending:
			pending = true
		case models.SubmissionSubmitted:
			submitted = true
		case models.SubmissionNotSubmitted, models.SubmissionFailed, models.SubmissionValidationError:
			// terminal-for-attempt states do not restrict editing
		}
	}
	return LevelFor(status, pending, submitted)
}

// CheckEdit validates a number-edit request against the derived lock level.
// It is pure; collision checking against other invoices and the actual
// write happen in ChangeNumber inside one transaction.
func CheckEdit(level LockLevel, oldNumber, newNumber, reason string, confirmed bool) error {
	if level == LockLocked {
		return ErrNumberLocked
	}
	newNumber = strings.TrimSpace(newNumber)
	if newNumber == "" {
		return fmt.Errorf("%w: number is empty", ErrInvalidNumber)
	}
	if newNumber == oldNumber {
		return fmt.Errorf("%w: number is unchanged", ErrInvalidNumber)
	}
	if level == LockWarning && (strings.TrimSpace(reason) == "" || !confirmed) {
		return ErrConfirmationRequired
	}
	// Free-level edits still need a non-empty reason for the audit row.
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}
