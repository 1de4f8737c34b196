package numbering

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"jofotara-backend/models"

	"gorm.io/gorm"
)

// SequenceReport is the auditor-facing view of one series. Missing numbers
// were allocated by the monotonic counter but have no invoice record at
// all; cancelled numbers have a record that was explicitly voided and are
// therefore accounted for, not gaps.
type SequenceReport struct {
	Kind             models.SeriesKind `json:"kind"`
	TotalIssued      int               `json:"total_issued"`
	HighestNumber    int64             `json:"highest_number"`
	MissingNumbers   []int64           `json:"missing_numbers"`
	CancelledNumbers []int64           `json:"cancelled_numbers"`
}

// Scan builds the gap report for a series. The highest number comes from
// the counter, not from max(issued): a trailing run of deleted invoices is
// still a gap.
func Scan(db *gorm.DB, kind models.SeriesKind) (*SequenceReport, error) {
	series, err := Series(db, kind)
	if err != nil {
		return nil, err
	}

	var invoices []models.Invoice
	if err := db.Where("kind = ?", kind).Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}

	issued := make(map[int64]bool, len(invoices))
	var cancelled []int64
	for _, inv := range invoices {
		n, ok := sequenceOf(series.Prefix, inv.Number)
		if !ok {
			// Manually edited away from the canonical form; the audit log
			// explains it, the scan cannot place it on the number line.
			continue
		}
		issued[n] = true
		if inv.Status == models.InvoiceCancelled || inv.Status == models.InvoiceWrittenOff {
			cancelled = append(cancelled, n)
		}
	}

	highest := series.NextNumber - 1
	missing := []int64{}
	for n := int64(1); n <= highest; n++ {
		if !issued[n] {
			missing = append(missing, n)
		}
	}
	sort.Slice(cancelled, func(i, j int) bool { return cancelled[i] < cancelled[j] })

	report := &SequenceReport{
		Kind:             kind,
		TotalIssued:      len(issued),
		HighestNumber:    highest,
		MissingNumbers:   missing,
		CancelledNumbers: cancelled,
	}
	if report.CancelledNumbers == nil {
		report.CancelledNumbers = []int64{}
	}
	return report, nil
}

// BulkResequence reassigns contiguous numbers to every invoice of a series
// in creation order, writing one audit row per renumbered invoice. The
// whole batch runs in a single transaction; one locked invoice aborts it
// with nothing renumbered. The series counter is never touched: sequences
// already handed out stay consumed, so after compaction the unoccupied
// range sits at the tail of the scan instead of vanishing.
func BulkResequence(db *gorm.DB, kind models.SeriesKind, actorID string) (int, error) {
	changed := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		series, err := Series(tx, kind)
		if err != nil {
			return err
		}

		var invoices []models.Invoice
		if err := tx.Where("kind = ?", kind).
			Order("created_at, id").
			Find(&invoices).Error; err != nil {
			return fmt.Errorf("resequence %s: %w", kind, err)
		}

		// Refuse the whole batch on the first locked invoice.
		for _, inv := range invoices {
			var subs []models.Submission
			if err := tx.Where("invoice_id = ?", inv.ID).Find(&subs).Error; err != nil {
				return fmt.Errorf("resequence %s: %w", kind, err)
			}
			if LevelForSubmissions(inv.Status, subs) == LockLocked {
				return fmt.Errorf("%w: invoice %s is submitted", ErrNumberLocked, inv.Number)
			}
		}

		type move struct {
			id     uint
			old    string
			target string
		}
		var moves []move
		for i, inv := range invoices {
			target := Format(series.Prefix, int64(i+1))
			if inv.Number != target {
				moves = append(moves, move{id: inv.ID, old: inv.Number, target: target})
			}
		}

		// Manual edits can have swapped invoices out of creation order, so a
		// one-pass rename may collide with a row that has not moved yet.
		// Park every moving invoice on a placeholder first, then assign the
		// targets.
		for _, m := range moves {
			if err := tx.Model(&models.Invoice{}).
				Where("id = ?", m.id).
				Update("number", fmt.Sprintf("resequence-hold-%d", m.id)).Error; err != nil {
				return fmt.Errorf("resequence hold: %w", err)
			}
		}
		for _, m := range moves {
			audit := models.NumberChangeAudit{
				InvoiceID: m.id,
				OldNumber: m.old,
				NewNumber: m.target,
				Reason:    "bulk resequence of series " + string(kind),
				ActorID:   actorID,
			}
			if err := tx.Create(&audit).Error; err != nil {
				return fmt.Errorf("resequence audit row: %w", err)
			}
			if err := tx.Model(&models.Invoice{}).
				Where("id = ?", m.id).
				Update("number", m.target).Error; err != nil {
				return fmt.Errorf("resequence update: %w", err)
			}
		}
		changed = len(moves)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// sequenceOf extracts the numeric sequence from a canonical
// "{prefix}-NNNN" number.
func sequenceOf(prefix, number string) (int64, bool) {
	rest, ok := strings.CutPrefix(number, prefix+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
