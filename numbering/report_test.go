package numbering

import (
	"testing"

	"jofotara-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Series INV, counter at 1: three invoices, cancel the second. The scan
// reports no gaps and one cancelled number.
func TestScanCancelledIsNotMissing(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	first := seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)
	third := seedInvoice(t, db, models.SeriesTaxable)
	assert.Equal(t, "INV-0001", first.Number)
	assert.Equal(t, "INV-0002", second.Number)
	assert.Equal(t, "INV-0003", third.Number)

	require.NoError(t, db.Model(second).Update("status", models.InvoiceCancelled).Error)

	report, err := Scan(db, models.SeriesTaxable)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.HighestNumber)
	assert.Equal(t, 3, report.TotalIssued)
	assert.Empty(t, report.MissingNumbers)
	assert.Equal(t, []int64{2}, report.CancelledNumbers)
}

// A deleted invoice leaves a hole the counter remembers.
func TestScanDeletedInvoiceIsMissing(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)
	seedInvoice(t, db, models.SeriesTaxable)

	require.NoError(t, db.Delete(&models.Invoice{}, second.ID).Error)

	report, err := Scan(db, models.SeriesTaxable)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.HighestNumber)
	assert.Equal(t, 2, report.TotalIssued)
	assert.Equal(t, []int64{2}, report.MissingNumbers)
	assert.Empty(t, report.CancelledNumbers)
}

// A trailing allocation with no surviving invoice still counts as a gap:
// highest comes from the counter, not max(issued).
func TestScanTrailingGap(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	seedInvoice(t, db, models.SeriesTaxable)
	_, err := Allocate(db, models.SeriesTaxable) // burned, never persisted
	require.NoError(t, err)

	report, err := Scan(db, models.SeriesTaxable)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.HighestNumber)
	assert.Equal(t, []int64{2}, report.MissingNumbers)
}

func TestScanUnknownSeries(t *testing.T) {
	db := setupTestDB(t)
	_, err := Scan(db, models.SeriesWriteOff)
	assert.ErrorIs(t, err, ErrSeriesNotConfigured)
}

func TestBulkResequenceClosesGaps(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	first := seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)
	third := seedInvoice(t, db, models.SeriesTaxable)
	require.NoError(t, db.Delete(&models.Invoice{}, second.ID).Error)

	changed, err := BulkResequence(db, models.SeriesTaxable, "auditor-1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed, "only the third invoice moves")

	var movedThird models.Invoice
	require.NoError(t, db.First(&movedThird, third.ID).Error)
	assert.Equal(t, "INV-0002", movedThird.Number)

	var keptFirst models.Invoice
	require.NoError(t, db.First(&keptFirst, first.ID).Error)
	assert.Equal(t, "INV-0001", keptFirst.Number)

	// One audit row per renumbered invoice, none for untouched ones.
	var audits []models.NumberChangeAudit
	require.NoError(t, db.Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, third.ID, audits[0].InvoiceID)
	assert.Equal(t, "INV-0003", audits[0].OldNumber)
	assert.Equal(t, "INV-0002", audits[0].NewNumber)

	// The counter stays where allocation left it: the freed sequence shows
	// up as a trailing gap instead of being re-minted.
	report, err := Scan(db, models.SeriesTaxable)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, report.MissingNumbers)
	assert.Equal(t, int64(3), report.HighestNumber)
}

// Resequencing must never hand a consumed sequence back to the allocator:
// the next invoice after a compaction gets a fresh number, not number 3
// again.
func TestBulkResequenceNeverLowersCounter(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)
	seedInvoice(t, db, models.SeriesTaxable)
	require.NoError(t, db.Delete(&models.Invoice{}, second.ID).Error)

	_, err := BulkResequence(db, models.SeriesTaxable, "auditor-1")
	require.NoError(t, err)

	number, err := Allocate(db, models.SeriesTaxable)
	require.NoError(t, err)
	assert.Equal(t, "INV-0004", number)
}

// Manual edits can leave invoices numbered against their creation order.
// Resequencing then moves an invoice onto a number still held by another
// row, which the unique index rejects unless the batch parks movers on
// placeholders first.
func TestBulkResequenceAfterManualSwap(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	first := seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)

	// Swap the two numbers through the audited edit path.
	require.NoError(t, ChangeNumber(db, first.ID, "INV-9999", "swap step one", "auditor-1", true))
	require.NoError(t, ChangeNumber(db, second.ID, "INV-0001", "swap step two", "auditor-1", true))
	require.NoError(t, ChangeNumber(db, first.ID, "INV-0002", "swap step three", "auditor-1", true))

	changed, err := BulkResequence(db, models.SeriesTaxable, "auditor-1")
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	var reloadedFirst, reloadedSecond models.Invoice
	require.NoError(t, db.First(&reloadedFirst, first.ID).Error)
	require.NoError(t, db.First(&reloadedSecond, second.ID).Error)
	assert.Equal(t, "INV-0001", reloadedFirst.Number)
	assert.Equal(t, "INV-0002", reloadedSecond.Number)
}

func TestBulkResequenceAbortsOnLocked(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)
	third := seedInvoice(t, db, models.SeriesTaxable)
	require.NoError(t, db.Delete(&models.Invoice{}, second.ID).Error)
	require.NoError(t, db.Create(&models.Submission{
		InvoiceID: third.ID,
		Status:    models.SubmissionSubmitted,
		UUID:      "uuid-3",
	}).Error)

	_, err := BulkResequence(db, models.SeriesTaxable, "auditor-1")
	assert.ErrorIs(t, err, ErrNumberLocked)

	// The whole batch aborted: nothing renumbered, no audit rows.
	var reloaded models.Invoice
	require.NoError(t, db.First(&reloaded, third.ID).Error)
	assert.Equal(t, "INV-0003", reloaded.Number)
	var count int64
	require.NoError(t, db.Model(&models.NumberChangeAudit{}).Count(&count).Error)
	assert.Zero(t, count)
}

// Warning-level invoices (sent, unsubmitted) do not block the batch; the
// operation is itself explicit and audited.
func TestBulkResequenceAllowsWarningLevel(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	first := seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)
	third := seedInvoice(t, db, models.SeriesTaxable)
	require.NoError(t, db.Model(first).Update("status", models.InvoiceSent).Error)
	require.NoError(t, db.Delete(&models.Invoice{}, second.ID).Error)

	changed, err := BulkResequence(db, models.SeriesTaxable, "auditor-1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	var reloaded models.Invoice
	require.NoError(t, db.First(&reloaded, third.ID).Error)
	assert.Equal(t, "INV-0002", reloaded.Number)
}
