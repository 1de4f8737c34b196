package numbering

import (
	"testing"

	"jofotara-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestChangeNumberFreeDraft(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")
	inv := seedInvoice(t, db, models.SeriesTaxable)

	err := ChangeNumber(db, inv.ID, "INV-0100", "issued under wrong counter", "user-1", false)
	require.NoError(t, err)

	var reloaded models.Invoice
	require.NoError(t, db.First(&reloaded, inv.ID).Error)
	assert.Equal(t, "INV-0100", reloaded.Number)

	var audits []models.NumberChangeAudit
	require.NoError(t, db.Where("invoice_id = ?", inv.ID).Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, "INV-0001", audits[0].OldNumber)
	assert.Equal(t, "INV-0100", audits[0].NewNumber)
	assert.Equal(t, "issued under wrong counter", audits[0].Reason)
	assert.Equal(t, "user-1", audits[0].ActorID)
}

func TestChangeNumberWarningNeedsConfirmation(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")
	inv := seedInvoice(t, db, models.SeriesTaxable)
	require.NoError(t, db.Model(inv).Update("status", models.InvoiceSent).Error)

	err := ChangeNumber(db, inv.ID, "INV-0100", "customer asked", "user-1", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	err = ChangeNumber(db, inv.ID, "INV-0100", "customer asked", "user-1", true)
	assert.NoError(t, err)
}

func TestChangeNumberLockedBySubmission(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")
	inv := seedInvoice(t, db, models.SeriesTaxable)
	require.NoError(t, db.Create(&models.Submission{
		InvoiceID: inv.ID,
		Status:    models.SubmissionSubmitted,
		UUID:      "uuid-1",
	}).Error)

	err := ChangeNumber(db, inv.ID, "INV-0100", "any reason", "user-1", true)
	assert.ErrorIs(t, err, ErrNumberLocked)

	// No audit noise on rejection.
	var count int64
	require.NoError(t, db.Model(&models.NumberChangeAudit{}).Count(&count).Error)
	assert.Zero(t, count)
}

// A submission that lands right after the edit loads the invoice must
// still block the rename. The callback injects a submitted row into the
// running transaction as soon as the invoice is read, simulating a submit
// that slipped in between the load and the guard check.
func TestChangeNumberSeesSubmissionLandingMidEdit(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")
	inv := seedInvoice(t, db, models.SeriesTaxable)

	fired := false
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("landSubmission", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "invoices" {
			return
		}
		fired = true
		sub := models.Submission{
			InvoiceID: inv.ID,
			Status:    models.SubmissionSubmitted,
			UUID:      "uuid-race",
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&sub).Error; err != nil {
			t.Errorf("inject submission: %v", err)
		}
	}))
	defer db.Callback().Query().Remove("landSubmission")

	err := ChangeNumber(db, inv.ID, "INV-0100", "rename under fire", "user-1", true)
	assert.ErrorIs(t, err, ErrNumberLocked)
	assert.True(t, fired, "the competing submission never landed")

	var reloaded models.Invoice
	require.NoError(t, db.First(&reloaded, inv.ID).Error)
	assert.Equal(t, "INV-0001", reloaded.Number)

	var count int64
	require.NoError(t, db.Model(&models.NumberChangeAudit{}).Count(&count).Error)
	assert.Zero(t, count, "rejected edit must not leave an audit row")
}

func TestChangeNumberCollision(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")
	first := seedInvoice(t, db, models.SeriesTaxable)
	second := seedInvoice(t, db, models.SeriesTaxable)

	err := ChangeNumber(db, second.ID, first.Number, "collide on purpose", "user-1", false)
	assert.ErrorIs(t, err, ErrInvalidNumber)

	var reloaded models.Invoice
	require.NoError(t, db.First(&reloaded, second.ID).Error)
	assert.Equal(t, "INV-0002", reloaded.Number, "rejected edit must not change the number")
}

func TestLockLevelOf(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")
	inv := seedInvoice(t, db, models.SeriesTaxable)

	level, err := LockLevelOf(db, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, LockFree, level)

	require.NoError(t, db.Create(&models.Submission{
		InvoiceID: inv.ID,
		Status:    models.SubmissionPending,
	}).Error)
	level, err = LockLevelOf(db, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, LockWarning, level)
}
