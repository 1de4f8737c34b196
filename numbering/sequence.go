package numbering

import (
	"errors"
	"fmt"

	"jofotara-backend/models"

	"gorm.io/gorm"
)

// Allocate mints the next number of a series as a single atomic statement.
// The increment and the read of the incremented value happen in one
// UPDATE ... RETURNING, so two concurrent callers can never observe the
// same counter value. The returned string is "{prefix}-{sequence}" with the
// sequence zero-padded to four digits.
func Allocate(db *gorm.DB, kind models.SeriesKind) (string, error) {
	n, err := AllocateSequence(db, kind)
	if err != nil {
		return "", err
	}
	var series models.InvoiceSeries
	if err := db.Where("kind = ?", kind).First(&series).Error; err != nil {
		return "", fmt.Errorf("load series %s: %w", kind, err)
	}
	return Format(series.Prefix, n), nil
}

// AllocateSequence performs the atomic increment and returns the allocated
// sequence value. next_number holds the value the next allocation will get,
// so the post-increment RETURNING value minus one is ours.
func AllocateSequence(db *gorm.DB, kind models.SeriesKind) (int64, error) {
	var next int64
	err := db.Raw(
		`UPDATE invoice_series SET next_number = next_number + 1 WHERE kind = ? RETURNING next_number`,
		kind,
	).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("allocate %s: %w", kind, err)
	}
	if next == 0 {
		// RETURNING yielded no row: the series was never bootstrapped.
		return 0, fmt.Errorf("allocate %s: %w", kind, ErrSeriesNotConfigured)
	}
	return next - 1, nil
}

// Format renders a sequence value in the canonical "{prefix}-NNNN" form.
func Format(prefix string, sequence int64) string {
	return fmt.Sprintf("%s-%04d", prefix, sequence)
}

// Series loads the counter row for a kind.
func Series(db *gorm.DB, kind models.SeriesKind) (*models.InvoiceSeries, error) {
	var series models.InvoiceSeries
	if err := db.Where("kind = ?", kind).First(&series).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeriesNotConfigured
		}
		return nil, err
	}
	return &series, nil
}
