package numbering

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"jofotara-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFormatsNumbers(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	for i := 1; i <= 3; i++ {
		number, err := Allocate(db, models.SeriesTaxable)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%04d", i), number)
	}

	var series models.InvoiceSeries
	require.NoError(t, db.Where("kind = ?", models.SeriesTaxable).First(&series).Error)
	assert.Equal(t, int64(4), series.NextNumber)
}

func TestAllocateSeriesNotConfigured(t *testing.T) {
	db := setupTestDB(t)

	_, err := Allocate(db, models.SeriesExempt)
	assert.ErrorIs(t, err, ErrSeriesNotConfigured)
}

func TestAllocateIsolatedPerSeries(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")
	seedSeries(t, db, models.SeriesExempt, "EXV")

	a, err := Allocate(db, models.SeriesTaxable)
	require.NoError(t, err)
	b, err := Allocate(db, models.SeriesExempt)
	require.NoError(t, err)

	assert.Equal(t, "INV-0001", a)
	assert.Equal(t, "EXV-0001", b)
}

// Concurrent allocations must return pairwise distinct numbers forming a
// contiguous run from the prior counter value.
func TestAllocateConcurrent(t *testing.T) {
	db := setupTestDB(t)
	seedSeries(t, db, models.SeriesTaxable, "INV")

	const n = 32
	results := make([]int64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = AllocateSequence(db, models.SeriesTaxable)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "allocation %d", i)
	}

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, got := range results {
		assert.Equal(t, int64(i+1), got, "expected a gapless, duplicate-free run")
	}
}

func TestSeriesMissing(t *testing.T) {
	db := setupTestDB(t)
	_, err := Series(db, models.SeriesQuote)
	assert.True(t, errors.Is(err, ErrSeriesNotConfigured))
}
