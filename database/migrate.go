package database

import (
	"fmt"

	"jofotara-backend/models"

	"gorm.io/gorm"
)

// MigrateTenantSchema applies (idempotent) schema migrations for a single
// tenant schema. It pins search_path to the tenant and performs:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Indexes, including the partial unique index that enforces at most one
//   submitted Submission per invoice
// - Basic CHECK constraints on line quantities and amounts
// - Bootstrap of the four invoice series counters
func MigrateTenantSchema(schema string) error {
	if schema == "" {
		return fmt.Errorf("schema name is empty")
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		// Pin the tenant schema for this transaction
		if err := tx.Exec(`SET search_path = "` + schema + `", public`).Error; err != nil {
			return fmt.Errorf("set search_path failed: %w", err)
		}

		if err := tx.AutoMigrate(
			&models.Article{},
			&models.Customer{},
			&models.InvoiceSeries{},
			&models.Invoice{},
			&models.LineItem{},
			&models.Submission{},
			&models.NumberChangeAudit{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("tenant automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE articles   ALTER COLUMN unit_price     TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN subtotal       TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN discount_total TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN tax_total      TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN total          TYPE numeric(12,2)`,
			`ALTER TABLE line_items ALTER COLUMN quantity       TYPE numeric(12,3)`,
			`ALTER TABLE line_items ALTER COLUMN unit_price     TYPE numeric(12,3)`,
			`ALTER TABLE line_items ALTER COLUMN discount       TYPE numeric(12,2)`,
			`ALTER TABLE line_items ALTER COLUMN tax_percent    TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Indexes (idempotent) ---
		indexes := []string{
			// The compliance invariant: one invoice, at most one accepted report.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_one_submitted ON submissions (invoice_id) WHERE status = 'submitted'`,
			`CREATE INDEX IF NOT EXISTS idx_submissions_invoice ON submissions (invoice_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_line_items_invoice ON line_items (invoice_id)`,
			`CREATE INDEX IF NOT EXISTS idx_number_change_audits_invoice ON number_change_audits (invoice_id, created_at)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'line_items'::regclass
					  AND conname  = 'chk_line_items_quantity_nonneg'
				) THEN
					ALTER TABLE line_items
					ADD CONSTRAINT chk_line_items_quantity_nonneg
					CHECK (quantity >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'line_items'::regclass
					  AND conname  = 'chk_line_items_unit_price_nonneg'
				) THEN
					ALTER TABLE line_items
					ADD CONSTRAINT chk_line_items_unit_price_nonneg
					CHECK (unit_price >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'invoice_series'::regclass
					  AND conname  = 'chk_invoice_series_next_positive'
				) THEN
					ALTER TABLE invoice_series
					ADD CONSTRAINT chk_invoice_series_next_positive
					CHECK (next_number >= 1);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return BootstrapSeries(tx)
	})
}

// BootstrapSeries inserts the per-kind counter rows if they do not exist
// yet. Existing counters are never reset.
func BootstrapSeries(tx *gorm.DB) error {
	defaults := []models.InvoiceSeries{
		{Kind: models.SeriesTaxable, Prefix: "INV", NextNumber: 1},
		{Kind: models.SeriesExempt, Prefix: "EXV", NextNumber: 1},
		{Kind: models.SeriesWriteOff, Prefix: "WRV", NextNumber: 1},
		{Kind: models.SeriesQuote, Prefix: "QTV", NextNumber: 1},
	}
	for _, series := range defaults {
		var count int64
		if err := tx.Model(&models.InvoiceSeries{}).
			Where("kind = ?", series.Kind).
			Count(&count).Error; err != nil {
			return fmt.Errorf("series bootstrap lookup failed: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&series).Error; err != nil {
			return fmt.Errorf("series bootstrap insert failed: %w", err)
		}
	}
	return nil
}
