package numbering

import (
	"testing"

	"jofotara-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A single connection serializes writers, mirroring the row-level
	// serialization Postgres gives the counter UPDATE.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Customer{},
		&models.InvoiceSeries{},
		&models.Invoice{},
		&models.LineItem{},
		&models.Submission{},
		&models.NumberChangeAudit{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_one_submitted ON submissions (invoice_id) WHERE status = 'submitted'`,
	).Error; err != nil {
		t.Fatalf("partial index: %v", err)
	}
	return db
}

func seedSeries(t *testing.T, db *gorm.DB, kind models.SeriesKind, prefix string) {
	t.Helper()
	if err := db.Create(&models.InvoiceSeries{Kind: kind, Prefix: prefix, NextNumber: 1}).Error; err != nil {
		t.Fatalf("seed series: %v", err)
	}
}

func seedInvoice(t *testing.T, db *gorm.DB, kind models.SeriesKind) *models.Invoice {
	t.Helper()
	number, err := Allocate(db, kind)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	inv := &models.Invoice{
		Number: number,
		Kind:   kind,
		Status: models.InvoiceDraft,
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}
