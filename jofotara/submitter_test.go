package jofotara

import (
	"context"
	"errors"
	"sync"
	"testing"

	"jofotara-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type mockClient struct {
	SubmitFunc  func(ctx context.Context, payload []byte) (*Result, error)
	mu          sync.Mutex
	Calls       int
	LastPayload []byte
}

func (m *mockClient) Submit(ctx context.Context, payload []byte) (*Result, error) {
	m.mu.Lock()
	m.Calls++
	m.LastPayload = payload
	m.mu.Unlock()
	return m.SubmitFunc(ctx, payload)
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

func acceptingClient() *mockClient {
	return &mockClient{
		SubmitFunc: func(ctx context.Context, payload []byte) (*Result, error) {
			return &Result{
				UUID:   "e1f7c8aa-0000-1111-2222-333344445555",
				QRCode: "QR-DATA",
				Raw:    []byte(`{"EINV_STATUS":"SUBMITTED"}`),
			}, nil
		},
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.InvoiceSeries{},
		&models.Invoice{},
		&models.LineItem{},
		&models.Submission{},
		&models.NumberChangeAudit{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_one_submitted ON submissions (invoice_id) WHERE status = 'submitted'`,
	).Error)
	return db
}

func seedInvoice(t *testing.T, db *gorm.DB, number string) *models.Invoice {
	t.Helper()
	customer := models.Customer{
		CompanyName: "Buyer " + number,
		Address:     "Main St", City: "Amman", Country: "JO",
		Email:     number + "@example.com",
		FirstName: "A", LastName: "B", PhoneNumber: "07",
	}
	require.NoError(t, db.Create(&customer).Error)

	inv := &models.Invoice{
		Number:        number,
		Kind:          models.SeriesTaxable,
		CustomerID:    customer.Id,
		Status:        models.InvoiceSent,
		Currency:      "JOD",
		PaymentMethod: models.PaymentCash,
		Items: []models.LineItem{{
			Description: "Widget",
			Quantity:    dec("2"),
			UnitPrice:   dec("5.00"),
			TaxCategory: models.TaxStandard,
			TaxPercent:  dec("16"),
		}},
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func submissionsFor(t *testing.T, db *gorm.DB, invoiceID uint) []models.Submission {
	t.Helper()
	var subs []models.Submission
	require.NoError(t, db.Where("invoice_id = ?", invoiceID).Order("created_at, id").Find(&subs).Error)
	return subs
}

func TestSubmitSuccess(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvoice(t, db, "INV-0001")
	client := acceptingClient()
	s := NewSubmitter(client)

	sub, err := s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
	assert.Equal(t, "e1f7c8aa-0000-1111-2222-333344445555", sub.UUID)
	assert.Equal(t, "QR-DATA", sub.QRCode)
	assert.NotEmpty(t, sub.XMLContent)
	assert.Equal(t, 1, client.Calls)

	subs := submissionsFor(t, db, inv.ID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubmissionSubmitted, subs[0].Status)
	assert.Contains(t, subs[0].XMLContent, "<cbc:ID>INV-0001</cbc:ID>")
}

func TestSubmitAlreadySubmitted(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvoice(t, db, "INV-0001")
	s := NewSubmitter(acceptingClient())

	_, err := s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	// The rejection left no extra row behind.
	assert.Len(t, submissionsFor(t, db, inv.ID), 1)
}

func TestSubmitTransportFailureThenRetry(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvoice(t, db, "INV-0001")

	client := &mockClient{
		SubmitFunc: func(ctx context.Context, payload []byte) (*Result, error) {
			return nil, errors.New("connection reset by peer")
		},
	}
	s := NewSubmitter(client)

	sub, err := s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	require.Error(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.SubmissionFailed, sub.Status)
	assert.Contains(t, sub.ErrorMessage, "connection reset")

	// failed -> pending is a plain retry; a fresh attempt row is created.
	client.SubmitFunc = acceptingClient().SubmitFunc
	sub, err = s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)

	subs := submissionsFor(t, db, inv.ID)
	require.Len(t, subs, 2)
	assert.Equal(t, models.SubmissionFailed, subs[0].Status)
	assert.Equal(t, models.SubmissionSubmitted, subs[1].Status)
}

func TestSubmitValidationErrorNeedsCorrection(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvoice(t, db, "INV-0001")
	require.NoError(t, db.Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error)

	client := acceptingClient()
	s := NewSubmitter(client)

	sub, err := s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	require.ErrorIs(t, err, ErrEmptyLineItems)
	require.NotNil(t, sub)
	assert.Equal(t, models.SubmissionValidationError, sub.Status)
	assert.Zero(t, client.Calls, "local validation failures never reach the wire")

	// Without the corrected flag the retry is rejected up front.
	_, err = s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	assert.ErrorIs(t, err, ErrInvoiceNotCorrected)
	assert.Len(t, submissionsFor(t, db, inv.ID), 1)

	// Fix the data, assert corrected, and the attempt goes through.
	require.NoError(t, db.Create(&models.LineItem{
		InvoiceID:   inv.ID,
		Description: "Widget",
		Quantity:    dec("1"),
		UnitPrice:   dec("5.00"),
		TaxCategory: models.TaxStandard,
		TaxPercent:  dec("16"),
	}).Error)
	sub, err = s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{Corrected: true})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
	assert.Len(t, submissionsFor(t, db, inv.ID), 2)
}

func TestSubmitPendingBlocksConcurrentAttempt(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvoice(t, db, "INV-0001")
	require.NoError(t, db.Create(&models.Submission{
		InvoiceID: inv.ID,
		Status:    models.SubmissionPending,
	}).Error)

	s := NewSubmitter(acceptingClient())
	_, err := s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
}

// Concurrent submits of one invoice must produce exactly one dispatch to
// the authority and exactly one submission row. Every losing attempt has
// to fail the precondition scan instead of reaching the wire.
func TestSubmitConcurrentAttemptsSingleSubmission(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvoice(t, db, "INV-0001")
	client := acceptingClient()
	s := NewSubmitter(client)

	const attempts = 5
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Submit(context.Background(), db, testSeller(), inv.ID, SubmitOptions{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, ErrAlreadySubmitted) && !errors.Is(err, ErrSubmissionInFlight) {
			t.Errorf("losing attempt failed with %v, want a precondition rejection", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one attempt must win")
	assert.Equal(t, 1, client.callCount(), "the authority must see a single dispatch")

	subs := submissionsFor(t, db, inv.ID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubmissionSubmitted, subs[0].Status)
}

func TestSubmitCreditNoteSuccess(t *testing.T) {
	db := setupTestDB(t)
	original := seedInvoice(t, db, "INV-0001")
	s := NewSubmitter(acceptingClient())

	_, err := s.Submit(context.Background(), db, testSeller(), original.ID, SubmitOptions{})
	require.NoError(t, err)

	credit := seedInvoice(t, db, "INV-0002")
	require.NoError(t, db.Model(credit).Update("is_credit_invoice", true).Error)

	sub, err := s.SubmitCreditNote(context.Background(), db, testSeller(), credit.ID,
		original.ID, "goods returned", SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
	assert.True(t, sub.IsCreditInvoice)
	require.NotNil(t, sub.OriginalInvoiceID)
	assert.Equal(t, original.ID, *sub.OriginalInvoiceID)
	assert.Equal(t, "goods returned", sub.ReasonForReturn)
	assert.Contains(t, sub.XMLContent, ">381</cbc:InvoiceTypeCode>")
	assert.Contains(t, sub.XMLContent, "<cbc:ID>INV-0001</cbc:ID>")

	// The original's submitted record is untouched.
	subs := submissionsFor(t, db, original.ID)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubmissionSubmitted, subs[0].Status)
}

func TestSubmitCreditNoteOriginalNotSubmitted(t *testing.T) {
	db := setupTestDB(t)
	original := seedInvoice(t, db, "INV-0001")
	credit := seedInvoice(t, db, "INV-0002")

	client := acceptingClient()
	s := NewSubmitter(client)

	_, err := s.SubmitCreditNote(context.Background(), db, testSeller(), credit.ID,
		original.ID, "goods returned", SubmitOptions{})
	assert.ErrorIs(t, err, ErrOriginalNotSubmitted)
	assert.Zero(t, client.Calls)

	// The rejection must not leave a Submission row for the credit note.
	assert.Empty(t, submissionsFor(t, db, credit.ID))
}

func TestSubmitCreditNoteMissingReference(t *testing.T) {
	db := setupTestDB(t)
	credit := seedInvoice(t, db, "INV-0002")
	s := NewSubmitter(acceptingClient())

	_, err := s.SubmitCreditNote(context.Background(), db, testSeller(), credit.ID,
		0, "goods returned", SubmitOptions{})
	assert.ErrorIs(t, err, ErrMissingCreditReference)
	assert.Empty(t, submissionsFor(t, db, credit.ID))
}
