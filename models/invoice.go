package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft      InvoiceStatus = "draft"
	InvoiceSent       InvoiceStatus = "sent"
	InvoicePaid       InvoiceStatus = "paid"
	InvoiceOverdue    InvoiceStatus = "overdue"
	InvoiceCancelled  InvoiceStatus = "cancelled"
	InvoiceWrittenOff InvoiceStatus = "written_off"
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled, InvoiceWrittenOff:
		return true
	}
	return false
}

// TaxCategory classifies a line for VAT purposes.
type TaxCategory string

const (
	TaxStandard  TaxCategory = "standard"
	TaxZeroRated TaxCategory = "zero_rated"
	TaxExempt    TaxCategory = "exempt"
)

// Valid reports whether c is a known tax category.
func (c TaxCategory) Valid() bool {
	switch c {
	case TaxStandard, TaxZeroRated, TaxExempt:
		return true
	}
	return false
}

// PaymentMethod feeds the document type tag on the encoded payload.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentReceivable PaymentMethod = "receivable"
)

// Invoice is the current/live state of a commercial document. Number is
// unique per tenant and immutable once a submitted Submission exists; all
// later number changes go through the audited edit path.
type Invoice struct {
	ID     uint       `json:"id" gorm:"primaryKey"`
	Number string     `json:"number" gorm:"unique;not null"`
	Kind   SeriesKind `json:"kind" gorm:"type:VARCHAR(20);not null;index"`

	CustomerID uint     `json:"-"`
	Customer   Customer `json:"customer" gorm:"foreignKey:CustomerID;references:Id"`

	Items []LineItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	Status          InvoiceStatus `json:"status" gorm:"type:VARCHAR(20);not null;default:'draft'"`
	IsCreditInvoice bool          `json:"is_credit_invoice"`

	Currency      string          `json:"currency" gorm:"size:3;not null;default:'JOD'"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"type:VARCHAR(20);not null;default:'cash'"`
	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2)"`
	DiscountTotal decimal.Decimal `json:"discount_total" gorm:"type:numeric(12,2)"`
	TaxTotal      decimal.Decimal `json:"tax_total" gorm:"type:numeric(12,2)"`
	Total         decimal.Decimal `json:"total" gorm:"type:numeric(12,2)"`

	IssueDate time.Time `json:"issue_date"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type LineItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	InvoiceID uint `json:"-" gorm:"index"`

	// Optional link into the article catalog; description is snapshotted so
	// later catalog edits do not rewrite issued documents.
	ArticleID   *string `json:"article_id" gorm:"index"`
	Description string  `json:"description" gorm:"not null"`

	// Quantities and unit prices keep three decimals; only line totals are
	// rounded to the currency's two.
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric(12,3)"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,3)"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:numeric(12,2)"`
	TaxCategory TaxCategory     `json:"tax_category" gorm:"type:VARCHAR(20);not null;default:'standard'"`
	TaxPercent  decimal.Decimal `json:"tax_percent" gorm:"type:numeric(12,2)"`
}
