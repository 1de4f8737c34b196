package models

// SeriesKind names an invoice-number stream. Each kind has its own prefix
// and counter so taxable, exempt, write-off and quote documents never share
// a number space.
type SeriesKind string

const (
	SeriesTaxable  SeriesKind = "taxable"
	SeriesExempt   SeriesKind = "exempt"
	SeriesWriteOff SeriesKind = "write_off"
	SeriesQuote    SeriesKind = "quote"
)

// Valid reports whether k is one of the configured series kinds.
func (k SeriesKind) Valid() bool {
	switch k {
	case SeriesTaxable, SeriesExempt, SeriesWriteOff, SeriesQuote:
		return true
	}
	return false
}

// InvoiceSeries is the per-kind counter row. NextNumber is the sequence the
// next allocation will hand out; it only ever moves forward, even when the
// invoice that consumed a number is later deleted.
type InvoiceSeries struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Kind       SeriesKind `json:"kind" gorm:"type:VARCHAR(20);uniqueIndex;not null"`
	Prefix     string     `json:"prefix" gorm:"size:10;not null"`
	NextNumber int64      `json:"next_number" gorm:"not null;default:1"`
}

func (InvoiceSeries) TableName() string {
	return "invoice_series"
}
