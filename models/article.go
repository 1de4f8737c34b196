package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article is a reusable catalog item for invoice lines. Deactivated
// articles are kept for old invoices but hidden from listings.
type Article struct {
	Id          string  `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Active      bool    `json:"-"`
}

func (article *Article) BeforeCreate(tx *gorm.DB) (err error) {
	article.Id = uuid.NewString()
	return
}
