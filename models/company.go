package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxpayerCategory selects the document type tag family on encoded payloads.
type TaxpayerCategory string

const (
	TaxpayerGeneral TaxpayerCategory = "general"
	TaxpayerSpecial TaxpayerCategory = "special"
)

// Company is the seller identity of a tenant. TIN and IncomeSource are the
// registration values the tax authority issued for this taxpayer; both end
// up verbatim in every encoded document.
type Company struct {
	Id            string           `json:"id" gorm:"primaryKey"`
	CompanyName   string           `json:"company_name" gorm:"not null;unique"`
	Address       string           `json:"address" gorm:"not null"`
	City          string           `json:"city" gorm:"not null"`
	Country       string           `json:"country" gorm:"not null"`
	Zip           string           `json:"zip" gorm:"null"`
	Homepage      string           `json:"homepage" gorm:"null"`
	TIN           string           `json:"tin" gorm:"size:20"`
	IncomeSource  string           `json:"income_source" gorm:"size:20"`
	Category      TaxpayerCategory `json:"category" gorm:"type:VARCHAR(10);default:'general'"`
	UserId        string           `json:"-"`
	User          User             `json:"user" gorm:"foreignKey:UserId;references:Id"`
	PId           uint             `json:"-"`
	ContactPerson ContactPerson    `json:"contact_person" gorm:"foreignKey:PId;references:Id"`
	SchemaName    string           `json:"-"`
}

func (company *Company) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	company.Id = uuid.NewString()
	return
}
