package models

// Customer is the buyer party on an invoice. TIN is optional for retail
// customers; when present it is carried into the encoded document.
type Customer struct {
	Id           uint   `json:"id" gorm:"primaryKey"`
	CompanyName  string `json:"company_name" gorm:"not null;unique"`
	Address      string `json:"address" gorm:"not null"`
	City         string `json:"city" gorm:"not null"`
	Country      string `json:"country" gorm:"not null"`
	Zip          string `json:"zip" gorm:"null"`
	TIN          string `json:"tin" gorm:"size:20"`
	Email        string `json:"email" gorm:"unique;not null"`
	FirstName    string `json:"first_name" gorm:"not null"`
	LastName     string `json:"last_name" gorm:"not null"`
	PhoneNumber  string `json:"phone_number" gorm:"not null"`
	MobileNumber string `json:"mobile_number"`
	Salutation   string `json:"salutation"`
	Title        string `json:"title"`
	Active       bool   `json:"-"`
}
