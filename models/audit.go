package models

import "time"

// NumberChangeAudit is written exactly once per accepted number edit and is
// immutable thereafter. Auditors reconcile these rows against the gap scan.
type NumberChangeAudit struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	InvoiceID uint      `json:"invoice_id" gorm:"not null;index"`
	OldNumber string    `json:"old_number" gorm:"not null"`
	NewNumber string    `json:"new_number" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"not null"`
	ActorID   string    `json:"actor_id" gorm:"size:128"`
	CreatedAt time.Time `json:"created_at"`
}
