package models

import "time"

// IdempotencyKey records the first response for a keyed mutating request
// so a retry replays it instead of, say, minting a second invoice number.
// Lives in the tenant schema.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex"` // Idempotency-Key header
	RequestHash    string     `json:"request_hash" gorm:"size:64"`     // sha256 over method|path|body|schema|user
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	TenantSchema   string     `json:"tenant_schema" gorm:"size:64"`
	UserID         string     `json:"user_id" gorm:"size:128"`
	ResponseStatus int        `json:"response_status"` // 0 while the first attempt is still running
	ResponseBody   []byte     `json:"-" gorm:"type:bytea"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}
