package models

import "time"

// AuditLog records one control update dispatched to the risk server.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ModelID   string `gorm:"size:128;index" json:"modelId"`
	RequestID string `gorm:"size:36;index" json:"requestId"`

	Entity    string `gorm:"size:50;not null" json:"entity"` // "control_set", "control_sets"
	EntityURI string `gorm:"type:text" json:"entityUri"`
	Action    string `gorm:"size:50;not null" json:"action"` // "toggle", "batch_toggle", "retry"
	Outcome   string `gorm:"size:16" json:"outcome"`         // "ok", "error"
	Details   string `gorm:"type:text" json:"details"`

	DurationMS int64 `json:"durationMs"`
}
