package models

import "time"

const (
	AccessOutcomeGranted = "granted"
	AccessOutcomeDenied  = "denied"
)

const (
	DenialReasonNoSubscription = "no_subscription"
	DenialReasonExpired        = "expired"
)

// AccessAttempt is the append-only audit record of one authorization
// decision. Rows are written exactly once, before the decision is served,
// and are never updated or deleted.
type AccessAttempt struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_access_attempts_user_time,priority:1" json:"user_id"`
	PackageID    *uint     `gorm:"default:null;index" json:"package_id,omitempty"`
	Outcome      string    `gorm:"type:varchar(10);not null;index" json:"outcome"`
	DenialReason string    `gorm:"type:varchar(30);default:''" json:"denial_reason,omitempty"`
	IPAddress    string    `gorm:"type:varchar(45);default:''" json:"ip_address"`
	UserAgent    string    `gorm:"type:text" json:"user_agent"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_access_attempts_user_time,priority:2" json:"created_at"`
}
