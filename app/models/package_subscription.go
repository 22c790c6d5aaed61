package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusTrial     = "trial"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// PackageSubscription is a time-bounded grant of one user's access to one
// package. Rows are never deleted; renewals create new rows and the old one
// is marked expired. At most one row per (user, package) may be in an
// entitling status at any instant.
type PackageSubscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index:idx_subscriptions_user_package,priority:1" json:"user_id"`
	PackageID        uint       `gorm:"not null;index:idx_subscriptions_user_package,priority:2" json:"package_id"`
	Status           string     `gorm:"type:varchar(20);not null;default:'trial';index" json:"status"`
	StartsAt         time.Time  `gorm:"type:timestamp;not null" json:"starts_at"`
	ExpiresAt        *time.Time `gorm:"type:timestamp;default:null;index" json:"expires_at,omitempty"`
	IsTrial          bool       `gorm:"default:false" json:"is_trial"`
	AutoRenew        bool       `gorm:"default:false" json:"auto_renew"`
	PricePaidOre     *int64     `gorm:"default:null" json:"price_paid_ore,omitempty"`
	PaymentReference string     `gorm:"type:varchar(100);default:''" json:"payment_reference"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// EntitlingStatuses are the statuses under which a subscription row can
// grant access, before its expiry timestamp is considered.
func EntitlingStatuses() []string {
	return []string{SubscriptionStatusActive, SubscriptionStatusTrial}
}

// IsEntitling reports whether the row's status is active or trial.
func (s *PackageSubscription) IsEntitling() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrial
}

// IsExpiredAt reports whether the subscription window has closed at the
// given instant. A nil ExpiresAt means the grant is unbounded.
func (s *PackageSubscription) IsExpiredAt(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// DaysRemainingAt returns whole days left in the window, 0 when expired
// and -1 for unbounded subscriptions.
func (s *PackageSubscription) DaysRemainingAt(now time.Time) int {
	if s.ExpiresAt == nil {
		return -1
	}
	if s.IsExpiredAt(now) {
		return 0
	}
	return int(s.ExpiresAt.Sub(now).Hours() / 24)
}
