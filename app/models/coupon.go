package models

import "time"

// Coupon records a discount code redeemed at checkout. Either a percentage
// or a fixed øre amount is set, never both.
type Coupon struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"type:varchar(50);uniqueIndex" json:"code" validate:"required,max=50"`
	Description     string     `gorm:"type:varchar(200);default:''" json:"description"`
	DiscountPercent *uint      `gorm:"default:null" json:"discount_percent,omitempty"`
	DiscountOre     *int64     `gorm:"default:null" json:"discount_ore,omitempty"`
	ValidFrom       time.Time  `gorm:"type:timestamp;not null" json:"valid_from"`
	ValidUntil      *time.Time `gorm:"type:timestamp;default:null" json:"valid_until,omitempty"`
	MaxUses         uint       `gorm:"default:0" json:"max_uses"`
	UseCount        uint       `gorm:"default:0" json:"use_count"`
	IsActive        bool       `gorm:"default:true;index" json:"is_active"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValidAt reports whether the coupon can be applied at the given instant.
func (c *Coupon) IsValidAt(now time.Time) bool {
	if !c.IsActive || now.Before(c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && !now.Before(*c.ValidUntil) {
		return false
	}
	if c.MaxUses > 0 && c.UseCount >= c.MaxUses {
		return false
	}
	return true
}

// DiscountFor computes the discount in øre for the given subtotal,
// clamped so the total never goes negative.
func (c *Coupon) DiscountFor(subtotalOre int64) int64 {
	var discount int64
	switch {
	case c.DiscountPercent != nil:
		discount = subtotalOre * int64(*c.DiscountPercent) / 100
	case c.DiscountOre != nil:
		discount = *c.DiscountOre
	}
	if discount > subtotalOre {
		discount = subtotalOre
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
