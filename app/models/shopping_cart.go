package models

import "time"

// ShoppingCart holds packages a visitor intends to purchase. Logged-in
// users get a user-bound cart; anonymous visitors are keyed by session.
type ShoppingCart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     *uint      `gorm:"default:null;index" json:"user_id,omitempty"`
	SessionKey string     `gorm:"type:varchar(64);default:'';index" json:"-"`
	Items      []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CartItem snapshots the package price at the time it was added.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;index:ux_cart_items_cart_package,unique,priority:1" json:"cart_id"`
	PackageID uint      `gorm:"not null;index:ux_cart_items_cart_package,unique,priority:2" json:"package_id"`
	Quantity  uint      `gorm:"default:1" json:"quantity"`
	PriceOre  int64     `gorm:"not null" json:"price_ore"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TotalOre is the line total for this item.
func (i *CartItem) TotalOre() int64 {
	return i.PriceOre * int64(i.Quantity)
}

// TotalOre sums all line totals in the cart.
func (c *ShoppingCart) TotalOre() int64 {
	var total int64
	for i := range c.Items {
		total += c.Items[i].TotalOre()
	}
	return total
}

// ItemCount returns the number of distinct packages in the cart.
func (c *ShoppingCart) ItemCount() int {
	return len(c.Items)
}
