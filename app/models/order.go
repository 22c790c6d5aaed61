package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
	PaymentStatusRefunded   = "refunded"
)

// Order is one customer purchase of one or more packages. Amounts are in
// øre to keep currency arithmetic integral.
type Order struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	UUID              string      `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	OrderNumber       string      `gorm:"type:varchar(20);uniqueIndex" json:"order_number"`
	UserID            uint        `gorm:"not null;index" json:"user_id"`
	TotalOre          int64       `gorm:"not null;default:0" json:"total_ore"`
	TaxOre            int64       `gorm:"not null;default:0" json:"tax_ore"`
	DiscountOre       int64       `gorm:"not null;default:0" json:"discount_ore"`
	FinalOre          int64       `gorm:"not null;default:0" json:"final_ore"`
	Status            string      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus     string      `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	ProviderPaymentID string      `gorm:"type:varchar(200);default:'';index" json:"provider_payment_id"`
	PaymentMethod     string      `gorm:"type:varchar(50);default:''" json:"payment_method"`
	BillingEmail      string      `gorm:"type:varchar(200);not null" json:"billing_email"`
	BillingName       string      `gorm:"type:varchar(200);not null" json:"billing_name"`
	BillingOrg        string      `gorm:"type:varchar(200);default:''" json:"billing_org"`
	BillingCountry    string      `gorm:"type:varchar(2);default:'NO'" json:"billing_country"`
	CouponCode        string      `gorm:"type:varchar(50);default:''" json:"coupon_code"`
	Items             []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	PaidAt            *time.Time  `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CompletedAt       *time.Time  `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt         time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem snapshots the package price at the time of purchase.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	PackageID   uint      `gorm:"not null;index" json:"package_id"`
	PackageName string    `gorm:"type:varchar(200);not null;default:''" json:"package_name"`
	Quantity    uint      `gorm:"default:1" json:"quantity"`
	PriceOre    int64     `gorm:"not null" json:"price_ore"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	return nil
}

// IsPaid reports whether payment has succeeded for this order.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusSucceeded
}

// IsCompleted reports whether every subscription on this order was granted.
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// CanBeCancelled reports whether the order may still be cancelled.
func (o *Order) CanBeCancelled() bool {
	return (o.Status == OrderStatusPending || o.Status == OrderStatusPaid) &&
		o.PaymentStatus != PaymentStatusSucceeded
}

// CalculateTotal recomputes the order amounts from its items.
func (o *Order) CalculateTotal() int64 {
	var items int64
	for i := range o.Items {
		items += o.Items[i].PriceOre * int64(o.Items[i].Quantity)
	}
	o.TotalOre = items
	o.FinalOre = items + o.TaxOre - o.DiscountOre
	return o.FinalOre
}

// TotalOre is the line total for this order item.
func (i *OrderItem) TotalOre() int64 {
	return i.PriceOre * int64(i.Quantity)
}
