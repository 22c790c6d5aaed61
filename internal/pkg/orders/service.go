// Package orders turns shopping carts into orders and paid orders into
// package subscriptions.
package orders

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
)

var (
	ErrEmptyCart     = errors.New("orders: cart is empty")
	ErrOrderNotFound = errors.New("orders: order not found")
	ErrCouponInvalid = errors.New("orders: coupon is not valid")
)

// SubscriptionTerm is how long one purchased package stays active.
const SubscriptionTerm = 365 * 24 * time.Hour

// Activator is the slice of the subscription service MarkPaid drives.
type Activator interface {
	Activate(in subscription.Activation) (*models.PackageSubscription, error)
	FindActive(userID, packageID uint, now time.Time) (*models.PackageSubscription, error)
}

// Checkout carries the billing details collected on the checkout page.
type Checkout struct {
	UserID     uint
	Email      string
	Name       string
	Org        string
	CouponCode string
}

// Service owns the order lifecycle from checkout to activation.
type Service struct {
	orders  repository.OrderRepository
	carts   repository.CartRepository
	coupons repository.CouponRepository
	subs    Activator
}

func NewService(orders repository.OrderRepository, carts repository.CartRepository, coupons repository.CouponRepository, subs Activator) *Service {
	return &Service{orders: orders, carts: carts, coupons: coupons, subs: subs}
}

// CreateFromCart snapshots the cart into a pending order and empties the
// cart. Coupon discounts are applied against the order total.
func (s *Service) CreateFromCart(cart *models.ShoppingCart, checkout Checkout, pkgNames map[uint]string, now time.Time) (*models.Order, error) {
	full, err := s.carts.GetWithItems(cart.ID)
	if err != nil {
		return nil, err
	}
	if len(full.Items) == 0 {
		return nil, ErrEmptyCart
	}

	number, err := s.nextOrderNumber(now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:   number,
		UserID:        checkout.UserID,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		BillingEmail:  checkout.Email,
		BillingName:   checkout.Name,
		BillingOrg:    checkout.Org,
	}
	for _, item := range full.Items {
		order.Items = append(order.Items, models.OrderItem{
			PackageID:   item.PackageID,
			PackageName: pkgNames[item.PackageID],
			Quantity:    1,
			PriceOre:    item.PriceOre,
		})
	}

	var coupon *models.Coupon
	if checkout.CouponCode != "" {
		coupon, err = s.coupons.GetByCode(checkout.CouponCode)
		if err != nil {
			return nil, err
		}
		if coupon == nil || !coupon.IsValidAt(now) {
			return nil, ErrCouponInvalid
		}
		order.CouponCode = coupon.Code
		order.DiscountOre = coupon.DiscountFor(sumItems(order.Items))
	}

	order.CalculateTotal()

	if err := s.orders.Create(order); err != nil {
		return nil, err
	}

	if coupon != nil {
		if err := s.coupons.IncrementUseCount(coupon.ID); err != nil {
			log.Warnf("[Orders] Failed to count coupon use for %s: %v", coupon.Code, err)
		}
	}

	if err := s.carts.Clear(cart.ID); err != nil {
		log.Warnf("[Orders] Failed to clear cart %d after checkout: %v", cart.ID, err)
	}

	return order, nil
}

// MarkPaid transitions a pending order to paid and activates one
// subscription per order line. Re-running it is safe: an order already
// completed returns as-is, and an order stuck between paid and completed
// (payment recorded, one or more activations still missing) only re-drives
// the lines without a grant. Duplicate provider callbacks therefore finish
// whatever the first delivery left undone.
func (s *Service) MarkPaid(orderID uint, providerPaymentID string, now time.Time) (*models.Order, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.IsCompleted() {
		return order, nil
	}

	if !order.IsPaid() {
		order.Status = models.OrderStatusPaid
		order.PaymentStatus = models.PaymentStatusSucceeded
		order.ProviderPaymentID = providerPaymentID
		order.PaidAt = &now
		if err := s.orders.Update(order); err != nil {
			return nil, err
		}
	}

	term := SubscriptionTerm
	for _, item := range order.Items {
		existing, err := s.subs.FindActive(order.UserID, item.PackageID, now)
		if err != nil {
			return order, err
		}
		if existing != nil && existing.PaymentReference == order.OrderNumber {
			continue
		}
		price := item.PriceOre
		_, err = s.subs.Activate(subscription.Activation{
			UserID:           order.UserID,
			PackageID:        item.PackageID,
			Now:              now,
			Duration:         &term,
			PricePaidOre:     &price,
			PaymentReference: order.OrderNumber,
		})
		if err != nil {
			// The order stays paid but not completed, so the provider's
			// redelivery re-drives the remaining lines.
			log.Errorf("[Orders] Activation failed for order %s package %d: %v", order.OrderNumber, item.PackageID, err)
			return order, err
		}
	}

	completed := time.Now()
	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &completed
	if err := s.orders.Update(order); err != nil {
		return nil, err
	}

	return order, nil
}

// Cancel voids a pending order. Paid orders cannot be cancelled here.
func (s *Service) Cancel(orderID uint) (*models.Order, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.CanBeCancelled() {
		return nil, fmt.Errorf("orders: order %s cannot be cancelled in state %s", order.OrderNumber, order.Status)
	}
	order.Status = models.OrderStatusCancelled
	if err := s.orders.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// nextOrderNumber produces a unique human-readable order number,
// e.g. JP-2025-483920.
func (s *Service) nextOrderNumber(now time.Time) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("JP-%d-%06d", now.Year(), n.Int64())
		exists, err := s.orders.OrderNumberExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.New("orders: could not allocate a unique order number")
}

func sumItems(items []models.OrderItem) int64 {
	var total int64
	for i := range items {
		total += items[i].PriceOre * int64(items[i].Quantity)
	}
	return total
}
