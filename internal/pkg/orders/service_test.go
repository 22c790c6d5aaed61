package orders

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
)

type memoryOrders struct {
	nextID uint
	orders map[uint]*models.Order
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: make(map[uint]*models.Order)}
}

func (m *memoryOrders) Create(order *models.Order) error {
	m.nextID++
	order.ID = m.nextID
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *memoryOrders) GetByID(id uint) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *o
	return &copied, nil
}

func (m *memoryOrders) GetByOrderNumber(number string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memoryOrders) GetByProviderPaymentID(id string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.ProviderPaymentID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memoryOrders) ListByUser(userID uint, offset, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memoryOrders) Update(order *models.Order) error {
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *memoryOrders) OrderNumberExists(number string) (bool, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

type stubCarts struct {
	cart    *models.ShoppingCart
	cleared bool
}

func (s *stubCarts) GetOrCreateByUser(userID uint) (*models.ShoppingCart, error) {
	return s.cart, nil
}
func (s *stubCarts) GetOrCreateBySession(key string) (*models.ShoppingCart, error) {
	return s.cart, nil
}
func (s *stubCarts) GetWithItems(cartID uint) (*models.ShoppingCart, error) { return s.cart, nil }
func (s *stubCarts) UpsertItem(item *models.CartItem) error                { return nil }
func (s *stubCarts) RemoveItem(cartID, packageID uint) error               { return nil }
func (s *stubCarts) Clear(cartID uint) error {
	s.cleared = true
	s.cart.Items = nil
	return nil
}

type stubCoupons struct {
	coupon *models.Coupon
	uses   int
}

func (s *stubCoupons) GetByCode(code string) (*models.Coupon, error) {
	if s.coupon != nil && strings.EqualFold(s.coupon.Code, code) {
		return s.coupon, nil
	}
	return nil, nil
}

func (s *stubCoupons) IncrementUseCount(id uint) error {
	s.uses++
	return nil
}

type recordingActivator struct {
	activations []subscription.Activation
	err         error
	// failFor makes Activate fail for one package id, simulating a store
	// fault mid-order.
	failFor uint
}

func (r *recordingActivator) Activate(in subscription.Activation) (*models.PackageSubscription, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.failFor != 0 && in.PackageID == r.failFor {
		return nil, errors.New("subscription store unavailable")
	}
	r.activations = append(r.activations, in)
	return &models.PackageSubscription{UserID: in.UserID, PackageID: in.PackageID, PaymentReference: in.PaymentReference}, nil
}

func (r *recordingActivator) FindActive(userID, packageID uint, now time.Time) (*models.PackageSubscription, error) {
	for i := len(r.activations) - 1; i >= 0; i-- {
		act := r.activations[i]
		if act.UserID == userID && act.PackageID == packageID {
			return &models.PackageSubscription{
				UserID:           userID,
				PackageID:        packageID,
				PaymentReference: act.PaymentReference,
			}, nil
		}
	}
	return nil, nil
}

func testCart() *models.ShoppingCart {
	uid := uint(10)
	return &models.ShoppingCart{
		ID:     1,
		UserID: &uid,
		Items: []models.CartItem{
			{CartID: 1, PackageID: 1, Quantity: 1, PriceOre: 199900},
			{CartID: 1, PackageID: 2, Quantity: 1, PriceOre: 249900},
		},
	}
}

func testNames() map[uint]string {
	return map[uint]string{1: "Arbeidsrett", 2: "Helse"}
}

func TestCreateFromCart(t *testing.T) {
	carts := &stubCarts{cart: testCart()}
	svc := NewService(newMemoryOrders(), carts, &stubCoupons{}, &recordingActivator{})

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	order, err := svc.CreateFromCart(carts.cart, Checkout{UserID: 10, Email: "kari@example.no", Name: "Kari"}, testNames(), now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !strings.HasPrefix(order.OrderNumber, "JP-2025-") {
		t.Errorf("order number %q lacks JP-2025- prefix", order.OrderNumber)
	}
	if order.TotalOre != 449800 || order.FinalOre != 449800 {
		t.Errorf("totals wrong: total=%d final=%d", order.TotalOre, order.FinalOre)
	}
	if len(order.Items) != 2 || order.Items[0].PackageName == "" {
		t.Errorf("items not snapshotted: %+v", order.Items)
	}
	if !carts.cleared {
		t.Error("cart was not cleared after checkout")
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
}

func TestCreateFromCartEmpty(t *testing.T) {
	uid := uint(10)
	carts := &stubCarts{cart: &models.ShoppingCart{ID: 1, UserID: &uid}}
	svc := NewService(newMemoryOrders(), carts, &stubCoupons{}, &recordingActivator{})

	_, err := svc.CreateFromCart(carts.cart, Checkout{UserID: 10}, nil, time.Now())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("got %v, want ErrEmptyCart", err)
	}
}

func TestCreateFromCartWithCoupon(t *testing.T) {
	percent := uint(10)
	coupons := &stubCoupons{coupon: &models.Coupon{
		ID:              1,
		Code:            "JUBILEUM10",
		DiscountPercent: &percent,
		ValidFrom:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
	}}
	carts := &stubCarts{cart: testCart()}
	svc := NewService(newMemoryOrders(), carts, coupons, &recordingActivator{})

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	order, err := svc.CreateFromCart(carts.cart, Checkout{UserID: 10, CouponCode: "JUBILEUM10"}, testNames(), now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.DiscountOre != 44980 {
		t.Errorf("discount = %d, want 44980", order.DiscountOre)
	}
	if order.FinalOre != 449800-44980 {
		t.Errorf("final = %d", order.FinalOre)
	}
	if coupons.uses != 1 {
		t.Errorf("coupon use count bumped %d times, want 1", coupons.uses)
	}
}

func TestCreateFromCartRejectsExpiredCoupon(t *testing.T) {
	until := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	coupons := &stubCoupons{coupon: &models.Coupon{
		ID:         1,
		Code:       "GAMMEL",
		ValidFrom:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: &until,
		IsActive:   true,
	}}
	carts := &stubCarts{cart: testCart()}
	svc := NewService(newMemoryOrders(), carts, coupons, &recordingActivator{})

	_, err := svc.CreateFromCart(carts.cart, Checkout{UserID: 10, CouponCode: "GAMMEL"}, testNames(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("got %v, want ErrCouponInvalid", err)
	}
}

func TestMarkPaidActivatesEachItem(t *testing.T) {
	carts := &stubCarts{cart: testCart()}
	activator := &recordingActivator{}
	repo := newMemoryOrders()
	svc := NewService(repo, carts, &stubCoupons{}, activator)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	order, err := svc.CreateFromCart(carts.cart, Checkout{UserID: 10}, testNames(), now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paid, err := svc.MarkPaid(order.ID, "pi_123", now)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != models.OrderStatusCompleted || !paid.IsPaid() {
		t.Fatalf("order not completed: status=%s payment=%s", paid.Status, paid.PaymentStatus)
	}
	if len(activator.activations) != 2 {
		t.Fatalf("got %d activations, want 2", len(activator.activations))
	}
	for _, act := range activator.activations {
		if act.UserID != 10 {
			t.Errorf("activation user = %d, want 10", act.UserID)
		}
		if act.Duration == nil || *act.Duration != SubscriptionTerm {
			t.Errorf("activation duration = %v, want %v", act.Duration, SubscriptionTerm)
		}
		if act.PaymentReference != order.OrderNumber {
			t.Errorf("payment reference = %q, want %q", act.PaymentReference, order.OrderNumber)
		}
	}
}

func TestMarkPaidTwiceIsNoOp(t *testing.T) {
	carts := &stubCarts{cart: testCart()}
	activator := &recordingActivator{}
	svc := NewService(newMemoryOrders(), carts, &stubCoupons{}, activator)

	now := time.Now()
	order, _ := svc.CreateFromCart(carts.cart, Checkout{UserID: 10}, testNames(), now)

	if _, err := svc.MarkPaid(order.ID, "pi_123", now); err != nil {
		t.Fatalf("first mark paid: %v", err)
	}
	if _, err := svc.MarkPaid(order.ID, "pi_123", now); err != nil {
		t.Fatalf("second mark paid: %v", err)
	}
	if len(activator.activations) != 2 {
		t.Fatalf("duplicate MarkPaid reactivated: %d activations, want 2", len(activator.activations))
	}
}

func TestMarkPaidRedeliveryFinishesActivation(t *testing.T) {
	carts := &stubCarts{cart: testCart()}
	activator := &recordingActivator{failFor: 2}
	svc := NewService(newMemoryOrders(), carts, &stubCoupons{}, activator)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	order, _ := svc.CreateFromCart(carts.cart, Checkout{UserID: 10}, testNames(), now)

	// First delivery: payment is recorded but the second line's activation
	// fails, so the provider gets a non-2xx and redelivers.
	if _, err := svc.MarkPaid(order.ID, "pi_123", now); err == nil {
		t.Fatal("first MarkPaid should surface the activation failure")
	}
	if len(activator.activations) != 1 {
		t.Fatalf("got %d activations after failed run, want 1", len(activator.activations))
	}

	// Redelivery after the store recovers must grant the missing line
	// without re-activating the one that already went through.
	activator.failFor = 0
	paid, err := svc.MarkPaid(order.ID, "pi_123", now)
	if err != nil {
		t.Fatalf("redelivered MarkPaid: %v", err)
	}
	if len(activator.activations) != 2 {
		t.Fatalf("got %d activations after redelivery, want 2", len(activator.activations))
	}
	if activator.activations[1].PackageID != 2 {
		t.Errorf("redelivery activated package %d, want 2", activator.activations[1].PackageID)
	}
	if !paid.IsCompleted() {
		t.Errorf("order status = %s, want completed", paid.Status)
	}
}

func TestCancelPendingOrder(t *testing.T) {
	carts := &stubCarts{cart: testCart()}
	svc := NewService(newMemoryOrders(), carts, &stubCoupons{}, &recordingActivator{})

	now := time.Now()
	order, _ := svc.CreateFromCart(carts.cart, Checkout{UserID: 10}, testNames(), now)

	cancelled, err := svc.Cancel(order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// A completed order refuses cancellation
	carts2 := &stubCarts{cart: testCart()}
	svc2 := NewService(newMemoryOrders(), carts2, &stubCoupons{}, &recordingActivator{})
	order2, _ := svc2.CreateFromCart(carts2.cart, Checkout{UserID: 10}, testNames(), now)
	if _, err := svc2.MarkPaid(order2.ID, "pi_9", now); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if _, err := svc2.Cancel(order2.ID); err == nil {
		t.Fatal("cancelling a paid order should fail")
	}
}
