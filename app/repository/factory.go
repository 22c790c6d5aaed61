package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles all repository implementations.
type Repositories struct {
	User          UserRepository
	Package       PackageRepository
	Subscription  SubscriptionRepository
	AccessAttempt AccessAttemptRepository
	Content       ContentRepository
	Cart          CartRepository
	Order         OrderRepository
	PaymentEvent  PaymentEventRepository
	Coupon        CouponRepository
}

// NewRepositories creates all repositories against one DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Package:       NewPackageRepository(db),
		Subscription:  NewSubscriptionRepository(db),
		AccessAttempt: NewAccessAttemptRepository(db),
		Content:       NewContentRepository(db),
		Cart:          NewCartRepository(db),
		Order:         NewOrderRepository(db),
		PaymentEvent:  NewPaymentEventRepository(db),
		Coupon:        NewCouponRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetPackageRepository returns the legal package repository instance
func (f *Factory) GetPackageRepository() PackageRepository {
	return f.GetRepositories().Package
}

// GetSubscriptionRepository returns the subscription repository instance
func (f *Factory) GetSubscriptionRepository() SubscriptionRepository {
	return f.GetRepositories().Subscription
}

// GetAccessAttemptRepository returns the audit repository instance
func (f *Factory) GetAccessAttemptRepository() AccessAttemptRepository {
	return f.GetRepositories().AccessAttempt
}

// GetContentRepository returns the content repository instance
func (f *Factory) GetContentRepository() ContentRepository {
	return f.GetRepositories().Content
}

// GetCartRepository returns the shopping cart repository instance
func (f *Factory) GetCartRepository() CartRepository {
	return f.GetRepositories().Cart
}

// GetOrderRepository returns the order repository instance
func (f *Factory) GetOrderRepository() OrderRepository {
	return f.GetRepositories().Order
}

// GetPaymentEventRepository returns the payment event repository instance
func (f *Factory) GetPaymentEventRepository() PaymentEventRepository {
	return f.GetRepositories().PaymentEvent
}

// GetCouponRepository returns the coupon repository instance
func (f *Factory) GetCouponRepository() CouponRepository {
	return f.GetRepositories().Coupon
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
