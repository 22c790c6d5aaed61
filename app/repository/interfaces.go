package repository

import (
	"time"

	"github.com/juridiskporten/portal/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// PackageRepository defines the interface for legal package operations
type PackageRepository interface {
	Create(pkg *models.LegalPackage) error
	GetByID(id uint) (*models.LegalPackage, error)
	GetBySlug(slug string) (*models.LegalPackage, error)
	GetByType(packageType string) (*models.LegalPackage, error)
	GetActive() ([]models.LegalPackage, error)
	List(offset, limit int) ([]models.LegalPackage, error)
	Update(pkg *models.LegalPackage) error
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for subscription rows.
// Rows are never deleted; terminal state changes go through
// TransitionStatus so that expired/cancelled rows stay immutable.
type SubscriptionRepository interface {
	Create(sub *models.PackageSubscription) error
	GetByID(id uint) (*models.PackageSubscription, error)
	ListEntitling(userID, packageID uint) ([]models.PackageSubscription, error)
	ListByUser(userID uint) ([]models.PackageSubscription, error)
	ListByPackage(packageID uint, offset, limit int) ([]models.PackageSubscription, error)
	TransitionStatus(id uint, from []string, to string) (bool, error)
	CountEntitlingByPackage(packageID uint) (int64, error)
}

// AccessAttemptFilter narrows audit-log queries for the admin view.
type AccessAttemptFilter struct {
	UserID    uint
	PackageID uint
	Outcome   string
	From      time.Time
	To        time.Time
}

// AccessAttemptRepository is append-only: no update or delete operations
// exist on audit records.
type AccessAttemptRepository interface {
	Create(attempt *models.AccessAttempt) error
	ListByUser(userID uint, offset, limit int) ([]models.AccessAttempt, error)
	List(filter AccessAttemptFilter, offset, limit int) ([]models.AccessAttempt, error)
	Count(filter AccessAttemptFilter) (int64, error)
}

// ContentRepository defines the interface for package content and bookmarks
type ContentRepository interface {
	Create(content *models.Content) error
	GetByID(id uint) (*models.Content, error)
	GetBySlug(slug string) (*models.Content, error)
	ListPublishedByPackage(packageID uint, contentType string, offset, limit int) ([]models.Content, error)
	CountPublishedByPackage(packageID uint) (int64, error)
	Update(content *models.Content) error
	CreateBookmark(bookmark *models.ContentBookmark) error
	DeleteBookmark(userID, contentID uint) error
	GetBookmark(userID, contentID uint) (*models.ContentBookmark, error)
	ListBookmarksByUser(userID uint) ([]models.ContentBookmark, error)
	GetProgress(userID, contentID uint) (*models.UserProgress, error)
	SaveProgress(progress *models.UserProgress) error
	ListProgressByUser(userID uint, limit int) ([]models.UserProgress, error)
}

// CartRepository defines the interface for shopping cart operations
type CartRepository interface {
	GetOrCreateByUser(userID uint) (*models.ShoppingCart, error)
	GetOrCreateBySession(sessionKey string) (*models.ShoppingCart, error)
	GetWithItems(cartID uint) (*models.ShoppingCart, error)
	UpsertItem(item *models.CartItem) error
	RemoveItem(cartID, packageID uint) error
	Clear(cartID uint) error
}

// OrderRepository defines the interface for order operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	GetByProviderPaymentID(providerPaymentID string) (*models.Order, error)
	ListByUser(userID uint, offset, limit int) ([]models.Order, error)
	Update(order *models.Order) error
	OrderNumberExists(orderNumber string) (bool, error)
}

// PaymentEventRepository persists provider events idempotently.
type PaymentEventRepository interface {
	CreateIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// CouponRepository resolves checkout coupon codes.
type CouponRepository interface {
	GetByCode(code string) (*models.Coupon, error)
	IncrementUseCount(id uint) error
}
