// Package cart implements the shopping cart for legal packages. A cart
// holds at most one line per package; prices are snapshotted when added.
package cart

import (
	"errors"
	"time"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
)

var (
	ErrPackageNotFound   = errors.New("cart: package not found")
	ErrPackageNotBuyable = errors.New("cart: package is not purchasable")
	ErrAlreadySubscribed = errors.New("cart: user already has an active subscription for this package")
	ErrNothingToIdentify = errors.New("cart: neither user nor session key given")
)

// SubscriptionChecker reports whether a user already holds a current
// subscription for a package.
type SubscriptionChecker interface {
	FindActive(userID, packageID uint, now time.Time) (*models.PackageSubscription, error)
}

// PackageResolver is the catalog slice the cart needs.
type PackageResolver interface {
	GetBySlug(slug string) (*models.LegalPackage, error)
}

// Service manages carts for both logged-in users and anonymous sessions.
type Service struct {
	carts    repository.CartRepository
	packages PackageResolver
	subs     SubscriptionChecker
}

func NewService(carts repository.CartRepository, packages PackageResolver, subs SubscriptionChecker) *Service {
	return &Service{carts: carts, packages: packages, subs: subs}
}

// Resolve returns the cart for the given identity, creating it on first use.
// A user id wins over a session key.
func (s *Service) Resolve(userID uint, sessionKey string) (*models.ShoppingCart, error) {
	if userID != 0 {
		return s.carts.GetOrCreateByUser(userID)
	}
	if sessionKey != "" {
		return s.carts.GetOrCreateBySession(sessionKey)
	}
	return nil, ErrNothingToIdentify
}

// AddPackage puts one package into the cart, snapshotting today's price.
// Adding an already-present package is a no-op rather than a quantity bump:
// a subscription purchase makes no sense in multiples.
func (s *Service) AddPackage(cart *models.ShoppingCart, packageSlug string) (*models.ShoppingCart, error) {
	pkg, err := s.packages.GetBySlug(packageSlug)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}
	if !pkg.IsActive || !pkg.RequiresSubscription {
		return nil, ErrPackageNotBuyable
	}

	if cart.UserID != nil && s.subs != nil {
		active, err := s.subs.FindActive(*cart.UserID, pkg.ID, time.Now())
		if err != nil {
			return nil, err
		}
		if active != nil {
			return nil, ErrAlreadySubscribed
		}
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		PackageID: pkg.ID,
		Quantity:  1,
		PriceOre:  pkg.PriceOre,
	}
	if err := s.carts.UpsertItem(item); err != nil {
		return nil, err
	}

	return s.carts.GetWithItems(cart.ID)
}

// RemovePackage takes one package line out of the cart.
func (s *Service) RemovePackage(cart *models.ShoppingCart, packageID uint) (*models.ShoppingCart, error) {
	if err := s.carts.RemoveItem(cart.ID, packageID); err != nil {
		return nil, err
	}
	return s.carts.GetWithItems(cart.ID)
}

// Clear removes every line from the cart.
func (s *Service) Clear(cart *models.ShoppingCart) error {
	return s.carts.Clear(cart.ID)
}

// MergeOnLogin folds an anonymous session cart into the user's cart.
// Lines for packages already in the user cart keep the user cart's price.
func (s *Service) MergeOnLogin(userID uint, sessionKey string) (*models.ShoppingCart, error) {
	userCart, err := s.carts.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	if sessionKey == "" {
		return userCart, nil
	}

	sessionCart, err := s.carts.GetOrCreateBySession(sessionKey)
	if err != nil {
		return nil, err
	}
	sessionCart, err = s.carts.GetWithItems(sessionCart.ID)
	if err != nil {
		return nil, err
	}

	existing := make(map[uint]bool, len(userCart.Items))
	full, err := s.carts.GetWithItems(userCart.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range full.Items {
		existing[item.PackageID] = true
	}

	for _, item := range sessionCart.Items {
		if existing[item.PackageID] {
			continue
		}
		moved := &models.CartItem{
			CartID:    userCart.ID,
			PackageID: item.PackageID,
			Quantity:  1,
			PriceOre:  item.PriceOre,
		}
		if err := s.carts.UpsertItem(moved); err != nil {
			return nil, err
		}
	}

	if err := s.carts.Clear(sessionCart.ID); err != nil {
		return nil, err
	}

	return s.carts.GetWithItems(userCart.ID)
}
