package repository

import (
	"errors"

	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cartRepository implements the CartRepository interface
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new shopping cart repository instance
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreateByUser(userID uint) (*models.ShoppingCart, error) {
	var cart models.ShoppingCart
	err := r.db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.ShoppingCart{UserID: &userID}
		if err := r.db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetOrCreateBySession(sessionKey string) (*models.ShoppingCart, error) {
	var cart models.ShoppingCart
	err := r.db.Preload("Items").
		Where("session_key = ? AND user_id IS NULL", sessionKey).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.ShoppingCart{SessionKey: sessionKey}
		if err := r.db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetWithItems(cartID uint) (*models.ShoppingCart, error) {
	var cart models.ShoppingCart
	err := r.db.Preload("Items").First(&cart, cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpsertItem inserts a cart line. Re-adding an existing package is a no-op;
// the price snapshot of the first insert wins.
func (r *cartRepository) UpsertItem(item *models.CartItem) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "cart_id"},
			{Name: "package_id"},
		},
		DoNothing: true,
	}).Create(item).Error; err != nil {
		return err
	}

	return r.db.Where("cart_id = ? AND package_id = ?", item.CartID, item.PackageID).
		First(item).Error
}

func (r *cartRepository) RemoveItem(cartID, packageID uint) error {
	return r.db.Where("cart_id = ? AND package_id = ?", cartID, packageID).
		Delete(&models.CartItem{}).Error
}

func (r *cartRepository) Clear(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
