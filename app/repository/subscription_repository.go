package repository

import (
	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *models.PackageSubscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) GetByID(id uint) (*models.PackageSubscription, error) {
	var sub models.PackageSubscription
	err := r.db.First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListEntitling returns all active/trial rows for the pair, most recently
// started first. The invariant says at most one row, but the evaluator
// needs to see violations to resolve them, so this returns all.
func (r *subscriptionRepository) ListEntitling(userID, packageID uint) ([]models.PackageSubscription, error) {
	var subs []models.PackageSubscription
	err := r.db.
		Where("user_id = ? AND package_id = ? AND status IN ?", userID, packageID, models.EntitlingStatuses()).
		Order("starts_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) ListByUser(userID uint) ([]models.PackageSubscription, error) {
	var subs []models.PackageSubscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) ListByPackage(packageID uint, offset, limit int) ([]models.PackageSubscription, error) {
	var subs []models.PackageSubscription
	err := r.db.Where("package_id = ?", packageID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&subs).Error
	return subs, err
}

// TransitionStatus performs a conditional update so that a row only moves
// along the allowed state machine. Returns false when the row was not in
// one of the expected source states (already terminal, or raced).
func (r *subscriptionRepository) TransitionStatus(id uint, from []string, to string) (bool, error) {
	tx := r.db.Model(&models.PackageSubscription{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *subscriptionRepository) CountEntitlingByPackage(packageID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PackageSubscription{}).
		Where("package_id = ? AND status IN ?", packageID, models.EntitlingStatuses()).
		Count(&count).Error
	return count, err
}
