package repository

import (
	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

// accessAttemptRepository implements the AccessAttemptRepository interface.
// The table is append-only; this type deliberately has no update or delete.
type accessAttemptRepository struct {
	db *gorm.DB
}

// NewAccessAttemptRepository creates a new audit repository instance
func NewAccessAttemptRepository(db *gorm.DB) AccessAttemptRepository {
	return &accessAttemptRepository{db: db}
}

func (r *accessAttemptRepository) Create(attempt *models.AccessAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *accessAttemptRepository) ListByUser(userID uint, offset, limit int) ([]models.AccessAttempt, error) {
	var attempts []models.AccessAttempt
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *accessAttemptRepository) List(filter AccessAttemptFilter, offset, limit int) ([]models.AccessAttempt, error) {
	var attempts []models.AccessAttempt
	err := r.applyFilter(filter).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *accessAttemptRepository) Count(filter AccessAttemptFilter) (int64, error) {
	var count int64
	err := r.applyFilter(filter).Count(&count).Error
	return count, err
}

func (r *accessAttemptRepository) applyFilter(filter AccessAttemptFilter) *gorm.DB {
	q := r.db.Model(&models.AccessAttempt{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.PackageID != 0 {
		q = q.Where("package_id = ?", filter.PackageID)
	}
	if filter.Outcome != "" {
		q = q.Where("outcome = ?", filter.Outcome)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at < ?", filter.To)
	}
	return q
}
