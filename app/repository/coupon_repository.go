package repository

import (
	"strings"

	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

// couponRepository implements the CouponRepository interface
type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository creates a new coupon repository instance
func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) IncrementUseCount(id uint) error {
	return r.db.Model(&models.Coupon{}).
		Where("id = ?", id).
		Update("use_count", gorm.Expr("use_count + 1")).Error
}
