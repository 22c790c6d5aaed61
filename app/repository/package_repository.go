package repository

import (
	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

// packageRepository implements the PackageRepository interface
type packageRepository struct {
	db *gorm.DB
}

// NewPackageRepository creates a new legal package repository instance
func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

func (r *packageRepository) Create(pkg *models.LegalPackage) error {
	return r.db.Create(pkg).Error
}

func (r *packageRepository) GetByID(id uint) (*models.LegalPackage, error) {
	var pkg models.LegalPackage
	err := r.db.First(&pkg, id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *packageRepository) GetBySlug(slug string) (*models.LegalPackage, error) {
	var pkg models.LegalPackage
	err := r.db.Where("slug = ?", slug).First(&pkg).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *packageRepository) GetByType(packageType string) (*models.LegalPackage, error) {
	var pkg models.LegalPackage
	err := r.db.Where("package_type = ?", packageType).First(&pkg).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetActive returns purchasable packages in showcase order.
func (r *packageRepository) GetActive() ([]models.LegalPackage, error) {
	var pkgs []models.LegalPackage
	err := r.db.Where("is_active = ?", true).Order("sort_order ASC, name ASC").Find(&pkgs).Error
	return pkgs, err
}

func (r *packageRepository) List(offset, limit int) ([]models.LegalPackage, error) {
	var pkgs []models.LegalPackage
	err := r.db.Offset(offset).Limit(limit).Order("sort_order ASC, name ASC").Find(&pkgs).Error
	return pkgs, err
}

func (r *packageRepository) Update(pkg *models.LegalPackage) error {
	return r.db.Save(pkg).Error
}

func (r *packageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.LegalPackage{}).Count(&count).Error
	return count, err
}
