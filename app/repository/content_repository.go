package repository

import (
	"errors"

	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

// contentRepository implements the ContentRepository interface
type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new content repository instance
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(content *models.Content) error {
	return r.db.Create(content).Error
}

func (r *contentRepository) GetByID(id uint) (*models.Content, error) {
	var content models.Content
	err := r.db.First(&content, id).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// GetBySlug returns nil for an unknown slug; the handlers answer 404.
func (r *contentRepository) GetBySlug(slug string) (*models.Content, error) {
	var content models.Content
	err := r.db.Where("slug = ?", slug).First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// ListPublishedByPackage returns published content for one package,
// optionally filtered by content type, highest priority first.
func (r *contentRepository) ListPublishedByPackage(packageID uint, contentType string, offset, limit int) ([]models.Content, error) {
	q := r.db.Where("package_id = ? AND status = ?", packageID, models.ContentStatusPublished)
	if contentType != "" {
		q = q.Where("content_type = ?", contentType)
	}
	var contents []models.Content
	err := q.Order("priority DESC, published_at DESC").
		Offset(offset).Limit(limit).
		Find(&contents).Error
	return contents, err
}

func (r *contentRepository) CountPublishedByPackage(packageID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Content{}).
		Where("package_id = ? AND status = ?", packageID, models.ContentStatusPublished).
		Count(&count).Error
	return count, err
}

func (r *contentRepository) Update(content *models.Content) error {
	return r.db.Save(content).Error
}

func (r *contentRepository) CreateBookmark(bookmark *models.ContentBookmark) error {
	return r.db.Create(bookmark).Error
}

func (r *contentRepository) DeleteBookmark(userID, contentID uint) error {
	return r.db.Where("user_id = ? AND content_id = ?", userID, contentID).
		Delete(&models.ContentBookmark{}).Error
}

// GetBookmark returns nil when no bookmark exists; absence is a normal
// answer for the toggle, not an error.
func (r *contentRepository) GetBookmark(userID, contentID uint) (*models.ContentBookmark, error) {
	var bookmark models.ContentBookmark
	err := r.db.Where("user_id = ? AND content_id = ?", userID, contentID).First(&bookmark).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (r *contentRepository) ListBookmarksByUser(userID uint) ([]models.ContentBookmark, error) {
	var bookmarks []models.ContentBookmark
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&bookmarks).Error
	return bookmarks, err
}

// GetProgress returns nil when the user never opened the content.
func (r *contentRepository) GetProgress(userID, contentID uint) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := r.db.Where("user_id = ? AND content_id = ?", userID, contentID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *contentRepository) SaveProgress(progress *models.UserProgress) error {
	return r.db.Save(progress).Error
}

// ListProgressByUser returns the user's most recently touched content first.
func (r *contentRepository) ListProgressByUser(userID uint, limit int) ([]models.UserProgress, error) {
	var rows []models.UserProgress
	err := r.db.Where("user_id = ?", userID).Order("last_access DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
