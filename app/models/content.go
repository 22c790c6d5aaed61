package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ContentStatusDraft     = "draft"
	ContentStatusReview    = "review"
	ContentStatusPublished = "published"
	ContentStatusArchived  = "archived"
)

const (
	ContentTypeArticle   = "article"
	ContentTypeForm      = "form"
	ContentTypeQA        = "qa"
	ContentTypeResource  = "resource"
	ContentTypeChecklist = "checklist"
	ContentTypeGuide     = "guide"
)

// Content is one article, form, Q&A entry or guide belonging to a package.
// Serving it to a user first goes through the access evaluator.
type Content struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Title         string     `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=5,max=200"`
	Slug          string     `gorm:"type:varchar(200);uniqueIndex" json:"slug"`
	ContentType   string     `gorm:"type:varchar(20);not null;default:'article';index" json:"content_type" validate:"oneof=article form qa resource checklist guide"`
	Body          string     `gorm:"type:longtext" json:"body"`
	Excerpt       string     `gorm:"type:varchar(500)" json:"excerpt" validate:"max=500"`
	PackageID     uint       `gorm:"not null;index:idx_content_package_status,priority:1" json:"package_id"`
	CategoryID    uint       `gorm:"not null;index" json:"category_id"`
	AuthorID      uint       `gorm:"not null;index" json:"author_id"`
	Status        string     `gorm:"type:varchar(20);not null;default:'draft';index:idx_content_package_status,priority:2" json:"status" validate:"oneof=draft review published archived"`
	PublishedAt   *time.Time `gorm:"type:timestamp;default:null;index" json:"published_at,omitempty"`
	Featured      bool       `gorm:"default:false;index" json:"featured"`
	Priority      uint       `gorm:"default:0" json:"priority"`
	FilePath      string     `gorm:"type:varchar(255);default:''" json:"-"`
	ViewCount     uint       `gorm:"default:0" json:"view_count"`
	DownloadCount uint       `gorm:"default:0" json:"download_count"`
	ReadingTime   uint       `gorm:"default:0" json:"reading_time"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeSave derives the slug, stamps PublishedAt on first publish and
// recomputes the reading-time estimate.
func (c *Content) BeforeSave(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	if c.Status == ContentStatusPublished && c.PublishedAt == nil {
		now := time.Now()
		c.PublishedAt = &now
	}
	if c.Body != "" {
		c.ReadingTime = EstimateReadingTime(c.Body)
	}
	return nil
}

// IsPublished reports whether the content is visible to subscribers.
func (c *Content) IsPublished() bool {
	return c.Status == ContentStatusPublished && c.PublishedAt != nil
}

// HasAttachment reports whether a downloadable file is attached.
func (c *Content) HasAttachment() bool {
	return c.FilePath != ""
}

// EstimateReadingTime returns whole minutes at 200 words per minute,
// with a floor of one minute.
func EstimateReadingTime(body string) uint {
	words := len(strings.Fields(body))
	minutes := words / 200
	if minutes < 1 {
		minutes = 1
	}
	return uint(minutes)
}
