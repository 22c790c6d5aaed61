package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CategoryTypeArticle   = "article"
	CategoryTypeForm      = "form"
	CategoryTypeQA        = "qa"
	CategoryTypeResource  = "resource"
	CategoryTypeChecklist = "checklist"
	CategoryTypeGuide     = "guide"
)

// ContentCategory organizes content within packages.
type ContentCategory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	Slug         string    `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	CategoryType string    `gorm:"type:varchar(20);not null;index" json:"category_type" validate:"oneof=article form qa resource checklist guide"`
	Description  string    `gorm:"type:text" json:"description"`
	SortOrder    uint      `gorm:"default:0" json:"sort_order"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *ContentCategory) BeforeCreate(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}
