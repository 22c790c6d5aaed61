package models

import "time"

// ContentBookmark lets a user save content for later reading.
type ContentBookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_bookmarks_user_content,unique,priority:1" json:"user_id"`
	ContentID uint      `gorm:"not null;index:ux_bookmarks_user_content,unique,priority:2" json:"content_id"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
