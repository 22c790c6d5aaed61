package models

import "time"

const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

// UserProgress tracks how far a subscriber has come with one piece of
// content: started on first open, completed when they say so. One row per
// (user, content) pair.
type UserProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index:ux_progress_user_content,unique,priority:1;index:idx_progress_user_status,priority:1" json:"user_id"`
	ContentID   uint       `gorm:"not null;index:ux_progress_user_content,unique,priority:2" json:"content_id"`
	Status      string     `gorm:"type:varchar(20);not null;default:'not_started';index:idx_progress_user_status,priority:2" json:"status"`
	StartedAt   *time.Time `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	LastAccess  time.Time  `gorm:"type:timestamp;not null" json:"last_access"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Touch records one more visit. The first visit moves the row from
// not_started to in_progress; a completed row stays completed.
func (p *UserProgress) Touch(now time.Time) {
	if p.Status == "" || p.Status == ProgressNotStarted {
		p.Status = ProgressInProgress
		p.StartedAt = &now
	}
	p.LastAccess = now
}

// Complete marks the content as read. Idempotent; the first completion
// time is kept.
func (p *UserProgress) Complete(now time.Time) {
	if p.Status != ProgressCompleted {
		p.Status = ProgressCompleted
		p.CompletedAt = &now
	}
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
	p.LastAccess = now
}

// IsCompleted reports whether the user finished this content.
func (p *UserProgress) IsCompleted() bool {
	return p.Status == ProgressCompleted
}
