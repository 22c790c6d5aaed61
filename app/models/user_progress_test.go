package models

import (
	"testing"
	"time"
)

func TestUserProgressTouch(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := &UserProgress{UserID: 1, ContentID: 2}

	p.Touch(now)
	if p.Status != ProgressInProgress {
		t.Fatalf("status = %q, want in_progress", p.Status)
	}
	if p.StartedAt == nil || !p.StartedAt.Equal(now) {
		t.Fatalf("started_at = %v, want %v", p.StartedAt, now)
	}

	// A later visit keeps the original start time.
	later := now.Add(2 * time.Hour)
	p.Touch(later)
	if !p.StartedAt.Equal(now) {
		t.Errorf("started_at moved to %v on revisit", p.StartedAt)
	}
	if !p.LastAccess.Equal(later) {
		t.Errorf("last_access = %v, want %v", p.LastAccess, later)
	}
}

func TestUserProgressComplete(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := &UserProgress{UserID: 1, ContentID: 2}
	p.Touch(now)

	done := now.Add(30 * time.Minute)
	p.Complete(done)
	if !p.IsCompleted() {
		t.Fatalf("status = %q, want completed", p.Status)
	}
	if p.CompletedAt == nil || !p.CompletedAt.Equal(done) {
		t.Fatalf("completed_at = %v, want %v", p.CompletedAt, done)
	}

	// Completing again keeps the first completion time, and a later visit
	// does not reopen the row.
	p.Complete(done.Add(time.Hour))
	if !p.CompletedAt.Equal(done) {
		t.Errorf("completed_at moved to %v on repeat", p.CompletedAt)
	}
	p.Touch(done.Add(2 * time.Hour))
	if !p.IsCompleted() {
		t.Errorf("revisit reopened a completed row: status = %q", p.Status)
	}
}

func TestUserProgressCompleteWithoutVisit(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := &UserProgress{UserID: 1, ContentID: 2}

	p.Complete(now)
	if p.StartedAt == nil {
		t.Error("completing an unvisited row left started_at empty")
	}
}
