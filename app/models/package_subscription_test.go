package models

import (
	"testing"
	"time"
)

func TestSubscriptionIsExpiredAt(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)

	sub := PackageSubscription{
		Status:    SubscriptionStatusActive,
		StartsAt:  start,
		ExpiresAt: &end,
	}

	if sub.IsExpiredAt(end.Add(-time.Second)) {
		t.Fatalf("subscription should still be valid just before expiry")
	}
	if !sub.IsExpiredAt(end) {
		t.Fatalf("subscription should be expired exactly at the expiry instant")
	}
	if !sub.IsExpiredAt(end.Add(time.Second)) {
		t.Fatalf("subscription should be expired after the expiry instant")
	}
}

func TestSubscriptionUnboundedNeverExpires(t *testing.T) {
	sub := PackageSubscription{Status: SubscriptionStatusActive, StartsAt: time.Now()}

	if sub.IsExpiredAt(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Fatalf("unbounded subscription must never expire")
	}
	if got := sub.DaysRemainingAt(time.Now()); got != -1 {
		t.Fatalf("DaysRemainingAt for unbounded = %d, want -1", got)
	}
}

func TestSubscriptionDaysRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(10*24*time.Hour + time.Hour)
	sub := PackageSubscription{Status: SubscriptionStatusTrial, ExpiresAt: &end}

	if got := sub.DaysRemainingAt(now); got != 10 {
		t.Fatalf("DaysRemainingAt = %d, want 10", got)
	}
	if got := sub.DaysRemainingAt(end.Add(time.Hour)); got != 0 {
		t.Fatalf("DaysRemainingAt after expiry = %d, want 0", got)
	}
}

func TestIsEntitling(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{SubscriptionStatusActive, true},
		{SubscriptionStatusTrial, true},
		{SubscriptionStatusExpired, false},
		{SubscriptionStatusCancelled, false},
	}

	for _, tt := range tests {
		sub := PackageSubscription{Status: tt.status}
		if got := sub.IsEntitling(); got != tt.want {
			t.Fatalf("IsEntitling(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
