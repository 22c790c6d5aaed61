package access

import (
	"errors"
	"testing"
	"time"

	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

type fakeStore struct {
	users    map[uint]*models.User
	packages map[uint]*models.LegalPackage
	subs     []models.PackageSubscription
	listed   int
}

func (f *fakeStore) GetUser(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetPackage(id uint) (*models.LegalPackage, error) {
	if p, ok := f.packages[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) ListEntitling(userID, packageID uint) ([]models.PackageSubscription, error) {
	f.listed++
	var out []models.PackageSubscription
	for _, s := range f.subs {
		if s.UserID == userID && s.PackageID == packageID && s.IsEntitling() {
			out = append(out, s)
		}
	}
	return out, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[uint]*models.User{
			1: {ID: 1, Email: "saksbehandler@kommune.no"},
		},
		packages: map[uint]*models.LegalPackage{
			10: {ID: 10, Slug: "arbeidsrett", RequiresSubscription: true},
			11: {ID: 11, Slug: "nyheter", RequiresSubscription: false},
		},
	}
}

func TestEvaluateNoSubscription(t *testing.T) {
	ev := NewEvaluator(newFakeStore())

	d, err := ev.Evaluate(1, 10, time.Now())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if d.Granted {
		t.Fatalf("expected denial without subscription")
	}
	if d.Reason != ReasonNoSubscription {
		t.Fatalf("reason = %q, want %q", d.Reason, ReasonNoSubscription)
	}
}

func TestEvaluateGrantedAndExpiryBoundary(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	duration := 30 * 24 * time.Hour
	end := start.Add(duration)
	store.subs = []models.PackageSubscription{{
		ID: 1, UserID: 1, PackageID: 10,
		Status: models.SubscriptionStatusActive, StartsAt: start, ExpiresAt: &end,
	}}
	ev := NewEvaluator(store)

	d, err := ev.Evaluate(1, 10, end.Add(-time.Second))
	if err != nil || !d.Granted {
		t.Fatalf("just before expiry: granted=%v err=%v, want granted", d.Granted, err)
	}

	d, err = ev.Evaluate(1, 10, end.Add(time.Second))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if d.Granted || d.Reason != ReasonExpired {
		t.Fatalf("just after expiry: granted=%v reason=%q, want denied/expired", d.Granted, d.Reason)
	}
	if d.Subscription == nil || d.Subscription.ID != 1 {
		t.Fatalf("expired denial must carry the row for the caller to expire")
	}
}

func TestEvaluateIsPure(t *testing.T) {
	store := newFakeStore()
	start := time.Now().Add(-time.Hour)
	store.subs = []models.PackageSubscription{{
		ID: 1, UserID: 1, PackageID: 10,
		Status: models.SubscriptionStatusActive, StartsAt: start,
	}}
	ev := NewEvaluator(store)
	now := time.Now()

	first, err := ev.Evaluate(1, 10, now)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	second, err := ev.Evaluate(1, 10, now)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if first.Granted != second.Granted || first.Reason != second.Reason {
		t.Fatalf("identical inputs produced different decisions: %+v vs %+v", first, second)
	}
	if store.subs[0].Status != models.SubscriptionStatusActive {
		t.Fatalf("Evaluate mutated the store")
	}
}

func TestEvaluateOpenPackage(t *testing.T) {
	store := newFakeStore()
	ev := NewEvaluator(store)

	d, err := ev.Evaluate(1, 11, time.Now())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !d.Granted {
		t.Fatalf("open package must not require a subscription")
	}
	if store.listed != 0 {
		t.Fatalf("open package must not hit the subscription store")
	}
}

func TestEvaluateUnknownReferences(t *testing.T) {
	ev := NewEvaluator(newFakeStore())

	if _, err := ev.Evaluate(99, 10, time.Now()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: err = %v, want ErrUserNotFound", err)
	}
	if _, err := ev.Evaluate(1, 99, time.Now()); !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("unknown package: err = %v, want ErrPackageNotFound", err)
	}
}

func TestEvaluateDuplicateActiveRowsPicksNewest(t *testing.T) {
	store := newFakeStore()
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	oldEnd := older.Add(24 * time.Hour) // already past
	store.subs = []models.PackageSubscription{
		{ID: 1, UserID: 1, PackageID: 10, Status: models.SubscriptionStatusActive, StartsAt: older, ExpiresAt: &oldEnd},
		{ID: 2, UserID: 1, PackageID: 10, Status: models.SubscriptionStatusActive, StartsAt: newer},
	}
	ev := NewEvaluator(store)

	d, err := ev.Evaluate(1, 10, newer.Add(time.Hour))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !d.Granted {
		t.Fatalf("expected grant from the most recently started row, got reason %q", d.Reason)
	}
	if d.Subscription.ID != 2 {
		t.Fatalf("picked subscription id = %d, want 2", d.Subscription.ID)
	}
}
