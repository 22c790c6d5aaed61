package payment

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
)

type fakeEventRepo struct {
	mu        sync.Mutex
	nextID    uint
	events    map[string]*models.PaymentEvent
	processed map[uint]string
	createErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:    make(map[string]*models.PaymentEvent),
		processed: make(map[uint]string),
	}
}

func (r *fakeEventRepo) CreateIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return false, nil, r.createErr
	}
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		return false, existing, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[key] = event
	return true, event, nil
}

func (r *fakeEventRepo) MarkProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[id] = processingError
	for _, ev := range r.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
		}
	}
	return nil
}

type fakeSubs struct {
	mu          sync.Mutex
	activations []subscription.Activation
	active      *models.PackageSubscription
	activateErr error
	conflicts   int
}

func (s *fakeSubs) Activate(in subscription.Activation) (*models.PackageSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return nil, subscription.ErrConflict
	}
	if s.activateErr != nil {
		return nil, s.activateErr
	}
	s.activations = append(s.activations, in)
	s.active = &models.PackageSubscription{
		ID:        uint(len(s.activations)),
		UserID:    in.UserID,
		PackageID: in.PackageID,
		Status:    models.SubscriptionStatusActive,
		StartsAt:  in.Now,
	}
	return s.active, nil
}

func (s *fakeSubs) FindActive(userID, packageID uint, now time.Time) (*models.PackageSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

func TestOnPaymentConfirmedActivatesOnce(t *testing.T) {
	events := newFakeEventRepo()
	subs := &fakeSubs{}
	bridge := NewBridge(events, subs)

	dur := 365 * 24 * time.Hour
	confirmed := ConfirmedPayment{
		UserID:    7,
		PackageID: 3,
		Duration:  &dur,
		Provider:  "stripe",
		EventID:   "evt_abc123",
		AmountOre: 249900,
		Now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	first, err := bridge.OnPaymentConfirmed(confirmed)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if first == nil || first.UserID != 7 || first.PackageID != 3 {
		t.Fatalf("unexpected subscription from first delivery: %+v", first)
	}

	// Same event id delivered again must not activate a second time.
	second, err := bridge.OnPaymentConfirmed(confirmed)
	if err != nil {
		t.Fatalf("duplicate delivery: %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Fatalf("duplicate delivery returned %+v, want the existing subscription %d", second, first.ID)
	}
	if len(subs.activations) != 1 {
		t.Fatalf("got %d activations, want 1", len(subs.activations))
	}
	if got := subs.activations[0]; got.PricePaidOre == nil || *got.PricePaidOre != 249900 {
		t.Fatalf("activation did not carry the paid amount: %+v", got)
	}
	if msg, ok := events.processed[1]; !ok || msg != "" {
		t.Fatalf("event not marked processed cleanly: present=%v err=%q", ok, msg)
	}
}

func TestOnPaymentConfirmedDistinctEvents(t *testing.T) {
	events := newFakeEventRepo()
	subs := &fakeSubs{}
	bridge := NewBridge(events, subs)

	for _, id := range []string{"evt_1", "evt_2"} {
		if _, err := bridge.OnPaymentConfirmed(ConfirmedPayment{
			UserID: 1, PackageID: 2, Provider: "stripe", EventID: id, Now: time.Now(),
		}); err != nil {
			t.Fatalf("event %s: %v", id, err)
		}
	}
	if len(subs.activations) != 2 {
		t.Fatalf("got %d activations, want 2", len(subs.activations))
	}
}

func TestOnPaymentConfirmedRetriesConflict(t *testing.T) {
	events := newFakeEventRepo()
	subs := &fakeSubs{conflicts: 2}
	bridge := NewBridge(events, subs)

	sub, err := bridge.OnPaymentConfirmed(ConfirmedPayment{
		UserID: 4, PackageID: 9, Provider: "stripe", EventID: "evt_busy", Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if sub == nil || len(subs.activations) != 1 {
		t.Fatalf("expected one activation after retries, got %d", len(subs.activations))
	}
}

func TestOnPaymentConfirmedRecordsActivationFailure(t *testing.T) {
	events := newFakeEventRepo()
	subs := &fakeSubs{activateErr: errors.New("store unavailable")}
	bridge := NewBridge(events, subs)

	_, err := bridge.OnPaymentConfirmed(ConfirmedPayment{
		UserID: 4, PackageID: 9, Provider: "stripe", EventID: "evt_fail", Now: time.Now(),
	})
	if err == nil {
		t.Fatal("expected activation error to surface")
	}
	if msg := events.processed[1]; msg != "store unavailable" {
		t.Fatalf("processing error not recorded, got %q", msg)
	}
}

func TestOnPaymentConfirmedRedeliveryAfterFailureActivates(t *testing.T) {
	events := newFakeEventRepo()
	subs := &fakeSubs{activateErr: errors.New("store unavailable")}
	bridge := NewBridge(events, subs)

	confirmed := ConfirmedPayment{
		UserID: 7, PackageID: 3, Provider: "stripe", EventID: "evt_retry",
		Now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	// First delivery records the event but the activation fails; the
	// caller answers the provider with a non-2xx.
	if _, err := bridge.OnPaymentConfirmed(confirmed); err == nil {
		t.Fatal("expected first delivery to fail")
	}
	if len(subs.activations) != 0 {
		t.Fatalf("failed delivery still activated %d times", len(subs.activations))
	}

	// The redelivery must not be answered as a duplicate: the recorded
	// event carries a processing error, so the activation is re-driven.
	subs.activateErr = nil
	sub, err := bridge.OnPaymentConfirmed(confirmed)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if sub == nil || len(subs.activations) != 1 {
		t.Fatalf("redelivery did not activate: sub=%v activations=%d", sub, len(subs.activations))
	}
	if msg := events.processed[1]; msg != "" {
		t.Fatalf("event still marked failed after successful re-run: %q", msg)
	}

	// A third delivery is now a plain duplicate.
	if _, err := bridge.OnPaymentConfirmed(confirmed); err != nil {
		t.Fatalf("third delivery: %v", err)
	}
	if len(subs.activations) != 1 {
		t.Fatalf("duplicate of a completed event reactivated: %d activations", len(subs.activations))
	}
}

func TestOnPaymentConfirmedMissingEventIDUsesPayloadHash(t *testing.T) {
	events := newFakeEventRepo()
	subs := &fakeSubs{}
	bridge := NewBridge(events, subs)

	payload := `{"order":"JP-2025-000017"}`
	for i := 0; i < 2; i++ {
		if _, err := bridge.OnPaymentConfirmed(ConfirmedPayment{
			UserID: 2, PackageID: 5, Provider: "manual", PayloadJSON: payload, Now: time.Now(),
		}); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if len(subs.activations) != 1 {
		t.Fatalf("payload-hash dedup failed, got %d activations", len(subs.activations))
	}
}

func TestOnPaymentConfirmedValidatesInput(t *testing.T) {
	bridge := NewBridge(newFakeEventRepo(), &fakeSubs{})
	if _, err := bridge.OnPaymentConfirmed(ConfirmedPayment{PackageID: 1, Provider: "stripe"}); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if _, err := bridge.OnPaymentConfirmed(ConfirmedPayment{UserID: 1, PackageID: 1}); err == nil {
		t.Fatal("expected error for missing provider")
	}
}
