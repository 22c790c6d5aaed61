package audit

import (
	"errors"
	"sync"
	"testing"

	"github.com/juridiskporten/portal/app/models"
)

type captureRepo struct {
	mu      sync.Mutex
	records []models.AccessAttempt
	fail    bool
}

func (c *captureRepo) Create(attempt *models.AccessAttempt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection reset")
	}
	c.records = append(c.records, *attempt)
	return nil
}

func TestRecordPersistsAttempt(t *testing.T) {
	repo := &captureRepo{}
	rec := NewRecorder(repo)

	pkgID := uint(4)
	err := rec.Record(&models.AccessAttempt{
		UserID:       1,
		PackageID:    &pkgID,
		Outcome:      models.AccessOutcomeDenied,
		DenialReason: models.DenialReasonNoSubscription,
		IPAddress:    "192.0.2.10",
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("records written = %d, want 1", len(repo.records))
	}
	got := repo.records[0]
	if got.Outcome != models.AccessOutcomeDenied || got.DenialReason != models.DenialReasonNoSubscription {
		t.Fatalf("stored record does not match: %+v", got)
	}
}

func TestRecordFaultIsReportedNotFatal(t *testing.T) {
	repo := &captureRepo{fail: true}
	rec := NewRecorder(repo)

	err := rec.Record(&models.AccessAttempt{UserID: 1, Outcome: models.AccessOutcomeGranted})
	if !errors.Is(err, ErrWriteFault) {
		t.Fatalf("err = %v, want ErrWriteFault", err)
	}
}

func TestRecordPreservesPerUserOrder(t *testing.T) {
	repo := &captureRepo{}
	rec := NewRecorder(repo)

	// Interleave two users concurrently; each user's own sequence must
	// come out in submission order.
	const perUser = 50
	var wg sync.WaitGroup
	for _, userID := range []uint{1, 2} {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				outcome := models.AccessOutcomeGranted
				if i%2 == 1 {
					outcome = models.AccessOutcomeDenied
				}
				pkgID := uint(i)
				_ = rec.Record(&models.AccessAttempt{UserID: id, PackageID: &pkgID, Outcome: outcome})
			}
		}(userID)
	}
	wg.Wait()

	seen := map[uint]int{}
	for _, r := range repo.records {
		if int(*r.PackageID) != seen[r.UserID] {
			t.Fatalf("user %d records out of order: got %d, want %d", r.UserID, *r.PackageID, seen[r.UserID])
		}
		seen[r.UserID]++
	}
	if seen[1] != perUser || seen[2] != perUser {
		t.Fatalf("record counts = %v, want %d per user", seen, perUser)
	}
}
