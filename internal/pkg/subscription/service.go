// Package subscription owns the lifecycle of PackageSubscription rows:
// activation (with supersede of the previous grant), lazy expiry and
// explicit cancellation. Activations for the same (user, package) pair are
// serialized so the single-active-row invariant holds under concurrency.
package subscription

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

// ErrConflict is returned when a concurrent activation for the same
// (user, package) pair is already in flight. Callers should retry with
// backoff.
var ErrConflict = errors.New("subscription: concurrent activation in progress")

// Repository is the slice of the subscription store this service needs.
type Repository interface {
	Create(sub *models.PackageSubscription) error
	GetByID(id uint) (*models.PackageSubscription, error)
	ListEntitling(userID, packageID uint) ([]models.PackageSubscription, error)
	TransitionStatus(id uint, from []string, to string) (bool, error)
}

// Activation is the input for creating a new grant.
type Activation struct {
	UserID    uint
	PackageID uint
	// Now anchors the subscription window; callers supply it so tests and
	// the payment bridge stay deterministic.
	Now time.Time
	// Duration of the grant. Nil means unbounded.
	Duration *time.Duration
	// Trial marks the row as a trial grant.
	Trial bool
	// Billing metadata carried onto the row.
	PricePaidOre     *int64
	PaymentReference string
}

// Service coordinates subscription state changes.
type Service struct {
	repo Repository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a subscription service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		locks: make(map[string]*sync.Mutex),
	}
}

// Activate supersedes any entitling row for the pair and inserts the new
// grant. The whole sequence runs under a per-(user, package) lock; a caller
// contending with an in-flight activation for the same pair receives
// ErrConflict instead of waiting.
func (s *Service) Activate(in Activation) (*models.PackageSubscription, error) {
	if in.UserID == 0 || in.PackageID == 0 {
		return nil, errors.New("subscription: user id and package id are required")
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	lock := s.pairLock(in.UserID, in.PackageID)
	if !lock.TryLock() {
		return nil, fmt.Errorf("%w: user=%d package=%d", ErrConflict, in.UserID, in.PackageID)
	}
	defer lock.Unlock()

	// Supersede: a renewed purchase creates a new row, the old grant is
	// closed out as expired rather than deleted.
	existing, err := s.repo.ListEntitling(in.UserID, in.PackageID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if _, err := s.repo.TransitionStatus(existing[i].ID, models.EntitlingStatuses(), models.SubscriptionStatusExpired); err != nil {
			return nil, err
		}
	}

	status := models.SubscriptionStatusActive
	if in.Trial {
		status = models.SubscriptionStatusTrial
	}
	var expiresAt *time.Time
	if in.Duration != nil {
		t := in.Now.Add(*in.Duration)
		expiresAt = &t
	}

	sub := &models.PackageSubscription{
		UserID:           in.UserID,
		PackageID:        in.PackageID,
		Status:           status,
		StartsAt:         in.Now,
		ExpiresAt:        expiresAt,
		IsTrial:          in.Trial,
		PricePaidOre:     in.PricePaidOre,
		PaymentReference: in.PaymentReference,
	}
	if err := s.repo.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// FindActive returns the entitling row for the pair at the given instant,
// or nil when the user holds no current grant. Duplicate rows resolve to
// the newest activation. A row whose window has closed but was not yet
// lazily expired does not count as a grant; it is expired here in passing.
func (s *Service) FindActive(userID, packageID uint, now time.Time) (*models.PackageSubscription, error) {
	subs, err := s.repo.ListEntitling(userID, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	best := &subs[0]
	for i := 1; i < len(subs); i++ {
		if subs[i].StartsAt.After(best.StartsAt) {
			best = &subs[i]
		}
	}
	if best.IsExpiredAt(now) {
		if err := s.Expire(best.ID); err != nil {
			log.Warnf("[Subscription] Lazy expiry failed for subscription %d: %v", best.ID, err)
		}
		return nil, nil
	}
	return best, nil
}

// Expire closes out a grant whose window has passed. Idempotent: expiring
// an already-terminal row is a no-op.
func (s *Service) Expire(subscriptionID uint) error {
	_, err := s.repo.TransitionStatus(subscriptionID, models.EntitlingStatuses(), models.SubscriptionStatusExpired)
	return err
}

// Cancel revokes a grant explicitly. Idempotent like Expire; rows already
// expired or cancelled are left untouched.
func (s *Service) Cancel(subscriptionID uint) error {
	_, err := s.repo.TransitionStatus(subscriptionID, models.EntitlingStatuses(), models.SubscriptionStatusCancelled)
	return err
}

// pairLock returns the mutex guarding activations for one pair.
func (s *Service) pairLock(userID, packageID uint) *sync.Mutex {
	key := fmt.Sprintf("%d:%d", userID, packageID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}
