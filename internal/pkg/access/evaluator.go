// Package access implements the package-gating decision for content
// requests: given a user, a package and an instant, is the request served
// or refused. The evaluator is pure over the store snapshot it reads; all
// mutation (lazy expiry, audit logging) belongs to the caller.
package access

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
)

// Denial reason codes carried on denied decisions.
const (
	ReasonNoSubscription = models.DenialReasonNoSubscription
	ReasonExpired        = models.DenialReasonExpired
)

var (
	// ErrUserNotFound means the user id does not reference an existing user.
	ErrUserNotFound = errors.New("access: user not found")
	// ErrPackageNotFound means the package id does not reference an existing package.
	ErrPackageNotFound = errors.New("access: package not found")
)

// Decision is the outcome of one evaluation. A denial is a normal business
// outcome, not an error; errors are reserved for invalid references and
// store failures.
type Decision struct {
	Granted bool
	Reason  string
	// Subscription is the row the decision was based on. Set on grants and
	// on expired denials, where the caller is expected to transition the
	// row to expired.
	Subscription *models.PackageSubscription
}

// Store is the read-only snapshot the evaluator works against.
type Store interface {
	GetUser(id uint) (*models.User, error)
	GetPackage(id uint) (*models.LegalPackage, error)
	ListEntitling(userID, packageID uint) ([]models.PackageSubscription, error)
}

// Evaluator decides package access. It holds no mutable state and is safe
// for concurrent use.
type Evaluator struct {
	store Store
}

// NewEvaluator creates an evaluator over the given store.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate returns the access decision for (user, package) at the supplied
// instant. The caller provides now so the check is deterministic and
// testable. Evaluate never mutates the store.
func (e *Evaluator) Evaluate(userID, packageID uint, now time.Time) (Decision, error) {
	if _, err := e.store.GetUser(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return Decision{}, err
	}

	pkg, err := e.store.GetPackage(packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, fmt.Errorf("%w: id %d", ErrPackageNotFound, packageID)
		}
		return Decision{}, err
	}

	// Open packages are served without a subscription row.
	if !pkg.RequiresSubscription {
		return Decision{Granted: true}, nil
	}

	subs, err := e.store.ListEntitling(userID, packageID)
	if err != nil {
		return Decision{}, err
	}
	if len(subs) == 0 {
		return Decision{Reason: ReasonNoSubscription}, nil
	}

	sub := pickCurrent(subs)
	if len(subs) > 1 {
		log.Printf("[access] data integrity: %d entitling subscriptions for user=%d package=%d, using id=%d",
			len(subs), userID, packageID, sub.ID)
	}

	if sub.IsExpiredAt(now) {
		return Decision{Reason: ReasonExpired, Subscription: sub}, nil
	}
	return Decision{Granted: true, Subscription: sub}, nil
}

// pickCurrent selects the most recently started row. Duplicate entitling
// rows violate the activation invariant; the newest activation wins.
func pickCurrent(subs []models.PackageSubscription) *models.PackageSubscription {
	best := &subs[0]
	for i := 1; i < len(subs); i++ {
		if subs[i].StartsAt.After(best.StartsAt) {
			best = &subs[i]
		}
	}
	return best
}
