// Package payment bridges confirmed provider payments into subscription
// activations. Providers deliver at least once, so every entry point here
// is idempotent on the external event id.
package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
)

const (
	activateRetries    = 3
	activateRetryDelay = 25 * time.Millisecond
)

// Activator is the slice of the subscription service the bridge uses.
type Activator interface {
	Activate(in subscription.Activation) (*models.PackageSubscription, error)
	FindActive(userID, packageID uint, now time.Time) (*models.PackageSubscription, error)
}

// ConfirmedPayment is one confirmed-payment event from the provider.
type ConfirmedPayment struct {
	UserID    uint
	PackageID uint
	// Duration purchased. Nil means an unbounded grant.
	Duration *time.Duration
	Provider string
	// EventID is the provider's unique event identifier; duplicates of it
	// are acknowledged without a second activation.
	EventID     string
	AmountOre   int64
	Reference   string
	PayloadJSON string
	Now         time.Time
}

// Bridge turns payment confirmations into subscription activations.
type Bridge struct {
	events repository.PaymentEventRepository
	subs   Activator
}

// NewBridge creates a payment bridge.
func NewBridge(events repository.PaymentEventRepository, subs Activator) *Bridge {
	return &Bridge{events: events, subs: subs}
}

// OnPaymentConfirmed activates (or extends, by superseding) the user's
// subscription for the paid package. A repeat delivery of the same event id
// is a no-op success returning the already-current subscription.
func (b *Bridge) OnPaymentConfirmed(p ConfirmedPayment) (*models.PackageSubscription, error) {
	provider := strings.ToLower(strings.TrimSpace(p.Provider))
	if p.UserID == 0 || p.PackageID == 0 || provider == "" {
		return nil, errors.New("payment: user id, package id and provider are required")
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}

	eventID := strings.TrimSpace(p.EventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(p.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	created, event, err := b.events.CreateIfNotExists(&models.PaymentEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       "payment.confirmed",
		PayloadJSON:     p.PayloadJSON,
		SignatureValid:  true,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		if event.ProcessedAt != nil && event.ProcessingError == "" {
			// Duplicate delivery of an event the first run completed.
			return b.subs.FindActive(p.UserID, p.PackageID, p.Now)
		}
		// The earlier delivery recorded the event but failed (or crashed)
		// before the activation went through. Re-drive it; Activate
		// supersedes rather than stacking grants, so the invariant of one
		// active row per pair holds even across re-runs.
	}

	amount := p.AmountOre
	sub, err := b.activateWithRetry(subscription.Activation{
		UserID:           p.UserID,
		PackageID:        p.PackageID,
		Now:              p.Now,
		Duration:         p.Duration,
		PricePaidOre:     &amount,
		PaymentReference: p.Reference,
	})

	procErr := ""
	if err != nil {
		procErr = err.Error()
	}
	if markErr := b.events.MarkProcessed(event.ID, procErr); markErr != nil && err == nil {
		err = markErr
	}
	return sub, err
}

// activateWithRetry absorbs short activation conflicts from concurrent
// deliveries touching the same pair.
func (b *Bridge) activateWithRetry(in subscription.Activation) (*models.PackageSubscription, error) {
	var (
		sub *models.PackageSubscription
		err error
	)
	for attempt := 0; attempt < activateRetries; attempt++ {
		sub, err = b.subs.Activate(in)
		if err == nil || !errors.Is(err, subscription.ErrConflict) {
			return sub, err
		}
		time.Sleep(activateRetryDelay)
	}
	return sub, err
}
