package middleware

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/internal/pkg/access"
	"github.com/juridiskporten/portal/internal/pkg/audit"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

type gateStore struct {
	mu   sync.Mutex
	subs map[uint]*models.PackageSubscription
	pkg  *models.LegalPackage
}

func (s *gateStore) GetUser(id uint) (*models.User, error) {
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.User{ID: id}, nil
}

func (s *gateStore) GetPackage(id uint) (*models.LegalPackage, error) {
	if s.pkg == nil || s.pkg.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.pkg, nil
}

func (s *gateStore) ListEntitling(userID, packageID uint) ([]models.PackageSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PackageSubscription
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.PackageID == packageID && sub.IsEntitling() {
			out = append(out, *sub)
		}
	}
	return out, nil
}

// gateStore also satisfies the subscription Repository for lazy expiry
func (s *gateStore) Create(sub *models.PackageSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ID = uint(len(s.subs) + 1)
	copied := *sub
	s.subs[sub.ID] = &copied
	return nil
}

func (s *gateStore) GetByID(id uint) (*models.PackageSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sub
	return &copied, nil
}

func (s *gateStore) TransitionStatus(id uint, from []string, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if sub.Status == f {
			sub.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (s *gateStore) GetBySlug(slug string) (*models.LegalPackage, error) {
	if s.pkg != nil && s.pkg.Slug == slug {
		return s.pkg, nil
	}
	return nil, nil
}

type auditSink struct {
	mu       sync.Mutex
	attempts []models.AccessAttempt
}

func (a *auditSink) Create(attempt *models.AccessAttempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts = append(a.attempts, *attempt)
	return nil
}

func newGateApp(store *gateStore, sink *auditSink, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("USER_CONTEXT", usercontext.UserContext{UserID: userID, IsLoggedIn: true})
			c.Locals(usercontext.KeyFromProtected, true)
			c.Locals(usercontext.KeyUserID, userID)
		}
		return c.Next()
	})

	gate := PackageAccessGate(
		access.NewEvaluator(store),
		audit.NewRecorder(sink),
		subscription.NewService(store),
		store,
	)
	app.Get("/pakker/:packageSlug/innhold", gate, func(c *fiber.Ctx) error {
		pkg := c.Locals(PackageLocalsKey).(*models.LegalPackage)
		return c.SendString("content for " + pkg.Slug)
	})
	return app
}

func activeSub(userID, pkgID uint, expires time.Time) *models.PackageSubscription {
	return &models.PackageSubscription{
		ID:        1,
		UserID:    userID,
		PackageID: pkgID,
		Status:    models.SubscriptionStatusActive,
		StartsAt:  expires.Add(-24 * time.Hour),
		ExpiresAt: &expires,
	}
}

func TestGateGrantsActiveSubscriber(t *testing.T) {
	store := &gateStore{
		pkg:  &models.LegalPackage{ID: 5, Slug: "arbeidsrett", RequiresSubscription: true, IsActive: true},
		subs: map[uint]*models.PackageSubscription{1: activeSub(7, 5, time.Now().Add(24*time.Hour))},
	}
	sink := &auditSink{}
	app := newGateApp(store, sink, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/pakker/arbeidsrett/innhold", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Len(t, sink.attempts, 1)
	assert.Equal(t, models.AccessOutcomeGranted, sink.attempts[0].Outcome)
	assert.Equal(t, uint(7), sink.attempts[0].UserID)
}

func TestGateDeniesWithoutSubscription(t *testing.T) {
	store := &gateStore{
		pkg:  &models.LegalPackage{ID: 5, Slug: "arbeidsrett", RequiresSubscription: true, IsActive: true},
		subs: map[uint]*models.PackageSubscription{},
	}
	sink := &auditSink{}
	app := newGateApp(store, sink, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/pakker/arbeidsrett/innhold", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	assert.Len(t, sink.attempts, 1)
	assert.Equal(t, models.AccessOutcomeDenied, sink.attempts[0].Outcome)
	assert.Equal(t, models.DenialReasonNoSubscription, sink.attempts[0].DenialReason)
}

func TestGateExpiresStaleSubscriptionLazily(t *testing.T) {
	store := &gateStore{
		pkg:  &models.LegalPackage{ID: 5, Slug: "arbeidsrett", RequiresSubscription: true, IsActive: true},
		subs: map[uint]*models.PackageSubscription{1: activeSub(7, 5, time.Now().Add(-time.Hour))},
	}
	sink := &auditSink{}
	app := newGateApp(store, sink, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/pakker/arbeidsrett/innhold", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Denial was audited with the expired reason
	assert.Len(t, sink.attempts, 1)
	assert.Equal(t, models.DenialReasonExpired, sink.attempts[0].DenialReason)

	// The stale row was transitioned to expired by the gate
	sub, err := store.GetByID(1)
	assert.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, sub.Status)
}

func TestGateRedirectsAnonymous(t *testing.T) {
	store := &gateStore{
		pkg:  &models.LegalPackage{ID: 5, Slug: "arbeidsrett", RequiresSubscription: true, IsActive: true},
		subs: map[uint]*models.PackageSubscription{},
	}
	sink := &auditSink{}
	app := newGateApp(store, sink, 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/pakker/arbeidsrett/innhold", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, sink.attempts)
}

func TestGateUnknownPackage(t *testing.T) {
	store := &gateStore{
		pkg:  &models.LegalPackage{ID: 5, Slug: "arbeidsrett", RequiresSubscription: true, IsActive: true},
		subs: map[uint]*models.PackageSubscription{},
	}
	sink := &auditSink{}
	app := newGateApp(store, sink, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/pakker/finnes-ikke/innhold", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Empty(t, sink.attempts)
}

func TestGateOpenPackageNeedsNoSubscription(t *testing.T) {
	store := &gateStore{
		pkg:  &models.LegalPackage{ID: 6, Slug: "gratis-ressurser", RequiresSubscription: false, IsActive: true},
		subs: map[uint]*models.PackageSubscription{},
	}
	sink := &auditSink{}
	app := newGateApp(store, sink, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/pakker/gratis-ressurser/innhold", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Open-package grants are audited too
	assert.Len(t, sink.attempts, 1)
	assert.Equal(t, models.AccessOutcomeGranted, sink.attempts[0].Outcome)
}
