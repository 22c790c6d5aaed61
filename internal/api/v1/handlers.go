// Package apiv1 serves the JSON API consumed by municipal case-handling
// integrations. Session authentication is enforced by middleware attached
// in the router.
package apiv1

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/access"
	"github.com/juridiskporten/portal/internal/pkg/catalog"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// PackageSummary is the public catalog representation of a package.
type PackageSummary struct {
	UUID        string `json:"uuid"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceOre    int64  `json:"price_ore"`
	AccessLevel string `json:"access_level"`
}

// SubscriptionSummary is one of the caller's subscription rows.
type SubscriptionSummary struct {
	ID        uint       `json:"id"`
	PackageID uint       `json:"package_id"`
	Status    string     `json:"status"`
	StartsAt  time.Time  `json:"starts_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsTrial   bool       `json:"is_trial"`
}

// AccessCheckResponse is the evaluator's answer for one package.
type AccessCheckResponse struct {
	Granted      bool   `json:"granted"`
	DenialReason string `json:"denial_reason,omitempty"`
}

// APIServer implements the v1 API endpoints.
type APIServer struct {
	catalog   *catalog.Service
	evaluator *access.Evaluator
	subs      repository.SubscriptionRepository
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(cat *catalog.Service, evaluator *access.Evaluator) *APIServer {
	return &APIServer{
		catalog:   cat,
		evaluator: evaluator,
		subs:      repository.GetGlobalFactory().GetSubscriptionRepository(),
	}
}

// GetPing handles the ping endpoint.
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// GetPackages returns the active package catalog.
func (s *APIServer) GetPackages(c *fiber.Ctx) error {
	packages, err := s.catalog.ListActive()
	if err != nil {
		log.Errorf("[API] Failed to load catalog: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	out := make([]PackageSummary, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, PackageSummary{
			UUID:        pkg.UUID,
			Slug:        pkg.Slug,
			Name:        pkg.Name,
			Description: pkg.Description,
			PriceOre:    pkg.PriceOre,
			AccessLevel: pkg.AccessLevel,
		})
	}
	return c.JSON(out)
}

// GetMySubscriptions returns the authenticated user's subscription rows.
func (s *APIServer) GetMySubscriptions(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	rows, err := s.subs.ListByUser(userID)
	if err != nil {
		log.Errorf("[API] Failed to list subscriptions for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	out := make([]SubscriptionSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, SubscriptionSummary{
			ID:        row.ID,
			PackageID: row.PackageID,
			Status:    row.Status,
			StartsAt:  row.StartsAt,
			ExpiresAt: row.ExpiresAt,
			IsTrial:   row.IsTrial,
		})
	}
	return c.JSON(out)
}

// GetAccessCheck answers whether the caller may read a package right now.
// This is a pure check: it writes no audit record and expires nothing, so
// integrations can poll it freely.
func (s *APIServer) GetAccessCheck(c *fiber.Ctx) error {
	pkg, err := s.catalog.GetBySlug(c.Params("packageSlug"))
	if err != nil {
		log.Errorf("[API] Package lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	if pkg == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_package"})
	}

	decision, err := s.evaluator.Evaluate(usercontext.GetUserID(c), pkg.ID, time.Now())
	if err != nil {
		if errors.Is(err, access.ErrUserNotFound) || errors.Is(err, access.ErrPackageNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_subject"})
		}
		log.Errorf("[API] Access evaluation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}

	resp := AccessCheckResponse{Granted: decision.Granted}
	if !decision.Granted {
		resp.DenialReason = decision.Reason
	}
	return c.JSON(resp)
}
