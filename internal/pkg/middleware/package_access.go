package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/internal/pkg/access"
	"github.com/juridiskporten/portal/internal/pkg/audit"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

// PackageLocalsKey is where the gate stores the resolved package for handlers.
const PackageLocalsKey = "ACCESS_PACKAGE"

// PackageResolver resolves the :packageSlug route parameter.
type PackageResolver interface {
	GetBySlug(slug string) (*models.LegalPackage, error)
}

// PackageAccessGate guards routes under /pakker/:packageSlug. Every attempt
// is written to the audit log, granted or not. Subscriptions found expired
// during the check are transitioned lazily here.
func PackageAccessGate(evaluator *access.Evaluator, recorder *audit.Recorder, subs *subscription.Service, packages PackageResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("packageSlug")
		pkg, err := packages.GetBySlug(slug)
		if err != nil || pkg == nil {
			return deny(c, fiber.StatusNotFound, "package not found")
		}

		userID := usercontext.GetUserID(c)
		if userID == 0 {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		decision, err := evaluator.Evaluate(userID, pkg.ID, time.Now())
		if err != nil {
			if errors.Is(err, access.ErrUserNotFound) || errors.Is(err, access.ErrPackageNotFound) {
				return deny(c, fiber.StatusNotFound, "not found")
			}
			log.Errorf("[Access] Evaluation failed for user=%d package=%s: %v", userID, slug, err)
			return deny(c, fiber.StatusInternalServerError, "access check failed")
		}

		recordAttempt(c, recorder, userID, pkg.ID, decision)

		if !decision.Granted {
			// A row that expired since the last check is retired here so
			// later reads stay consistent.
			if decision.Reason == access.ReasonExpired && decision.Subscription != nil {
				if err := subs.Expire(decision.Subscription.ID); err != nil {
					log.Errorf("[Access] Lazy expiry of subscription %d failed: %v", decision.Subscription.ID, err)
				}
			}
			return deny(c, fiber.StatusForbidden, denialMessage(decision.Reason))
		}

		c.Locals(PackageLocalsKey, pkg)
		return c.Next()
	}
}

// recordAttempt writes the audit record. A write fault is logged and
// swallowed: the access decision stands regardless.
func recordAttempt(c *fiber.Ctx, recorder *audit.Recorder, userID, packageID uint, decision access.Decision) {
	outcome := models.AccessOutcomeDenied
	if decision.Granted {
		outcome = models.AccessOutcomeGranted
	}
	pkgID := packageID
	attempt := &models.AccessAttempt{
		UserID:       userID,
		PackageID:    &pkgID,
		Outcome:      outcome,
		DenialReason: decision.Reason,
		IPAddress:    c.IP(),
		UserAgent:    c.Get("User-Agent"),
	}
	if err := recorder.Record(attempt); err != nil {
		log.Errorf("[Access] Audit record failed for user=%d package=%d: %v", userID, packageID, err)
	}
}

func denialMessage(reason string) string {
	switch reason {
	case access.ReasonExpired:
		return "subscription expired"
	case access.ReasonNoSubscription:
		return "no active subscription for this package"
	default:
		return "access denied"
	}
}

// deny answers JSON for API clients and a plain error page otherwise.
func deny(c *fiber.Ctx, status int, message string) error {
	if strings.HasPrefix(c.Path(), "/api/") || c.Accepts("html", "json") == "json" {
		return c.Status(status).JSON(fiber.Map{
			"error": message,
		})
	}
	return fiber.NewError(status, message)
}
