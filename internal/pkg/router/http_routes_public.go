package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/juridiskporten/portal/app/controllers"
	"github.com/juridiskporten/portal/internal/pkg/constants"
	"github.com/juridiskporten/portal/internal/pkg/middleware"
)

func (h *HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Static pages
	app.Get("/om-oss", loggedInMiddleware, controllers.HandleAbout)

	// Signed download links. The token in the query string authorizes the
	// request, so these stay outside the CSRF group.
	app.Get(constants.DownloadsRoute+"/:contentID", middleware.RequireAuth, controllers.HandleDownloadFile)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Payment provider webhooks (no CSRF, signature-verified in controller)
	app.Post(constants.WebhookRoute, controllers.HandlePaymentWebhook)
}
