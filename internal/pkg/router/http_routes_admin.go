package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/juridiskporten/portal/app/controllers"
	"github.com/juridiskporten/portal/internal/pkg/middleware"
)

func (h *HttpRouter) registerAdminRoutes(app *fiber.App) {
	ac := controllers.GetAdminController()

	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", ac.HandleDashboard)

	// User management
	adminGroup.Get("/brukere", ac.HandleUsers)
	adminGroup.Get("/brukere/rediger/:id", ac.HandleUserEdit)
	adminGroup.Post("/brukere/oppdater/:id", ac.HandleUserUpdate)
	adminGroup.Post("/brukere/:id/abonnement", ac.HandleGrantSubscription)
	adminGroup.Post("/brukere/:id/abonnement/:subID/kanseller", ac.HandleRevokeSubscription)
	adminGroup.Post("/brukere/:id/send-aktivering", ac.HandleResendActivation)

	// Package management
	adminGroup.Get("/pakker", ac.HandlePackages)
	adminGroup.Post("/pakker", ac.HandlePackageSave)
	adminGroup.Post("/pakker/:id", ac.HandlePackageSave)

	// Access audit log
	adminGroup.Get("/tilgangslogg", ac.HandleAccessLog)
}
