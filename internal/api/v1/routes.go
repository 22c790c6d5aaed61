package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/juridiskporten/portal/internal/pkg/middleware"
)

// RegisterHandlers attaches the v1 endpoints to the given route group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Get("/pakker", s.GetPackages)
	router.Get("/abonnementer", middleware.RequireAPISessionAuth, s.GetMySubscriptions)
	router.Get("/tilgang/:packageSlug", middleware.RequireAPISessionAuth, s.GetAccessCheck)
}
