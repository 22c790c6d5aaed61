package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

// baseViewData carries the values every page template expects.
func baseViewData(c *fiber.Ctx, title string) fiber.Map {
	ctx := usercontext.GetUserContext(c)
	data := fiber.Map{
		"Title":      title,
		"IsLoggedIn": ctx.IsLoggedIn,
		"IsAdmin":    ctx.IsAdmin,
		"IsLawyer":   ctx.IsLawyer,
		"UserName":   ctx.Name,
	}
	if token := c.Locals("csrf"); token != nil {
		data["CSRFToken"] = token
	}
	return data
}

// GetClientIP determines the actual client IP address considering proxies.
// The first hop in X-Forwarded-For wins; CDN headers win over that.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	return c.IP()
}
