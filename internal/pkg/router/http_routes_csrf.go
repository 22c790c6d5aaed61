package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/juridiskporten/portal/app/controllers"
	"github.com/juridiskporten/portal/internal/pkg/constants"
	"github.com/juridiskporten/portal/internal/pkg/env"
	"github.com/juridiskporten/portal/internal/pkg/middleware"
)

func (h *HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleStart)
	group.Get(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post(constants.LoginRoute, loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get(constants.RegisterRoute, loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post(constants.RegisterRoute, loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/aktiver", loggedInMiddleware, controllers.HandleAuthActivate)
	group.Post("/aktiver", loggedInMiddleware, controllers.HandleAuthActivate)

	// Catalog
	group.Get(constants.PackagesRoute, loggedInMiddleware, controllers.HandlePackageList)
	group.Get(constants.PackagesRoute+"/:packageSlug", loggedInMiddleware, controllers.HandlePackageShow)

	// Gated package content. The access gate evaluates the subscription,
	// records the attempt and stores the package for the handler.
	gate := h.packageGate()
	group.Get(constants.PackagesRoute+"/:packageSlug/innhold", gate, controllers.HandlePackageContent)
	group.Get(constants.PackagesRoute+"/:packageSlug/innhold/:contentSlug", gate, controllers.HandleContentShow)
	group.Post(constants.PackagesRoute+"/:packageSlug/innhold/:contentSlug/bokmerke", middleware.RequireAuth, gate, controllers.HandleBookmarkToggle)
	group.Post(constants.PackagesRoute+"/:packageSlug/innhold/:contentSlug/fullfort", middleware.RequireAuth, gate, controllers.HandleContentComplete)

	// Cart and checkout
	group.Get(constants.CartRoute, loggedInMiddleware, controllers.HandleCartShow)
	group.Post(constants.CartRoute+"/legg-til", loggedInMiddleware, controllers.HandleCartAdd)
	group.Post(constants.CartRoute+"/fjern/:packageID", loggedInMiddleware, controllers.HandleCartRemove)
	group.Get(constants.CheckoutRoute, middleware.RequireAuth, controllers.HandleCheckout)
	group.Post(constants.CheckoutRoute, middleware.RequireAuth, controllers.HandleCheckout)

	// Min side
	group.Get(constants.AccountRoute, middleware.RequireAuth, controllers.HandleAccount)
	group.Get(constants.AccountRoute+"/ordre/:orderNumber", middleware.RequireAuth, controllers.HandleOrderShow)
	group.Get(constants.AccountRoute+"/bokmerker", middleware.RequireAuth, controllers.HandleMyBookmarks)
}
