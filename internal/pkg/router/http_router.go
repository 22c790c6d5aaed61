package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/juridiskporten/portal/app/controllers"
	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/access"
	"github.com/juridiskporten/portal/internal/pkg/audit"
	"github.com/juridiskporten/portal/internal/pkg/cart"
	"github.com/juridiskporten/portal/internal/pkg/catalog"
	"github.com/juridiskporten/portal/internal/pkg/middleware"
	"github.com/juridiskporten/portal/internal/pkg/orders"
	"github.com/juridiskporten/portal/internal/pkg/payment"
	"github.com/juridiskporten/portal/internal/pkg/session"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
)

// HttpRouter wires the services once and hands the shared instances to the
// controllers and route groups.
type HttpRouter struct {
	subs      *subscription.Service
	evaluator *access.Evaluator
	recorder  *audit.Recorder
	catalog   *catalog.Service
	carts     *cart.Service
	orders    *orders.Service
	bridge    *payment.Bridge
}

func NewHttpRouter() *HttpRouter {
	repos := repository.GetGlobalRepositories()

	subs := subscription.NewService(repos.Subscription)
	catalogSvc := catalog.NewService(repos.Package)

	return &HttpRouter{
		subs:      subs,
		evaluator: access.NewEvaluator(access.NewRepositoryStore(repos)),
		recorder:  audit.NewRecorder(repos.AccessAttempt),
		catalog:   catalogSvc,
		carts:     cart.NewService(repos.Cart, repos.Package, subs),
		orders:    orders.NewService(repos.Order, repos.Cart, repos.Coupon, subs),
		bridge:    payment.NewBridge(repos.PaymentEvent, subs),
	}
}

func (h *HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	controllers.InitializeMainController(h.catalog)
	controllers.InitializeAuthController(h.carts)
	controllers.InitializePackageController(h.catalog)
	controllers.InitializeCartController(h.carts)
	controllers.InitializeCheckoutController(h.orders)
	controllers.InitializePaymentController(h.bridge, h.orders)
	controllers.InitializeAdminController(h.subs, h.catalog)

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

// packageGate builds the access gate shared by the content routes.
func (h *HttpRouter) packageGate() fiber.Handler {
	return middleware.PackageAccessGate(h.evaluator, h.recorder, h.subs, repository.GetGlobalFactory().GetPackageRepository())
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; the handlers read
	// it via usercontext.GetUserContext(c).
	return c.Next()
}
