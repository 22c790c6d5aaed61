package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/constants"
	"github.com/juridiskporten/portal/internal/pkg/orders"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

type CheckoutController struct {
	orders   *orders.Service
	orderRow repository.OrderRepository
	subs     repository.SubscriptionRepository
	packages repository.PackageRepository
	users    repository.UserRepository
}

var checkoutController *CheckoutController

func InitializeCheckoutController(svc *orders.Service) {
	factory := repository.GetGlobalFactory()
	checkoutController = &CheckoutController{
		orders:   svc,
		orderRow: factory.GetOrderRepository(),
		subs:     factory.GetSubscriptionRepository(),
		packages: factory.GetPackageRepository(),
		users:    factory.GetUserRepository(),
	}
}

// HandleCheckout renders the checkout form and, on POST, snapshots the
// cart into a pending order. Payment happens at the provider; the order
// flips to paid when the webhook arrives.
func HandleCheckout(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	current, err := currentCart(c)
	if err != nil {
		log.Errorf("[Checkout] Failed to resolve cart: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	if c.Method() == fiber.MethodPost {
		user, err := checkoutController.users.GetByID(userID)
		if err != nil || user == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
		}

		pkgNames := make(map[uint]string, len(current.Items))
		for _, item := range current.Items {
			pkg, err := checkoutController.packages.GetByID(item.PackageID)
			if err == nil && pkg != nil {
				pkgNames[item.PackageID] = pkg.Name
			}
		}

		order, err := checkoutController.orders.CreateFromCart(current, orders.Checkout{
			UserID:     userID,
			Email:      user.Email,
			Name:       c.FormValue("billing_name", user.Name),
			Org:        c.FormValue("billing_org", user.Organization),
			CouponCode: c.FormValue("coupon_code"),
		}, pkgNames, time.Now())
		if err != nil {
			fm := fiber.Map{"type": "error"}
			switch {
			case errors.Is(err, orders.ErrEmptyCart):
				fm["message"] = "Handlekurven er tom."
				return flash.WithError(c, fm).Redirect(constants.CartRoute)
			case errors.Is(err, orders.ErrCouponInvalid):
				fm["message"] = "Rabattkoden er ugyldig eller utløpt."
				return flash.WithError(c, fm).Redirect(constants.CheckoutRoute)
			default:
				log.Errorf("[Checkout] Failed to create order for user %d: %v", userID, err)
				fm["message"] = "Noe gikk galt. Prøv igjen."
				return flash.WithError(c, fm).Redirect(constants.CheckoutRoute)
			}
		}

		fm := fiber.Map{
			"type":    "success",
			"message": fmt.Sprintf("Ordre %s er opprettet. Du får e-post når betalingen er bekreftet.", order.OrderNumber),
		}
		return flash.WithSuccess(c, fm).Redirect(constants.AccountRoute)
	}

	if len(current.Items) == 0 {
		fm := fiber.Map{
			"type":    "error",
			"message": "Handlekurven er tom.",
		}
		return flash.WithError(c, fm).Redirect(constants.PackagesRoute)
	}

	var totalOre int64
	for _, item := range current.Items {
		totalOre += item.PriceOre * int64(item.Quantity)
	}

	data := baseViewData(c, "Kasse")
	data["Flash"] = flash.Get(c)
	data["Cart"] = current
	data["TotalOre"] = totalOre
	return c.Render("checkout/index", data, "layouts/main")
}

// HandleAccount is the min-side overview: active subscriptions and orders.
func HandleAccount(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	subs, err := checkoutController.subs.ListByUser(userID)
	if err != nil {
		log.Errorf("[Account] Failed to list subscriptions for user %d: %v", userID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	orderRows, err := checkoutController.orderRow.ListByUser(userID, 0, 20)
	if err != nil {
		log.Errorf("[Account] Failed to list orders for user %d: %v", userID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	// Resolve package names for display without preloading associations.
	pkgNames := make(map[uint]string)
	for _, sub := range subs {
		if _, ok := pkgNames[sub.PackageID]; ok {
			continue
		}
		if pkg, err := checkoutController.packages.GetByID(sub.PackageID); err == nil && pkg != nil {
			pkgNames[sub.PackageID] = pkg.Name
		}
	}

	data := baseViewData(c, "Min side")
	data["Flash"] = flash.Get(c)
	data["Subscriptions"] = subs
	data["Orders"] = orderRows
	data["PackageNames"] = pkgNames
	return c.Render("account/index", data, "layouts/main")
}

// HandleOrderShow renders one of the user's own orders.
func HandleOrderShow(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	order, err := checkoutController.orderRow.GetByOrderNumber(c.Params("orderNumber"))
	if err != nil {
		log.Errorf("[Account] Order lookup failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}
	if order == nil || order.UserID != userID {
		return fiber.NewError(fiber.StatusNotFound, "Ordren finnes ikke")
	}

	data := baseViewData(c, "Ordre "+order.OrderNumber)
	data["Flash"] = flash.Get(c)
	data["Order"] = order
	return c.Render("account/order", data, "layouts/main")
}
