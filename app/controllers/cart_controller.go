package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/sujit-baniya/flash"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/internal/pkg/cart"
	"github.com/juridiskporten/portal/internal/pkg/constants"
	"github.com/juridiskporten/portal/internal/pkg/session"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

type CartController struct {
	carts *cart.Service
}

var cartController *CartController

func InitializeCartController(carts *cart.Service) {
	cartController = &CartController{carts: carts}
}

// currentCart resolves the caller's cart: the user cart when logged in,
// otherwise a session-keyed anonymous cart created on first use.
func currentCart(c *fiber.Ctx) (*models.ShoppingCart, error) {
	userID := usercontext.GetUserID(c)
	if userID != 0 {
		return cartController.carts.Resolve(userID, "")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return nil, err
	}
	key, _ := sess.Get(sessionCartKey).(string)
	if key == "" {
		key = uuid.New().String()
		sess.Set(sessionCartKey, key)
		if err := sess.Save(); err != nil {
			return nil, err
		}
	}
	return cartController.carts.Resolve(0, key)
}

// HandleCartShow renders the cart page with its current lines.
func HandleCartShow(c *fiber.Ctx) error {
	current, err := currentCart(c)
	if err != nil {
		log.Errorf("[Cart] Failed to resolve cart: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	var totalOre int64
	for _, item := range current.Items {
		totalOre += item.PriceOre * int64(item.Quantity)
	}

	data := baseViewData(c, "Handlekurv")
	data["Flash"] = flash.Get(c)
	data["Cart"] = current
	data["TotalOre"] = totalOre
	return c.Render("cart/index", data, "layouts/main")
}

// HandleCartAdd puts one package into the cart by slug.
func HandleCartAdd(c *fiber.Ctx) error {
	slug := c.FormValue("package_slug")
	if slug == "" {
		slug = c.Params("packageSlug")
	}

	current, err := currentCart(c)
	if err != nil {
		log.Errorf("[Cart] Failed to resolve cart: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	if _, err := cartController.carts.AddPackage(current, slug); err != nil {
		fm := fiber.Map{"type": "error"}
		switch {
		case errors.Is(err, cart.ErrPackageNotFound):
			fm["message"] = "Pakken finnes ikke."
		case errors.Is(err, cart.ErrPackageNotBuyable):
			fm["message"] = "Pakken kan ikke kjøpes for øyeblikket."
		case errors.Is(err, cart.ErrAlreadySubscribed):
			fm["message"] = "Du har allerede et aktivt abonnement på denne pakken."
		default:
			log.Errorf("[Cart] Failed to add package %s: %v", slug, err)
			fm["message"] = "Noe gikk galt. Prøv igjen."
		}
		return flash.WithError(c, fm).Redirect(constants.PackagesRoute)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Pakken er lagt i handlekurven.",
	}
	return flash.WithSuccess(c, fm).Redirect(constants.CartRoute)
}

// HandleCartRemove takes one package line out of the cart.
func HandleCartRemove(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("packageID"), 10, 32)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Pakken finnes ikke")
	}
	packageID := uint(id)

	current, err := currentCart(c)
	if err != nil {
		log.Errorf("[Cart] Failed to resolve cart: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	if _, err := cartController.carts.RemovePackage(current, packageID); err != nil {
		log.Errorf("[Cart] Failed to remove package %d: %v", packageID, err)
		fm := fiber.Map{
			"type":    "error",
			"message": "Kunne ikke fjerne pakken fra handlekurven.",
		}
		return flash.WithError(c, fm).Redirect(constants.CartRoute)
	}

	return c.Redirect(constants.CartRoute, fiber.StatusSeeOther)
}
