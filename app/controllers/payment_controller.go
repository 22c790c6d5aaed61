package controllers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/env"
	"github.com/juridiskporten/portal/internal/pkg/jobqueue"
	"github.com/juridiskporten/portal/internal/pkg/mail"
	"github.com/juridiskporten/portal/internal/pkg/orders"
	"github.com/juridiskporten/portal/internal/pkg/payment"
)

type PaymentController struct {
	bridge *payment.Bridge
	orders *orders.Service
	events repository.PaymentEventRepository
	rows   repository.OrderRepository
	users  repository.UserRepository
}

var paymentController *PaymentController

func InitializePaymentController(bridge *payment.Bridge, orderSvc *orders.Service) {
	factory := repository.GetGlobalFactory()
	paymentController = &PaymentController{
		bridge: bridge,
		orders: orderSvc,
		events: factory.GetPaymentEventRepository(),
		rows:   factory.GetOrderRepository(),
		users:  factory.GetUserRepository(),
	}
}

// webhookEvent is the envelope the payment provider posts.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		OrderNumber  string `json:"order_number"`
		PaymentID    string `json:"payment_id"`
		UserID       uint   `json:"user_id"`
		PackageID    uint   `json:"package_id"`
		AmountOre    int64  `json:"amount_ore"`
		DurationDays int    `json:"duration_days"`
		Reference    string `json:"reference"`
	} `json:"data"`
}

// HandlePaymentWebhook receives provider callbacks. The provider delivers
// at least once and retries on non-2xx, so everything below the signature
// check must be idempotent and answer 200 for events we have seen before.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	body := c.Body()

	secret := env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")
	if !payment.VerifyWebhookSignature(body, c.Get("X-Webhook-Signature"), secret) {
		log.Warnf("[Payment] Webhook with bad signature from %s", GetClientIP(c))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed payload"})
	}

	switch event.Type {
	case "payment.succeeded":
		return handlePaymentSucceeded(c, event, body)
	case "subscription.renewed":
		return handleSubscriptionRenewed(c, event, body)
	default:
		// Unknown event types are acknowledged so the provider stops
		// retrying them.
		log.Infof("[Payment] Ignoring webhook event type %s", event.Type)
		return c.JSON(fiber.Map{"status": "ignored"})
	}
}

// handlePaymentSucceeded marks the referenced order as paid and activates
// its subscriptions. The event row gates duplicates, but only a run that
// finished without error counts: a redelivery of an event whose first run
// failed mid-activation goes through MarkPaid again, which re-drives the
// order lines still missing their grant.
func handlePaymentSucceeded(c *fiber.Ctx, event webhookEvent, body []byte) error {
	created, stored, err := paymentController.events.CreateIfNotExists(&models.PaymentEvent{
		Provider:        models.PaymentProviderStripe,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(body),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Payment] Failed to store webhook event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage failure"})
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return c.JSON(fiber.Map{"status": "duplicate"})
	}

	order, err := paymentController.rows.GetByOrderNumber(event.Data.OrderNumber)
	if err != nil {
		log.Errorf("[Payment] Order lookup failed for %s: %v", event.Data.OrderNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage failure"})
	}
	if order == nil {
		log.Warnf("[Payment] Webhook %s references unknown order %s", event.ID, event.Data.OrderNumber)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown order"})
	}

	order, err = paymentController.orders.MarkPaid(order.ID, event.Data.PaymentID, time.Now())
	if markErr := paymentController.events.MarkProcessed(stored.ID, errString(err)); markErr != nil {
		log.Warnf("[Payment] Failed to mark webhook event %s processed: %v", event.ID, markErr)
	}
	if err != nil {
		// Non-2xx makes the provider redeliver; the event row now carries
		// the error, so the redelivery is re-processed instead of being
		// answered as a duplicate.
		log.Errorf("[Payment] MarkPaid failed for order %s: %v", event.Data.OrderNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "activation failure"})
	}

	if user, err := paymentController.users.GetByID(order.UserID); err == nil && user != nil {
		subject, mailBody := mail.OrderConfirmationMail(user, order)
		if _, err := jobqueue.GetManager().GetQueue().EnqueueMail(user.Email, subject, mailBody); err != nil {
			log.Warnf("[Payment] Failed to enqueue confirmation mail for order %s: %v", order.OrderNumber, err)
		}
	}

	return c.JSON(fiber.Map{"status": "ok", "order": order.OrderNumber})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// handleSubscriptionRenewed feeds a single-package renewal through the
// payment bridge, which owns idempotence on the provider event id.
func handleSubscriptionRenewed(c *fiber.Ctx, event webhookEvent, body []byte) error {
	var duration *time.Duration
	if event.Data.DurationDays > 0 {
		d := time.Duration(event.Data.DurationDays) * 24 * time.Hour
		duration = &d
	} else {
		d := orders.SubscriptionTerm
		duration = &d
	}

	sub, err := paymentController.bridge.OnPaymentConfirmed(payment.ConfirmedPayment{
		UserID:      event.Data.UserID,
		PackageID:   event.Data.PackageID,
		Duration:    duration,
		Provider:    models.PaymentProviderStripe,
		EventID:     event.ID,
		AmountOre:   event.Data.AmountOre,
		Reference:   event.Data.Reference,
		PayloadJSON: string(body),
		Now:         time.Now(),
	})
	if err != nil {
		log.Errorf("[Payment] Renewal failed for event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "activation failure"})
	}

	resp := fiber.Map{"status": "ok"}
	if sub != nil {
		resp["subscription_id"] = sub.ID
	}
	return c.JSON(resp)
}
