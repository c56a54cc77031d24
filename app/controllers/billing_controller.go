package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/billing"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/database"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/metrics"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
)

func HandleDodoWebhook(c *fiber.Ctx) error {
	return handleBillingWebhook(c, models.BillingProviderDodo)
}

func HandlePaystackWebhook(c *fiber.Ctx) error {
	return handleBillingWebhook(c, models.BillingProviderPaystack)
}

// handleBillingWebhook acknowledges every authentic delivery, including
// duplicates and events that change nothing. Only storage failures return
// 5xx so the gateway retries.
func handleBillingWebhook(c *fiber.Ctx, provider string) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	headers := make(http.Header)
	c.Request().Header.VisitAll(func(k, v []byte) {
		headers.Add(string(k), string(v))
	})

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := svc.HandleWebhook(ctx, provider, rawBody, headers)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidSignature):
			metrics.Default().WebhookEvent(provider, "invalid_signature")
			log.Warnf("[Billing] %s webhook rejected: %v", provider, err)
			return jsonError(c, fiber.StatusUnauthorized, "invalid_signature")
		case errors.Is(err, billing.ErrInvalidPayload):
			metrics.Default().WebhookEvent(provider, "invalid_payload")
			log.Warnf("[Billing] %s webhook payload: %v", provider, err)
			return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
		case errors.Is(err, billing.ErrNotConfigured):
			metrics.Default().WebhookEvent(provider, "not_configured")
			log.Errorf("[Billing] %s webhook: %v", provider, err)
			return jsonError(c, fiber.StatusInternalServerError, "webhook_not_configured")
		default:
			metrics.Default().WebhookEvent(provider, "error")
			log.Errorf("[Billing] %s webhook processing failed: %v", provider, err)
			return jsonError(c, fiber.StatusInternalServerError, "webhook_processing_failed")
		}
	}

	metrics.Default().WebhookEvent(provider, string(res.Outcome))
	log.Infof("[Billing] %s %s: %s (business %s, %s)", provider, res.Reference, res.Outcome, res.BusinessID, res.Transition)
	return c.JSON(fiber.Map{"received": true})
}

type checkoutRequest struct {
	UserID  string `json:"userId"`
	Billing string `json:"billing"`
}

// newCheckouts is swapped in tests.
var newCheckouts = func() billing.Checkouts {
	return billing.NewDefaultCheckouts(billing.ConfigFromEnv())
}

// HandleCheckoutAPI starts a hosted checkout for the signed-in owner.
func HandleCheckoutAPI(c *fiber.Ctx) error {
	provider := strings.ToLower(c.Params("provider"))
	checkout, ok := newCheckouts()[provider]
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "unknown payment provider")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "userId is required")
	}
	cycle := billing.NormalizeCycle(req.Billing)
	if cycle == "" {
		return jsonError(c, fiber.StatusBadRequest, "billing must be monthly or yearly")
	}
	if req.UserID != usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusForbidden, "forbidden")
	}

	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[Billing] checkout load %s: %v", req.UserID, err)
		return jsonError(c, fiber.StatusNotFound, "Business not found")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 20*time.Second)
	defer cancel()
	session, err := checkout.CreateCheckout(ctx, billing.CheckoutRequest{
		BusinessID:   biz.ID,
		Email:        biz.Email,
		Name:         biz.DisplayName(),
		BillingCycle: cycle,
	})
	if err != nil {
		log.Errorf("[Billing] %s checkout for %s: %v", provider, biz.ID, err)
		switch {
		case errors.Is(err, billing.ErrNotConfigured):
			metrics.Default().Checkout(provider, "not_configured")
			return jsonError(c, fiber.StatusInternalServerError, "Payment provider is not configured")
		case errors.Is(err, billing.ErrUpstream):
			metrics.Default().Checkout(provider, "upstream_error")
			return jsonError(c, fiber.StatusBadGateway, "Payment provider unavailable")
		default:
			metrics.Default().Checkout(provider, "error")
			return jsonError(c, fiber.StatusInternalServerError, "Could not start checkout")
		}
	}

	metrics.Default().Checkout(provider, "ok")
	return c.JSON(fiber.Map{"url": session.URL})
}
