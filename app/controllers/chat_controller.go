package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/aichat"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/metrics"
)

type chatRequest struct {
	BusinessID string           `json:"businessId"`
	Messages   []aichat.Message `json:"messages"`
}

// newChatGateway is swapped in tests.
var newChatGateway = func() *aichat.Gateway {
	r := repos()
	return aichat.NewGatewayFromEnv(r.Business, r.Product)
}

// HandleChatAPI answers a storefront visitor on behalf of the business.
func HandleChatAPI(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reply, err := newChatGateway().Chat(c.UserContext(), req.BusinessID, req.Messages)
	if err != nil {
		return chatError(c, err)
	}

	result := "ok"
	if reply.Fallback {
		result = "fallback"
	}
	metrics.Default().AIChat(result)
	return c.JSON(fiber.Map{"reply": reply.Text})
}

func chatError(c *fiber.Ctx, err error) error {
	m := metrics.Default()
	switch {
	case errors.Is(err, aichat.ErrInvalidRequest):
		m.AIChat("invalid")
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, aichat.ErrNotFound):
		m.AIChat("not_found")
		return jsonError(c, fiber.StatusNotFound, "Business not found")
	case errors.Is(err, aichat.ErrNotPro):
		m.AIChat("not_pro")
		return jsonErrorCode(c, fiber.StatusForbidden, "NOT_PRO", "AI chat is only available for pro businesses")
	case errors.Is(err, aichat.ErrAIDisabled):
		m.AIChat("disabled")
		return jsonErrorCode(c, fiber.StatusForbidden, "AI_DISABLED", "AI chat is disabled for this business")
	case errors.Is(err, aichat.ErrLimitReached):
		m.AIChat("limit_reached")
		return jsonErrorCode(c, fiber.StatusTooManyRequests, "LIMIT_REACHED", "Monthly AI message limit reached")
	case errors.Is(err, aichat.ErrUnavailable):
		m.AIChat("upstream_error")
		return jsonError(c, fiber.StatusBadGateway, "AI service unavailable")
	case errors.Is(err, aichat.ErrNotConfigured):
		m.AIChat("not_configured")
		log.Error("[AIChat] LLM_API_KEY is not set")
		return jsonError(c, fiber.StatusInternalServerError, "AI service is not configured")
	default:
		m.AIChat("error")
		log.Errorf("[AIChat] %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Internal error")
	}
}
