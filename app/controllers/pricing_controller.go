package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/billing"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/entitlements"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
)

func HandlePricing(c *fiber.Ctx) error {
	cfg := billing.ConfigFromEnv()
	uc := usercontext.GetUserContext(c)
	return render(c, "pricing", "Pricing", fiber.Map{
		"FreeProductLimit": entitlements.FreeProductLimit,
		"DodoEnabled":      cfg.DodoAPIKey != "" && cfg.DodoProductMonthly != "",
		"PaystackEnabled":  cfg.PaystackSecretKey != "",
		"IsPro":            entitlements.Normalize(uc.Plan) == entitlements.PlanPro,
		"UserID":           uc.UserID,
	})
}
