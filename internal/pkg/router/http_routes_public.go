package router

import (
	"github.com/ManuelReschke/Marktplatz/app/controllers"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Auth
	app.Get("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Payment gateway webhooks (no CSRF, signature-verified in the billing service)
	app.Post("/webhooks/dodo", controllers.HandleDodoWebhook)
	app.Post("/webhooks/paystack", controllers.HandlePaystackWebhook)
}
