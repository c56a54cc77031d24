package router

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Marktplatz/app/controllers"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", controllers.HandleHome)
	group.Get("/directory", controllers.HandleDirectory)
	group.Get("/pricing", controllers.HandlePricing)
	group.Get("/b/:slug", controllers.HandleStorefront)
	group.Post("/b/:slug/reviews", controllers.HandleReviewSubmit)
	group.Get("/login", controllers.HandleAuthLogin)

	dashboard := group.Group("/dashboard", middleware.RequireAuth)
	dashboard.Get("/profile", controllers.HandleProfileEdit)
	dashboard.Post("/profile", controllers.HandleProfileUpdate)

	// Everything else needs a finished profile.
	dashboard.Get("/", middleware.RequireProfile, controllers.HandleDashboard)
	dashboard.Post("/ai", middleware.RequireProfile, controllers.HandleAISettingsUpdate)
	dashboard.Get("/analytics", middleware.RequireProfile, controllers.HandleAnalytics)
	dashboard.Get("/products", middleware.RequireProfile, controllers.HandleProductList)
	dashboard.Post("/products", middleware.RequireProfile, controllers.HandleProductCreate)
	dashboard.Post("/products/:id", middleware.RequireProfile, controllers.HandleProductUpdate)
	dashboard.Post("/products/:id/delete", middleware.RequireProfile, controllers.HandleProductDelete)
}
