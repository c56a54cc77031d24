package router

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/ManuelReschke/Marktplatz/internal/api/v1"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/cache"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/middleware"
)

type ApiRouter struct {
	openAPIPath string
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiterConfig()))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	validator, err := apiv1.NewValidator(h.openAPIPath)
	if err != nil {
		// Handlers validate their own input; the document check is an extra layer.
		log.Errorf("[API] request validation disabled: %v", err)
	}
	apiv1.RegisterHandlers(api, apiv1.NewAPIServer(), validator, middleware.RequireAPISessionAuth)
}

func NewApiRouter(openAPIPath string) *ApiRouter {
	return &ApiRouter{openAPIPath: openAPIPath}
}

// limiterConfig keeps per-IP counters in redis DB 3 so limits hold across
// instances. Without a cache the limiter falls back to process memory.
func limiterConfig() limiter.Config {
	cfg := limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 60),
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		},
	}
	if cache.GetClient() != nil {
		cfg.Storage = cache.FiberStorage(3)
	}
	return cfg
}

// openAPIPath finds the published document next to the views.
func openAPIPath() string {
	for _, base := range []string{"./", "../../", "../../../"} {
		p := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "public/docs/v1/openapi.yml"
}
