package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/cache"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/database"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/metrics"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/router"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/viewmodel"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()

	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/marktplatz to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	app := fiber.New(fiber.Config{
		Views:       viewmodel.NewEngine(basePath + "views"),
		BodyLimit:   8 * 1024 * 1024, // product images are capped well below this
		ProxyHeader: env.GetEnv("PROXY_HEADER", ""),
	})

	if _, err := os.Stat(basePath + "public/assets/icons/favicon.ico"); err == nil {
		app.Use(favicon.New(favicon.Config{
			File:         basePath + "public/assets/icons/favicon.ico",
			URL:          "/favicon.ico",
			CacheControl: "public, max-age=604800",
		}))
	}

	app.Use(recover.New(), logger.New())

	// operator endpoints are only mounted when credentials are configured
	if pass := env.GetEnv("METRICS_PASSWORD", ""); pass != "" {
		metricsAuth := basicauth.New(basicauth.Config{
			Users: map[string]string{
				env.GetEnv("METRICS_USER", "admin"): pass,
			},
		})
		app.Get("/metrics", metricsAuth, monitor.New(monitor.Config{Title: "Marktplatz Metrics"}))
		app.Get("/metrics/prometheus", metricsAuth, metrics.Handler())
	} else {
		log.Println("METRICS_PASSWORD not set, /metrics is disabled")
	}

	app.Static("/assets", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// locally stored product images
	app.Static(constants.UploadsRoute, env.GetEnv("UPLOADS_DIR", basePath+constants.UploadsPath), fiber.Static{
		CacheDuration: 10 * time.Second,
		Compress:      false,
		MaxAge:        604800, // 7 days
	})

	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	router.InstallRouter(app)

	return app
}
