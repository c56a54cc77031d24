package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"

	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/aichat"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/billing"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/database"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/metrics"
)

type job struct {
	name    string
	spec    string
	timeout time.Duration
	run     func(ctx context.Context) (int64, error)
}

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())

	repos := repository.GetGlobalRepositories()
	jobs := []job{
		{
			name:    "billing_sweep",
			spec:    env.GetEnv("CRON_BILLING_SWEEP", "0 0 2 * * *"),
			timeout: 5 * time.Minute,
			run: func(ctx context.Context) (int64, error) {
				n, err := billing.NewServiceFromDB(database.GetDB()).SweepLapsed(ctx)
				return int64(n), err
			},
		},
		{
			name:    "ai_usage_reset",
			spec:    env.GetEnv("CRON_AI_RESET", "0 0 0 1 * *"),
			timeout: time.Minute,
			run: func(ctx context.Context) (int64, error) {
				return aichat.NewGatewayFromEnv(repos.Business, repos.Product).ResetMonthlyUsage(ctx)
			},
		},
	}

	// "scheduler run <job>" executes one job immediately and exits
	if len(os.Args) == 3 && os.Args[1] == "run" {
		for _, j := range jobs {
			if j.name == os.Args[2] {
				if err := execute(j); err != nil {
					os.Exit(1)
				}
				return
			}
		}
		log.Fatalf("[CRON] unknown job %q", os.Args[2])
	}

	scheduler := cron.New(cron.WithSeconds())
	for _, j := range jobs {
		j := j
		if _, err := scheduler.AddFunc(j.spec, func() { _ = execute(j) }); err != nil {
			log.Fatalf("[CRON] failed to add job %s (%s): %v", j.name, j.spec, err)
		}
		log.Printf("[CRON] scheduled %s at %q", j.name, j.spec)
	}
	scheduler.Start()

	if addr := env.GetEnv("SCHEDULER_METRICS_ADDR", ""); addr != "" {
		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		app.Get("/metrics", metrics.Handler())
		go func() {
			if err := app.Listen(addr); err != nil {
				log.Printf("[CRON] metrics listener stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[CRON] shutting down, waiting for running jobs")
	<-scheduler.Stop().Done()
}

func execute(j job) error {
	log.Printf("[CRON] starting %s", j.name)
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.run(ctx)
	if err != nil {
		metrics.Default().JobRun(j.name, "error")
		log.Printf("[CRON] %s failed after %d rows: %v", j.name, n, err)
		return err
	}
	metrics.Default().JobRun(j.name, "ok")
	log.Printf("[CRON] %s finished, %d rows affected", j.name, n)
	return nil
}
