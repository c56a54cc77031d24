package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

func SetupDatabase() {
	var err error
	driver := strings.ToLower(env.GetEnv("DB_DRIVER", "postgres"))

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(dialector(driver), &gorm.Config{})
		if err == nil {
			if env.IsDev() {
				if mErr := AutoMigrate(DB); mErr != nil {
					log.Printf("AutoMigrate failed: %v", mErr)
				}
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

func dialector(driver string) gorm.Dialector {
	switch driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_PORT", "3306"),
			env.GetEnv("DB_NAME", ""),
		)
		return mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			SkipInitializeWithVersion: false,
		})
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_NAME", ""),
			env.GetEnv("DB_PORT", "5432"),
			env.GetEnv("DB_SSLMODE", "disable"),
		)
		return postgres.Open(dsn)
	}
}

// AutoMigrate creates or updates every table the application owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Business{},
		&models.ProviderAccount{},
		&models.Product{},
		&models.Review{},
		&models.PageView{},
		&models.PaystackTransaction{},
		&models.BillingWebhookEvent{},
		&models.Feedback{},
	)
}
