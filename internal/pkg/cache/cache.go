package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
)

// ErrUnavailable is returned by every helper until SetupCache ran.
var ErrUnavailable = errors.New("cache is not configured")

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis compatible cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the Redis client instance, nil before SetupCache
func GetClient() *redis.Client {
	return client
}

// SetClient swaps the client, nil disables caching
func SetClient(c *redis.Client) {
	client = c
}

// Set stores a value in the cache with the given key and expiration time
func Set(key string, value interface{}, expiration time.Duration) error {
	if client == nil {
		return ErrUnavailable
	}
	return client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(key string) (string, error) {
	if client == nil {
		return "", ErrUnavailable
	}
	return client.Get(ctx, key).Result()
}

// SetJSON stores any JSON encodable value
func SetJSON(key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Set(key, b, expiration)
}

// GetJSON decodes a value stored with SetJSON into out
func GetJSON(key string, out interface{}) error {
	val, err := Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), out)
}

// FiberStorage opens a gofiber storage on the cache server using database
// db. Sessions, OAuth state and rate limits each get their own database.
func FiberStorage(db int) *redisstorage.Storage {
	cfg := redisstorage.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     env.GetEnvInt("CACHE_PORT", 6379),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: db,
		Reset:    false,
	}
	if client != nil {
		opts := client.Options()
		cfg.Username = opts.Username
		if opts.Password != "" {
			cfg.Password = opts.Password
		}
		if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
			cfg.Host = h
			if port, err := strconv.Atoi(p); err == nil {
				cfg.Port = port
			}
		}
	}
	return redisstorage.New(cfg)
}
