// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"log"
	"time"

	"strategiz/internal/config"
	"strategiz/internal/repositories"
	"strategiz/internal/repositories/cache"
	"strategiz/internal/routes"
	"strategiz/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()

	db, err := repositories.InitDB(repositories.DBConfig{
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("failed to close database connection: %v", err)
			}
		}
	}()

	// Redis is an optional read cache; the service runs without it.
	var cacheService *cache.CacheService
	var ledgerCache ledger.CacheOperator
	redisClient, err := cache.NewRedisClient(cache.RedisConfigFromEnv())
	if err != nil {
		log.Printf("redis unavailable, wallet cache disabled: %v", err)
	} else {
		cacheService = cache.NewCacheService(redisClient, ledger.DefaultCacheTTL)
		ledgerCache = cacheService
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.Printf("failed to close redis connection: %v", err)
			}
		}()
	}

	store := repositories.NewLedgerStore(db)
	ledgerService := ledger.NewService(store, ledgerCache, ledger.Config{
		MaxAttempts:    config.GetIntEnv("LEDGER_MAX_ATTEMPTS", ledger.DefaultMaxAttempts),
		RetryBaseDelay: config.GetDurationEnv("LEDGER_RETRY_BASE_DELAY", ledger.DefaultRetryBaseDelay),
		AttemptTimeout: config.GetDurationEnv("LEDGER_ATTEMPT_TIMEOUT", ledger.DefaultAttemptTimeout),
		CacheTTL:       config.GetDurationEnv("LEDGER_CACHE_TTL", ledger.DefaultCacheTTL),
	}, nil)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Admin-Key, Stripe-Signature",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/wallet/transfer", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("TRANSFER_RATE_LIMIT", 20),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Deps{
		DB:     db,
		Cache:  cacheService,
		Ledger: ledgerService,
	})

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
