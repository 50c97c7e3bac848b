// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"strategiz/internal/config"
	"strategiz/internal/handlers"
	"strategiz/internal/middleware"
	"strategiz/internal/models"
	"strategiz/internal/repositories/cache"
	"strategiz/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps carries the wired dependencies the routes need.
type Deps struct {
	DB     *gorm.DB
	Cache  *cache.CacheService
	Ledger ledger.Service
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Deps) {
	walletHandler := handlers.NewWalletHandler(deps.Ledger)
	adminHandler := handlers.NewAdminHandler(deps.Ledger)
	webhookHandler := handlers.NewWebhookHandler(deps.Ledger,
		config.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Cache)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// Webhooks authenticate via signature, not JWT.
	api.Post("/webhooks/stripe", webhookHandler.HandleStripeEvent)

	// User-facing wallet surface.
	protected := api.Use(middleware.AuthMiddleware)
	wallet := protected.Group("/wallet")
	wallet.Get("/", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetWallet)
	wallet.Get("/transactions", middleware.HasPermission(models.PermissionTransactionRead), walletHandler.GetTransactions)
	wallet.Post("/transfer", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.Transfer)
	wallet.Post("/lock", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.LockFunds)
	wallet.Post("/unlock", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.UnlockFunds)
	wallet.Put("/external-address", middleware.HasPermission(models.PermissionWalletWrite), walletHandler.SetExternalAddress)

	// Back-office surface, keyed rather than token-authenticated.
	adminKeyHash := config.GetEnv("ADMIN_KEY_HASH", "")
	admin := app.Group("/api/admin", middleware.AdminKeyMiddleware(adminKeyHash))
	admin.Post("/credit", adminHandler.CreditUser)
	admin.Post("/wallets/:userId/suspend", adminHandler.SuspendWallet)
	admin.Post("/wallets/:userId/reactivate", adminHandler.ReactivateWallet)
	admin.Delete("/wallets/:userId", adminHandler.DeleteWallet)
	admin.Get("/wallets/:userId/transactions", adminHandler.GetUserTransactions)
}
