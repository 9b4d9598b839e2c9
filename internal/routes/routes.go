package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tiffinbox/internal/config"
	"github.com/example/tiffinbox/internal/gateway"
	"github.com/example/tiffinbox/internal/handlers"
	"github.com/example/tiffinbox/internal/middleware"
	"github.com/example/tiffinbox/internal/models"
	"github.com/example/tiffinbox/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.GatewayBaseURL,
		MerchantID:  cfg.GatewayMerchantID,
		SaltKey:     cfg.GatewaySaltKey,
		SaltIndex:   cfg.GatewaySaltIndex,
		CallbackURL: cfg.GatewayCallbackURL,
		RedirectURL: cfg.GatewayRedirectURL,
	})
	reconciler := services.NewReconciler(services.NewGormReconcilerStore(db), telegramService)

	authHandler := handlers.NewAuthHandler(db, cfg)
	restaurantHandler := handlers.NewRestaurantHandler(db)
	menuHandler := handlers.NewMenuHandler(db)
	orderHandler := handlers.NewOrderHandler(db, cfg, telegramService)
	paymentHandler := handlers.NewPaymentHandler(gatewayClient, reconciler, cfg.GatewaySaltKey)
	walletHandler := handlers.NewWalletHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public browse
	restaurants := api.Group("/restaurants")
	restaurants.Get("/", restaurantHandler.ListRestaurants)
	restaurants.Get("/:id", restaurantHandler.GetRestaurant)
	restaurants.Get("/:id/menu", menuHandler.ListMenu)

	// Gateway-facing payment routes: the callback is signed, not
	// JWT-authenticated; the verify endpoint is polled by the tracking page.
	payments := api.Group("/payments")
	payments.Post("/initiate", paymentHandler.Initiate)
	payments.Post("/callback", paymentHandler.Callback)
	payments.Get("/verify", paymentHandler.Verify)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/orders/quote", orderHandler.Quote)
	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Get("/orders/:id/qr", orderHandler.UPIQRCode)
	protected.Patch("/orders/:id/status",
		middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin),
		orderHandler.UpdateStatus)

	// Restaurant operations dashboard
	operator := protected.Group("", middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin))
	operator.Post("/wallet/recharge", walletHandler.RequestRecharge)
	operator.Get("/wallet/transactions", walletHandler.ListTransactions)
	operator.Post("/restaurants/:id/menu", menuHandler.CreateMenuItem)
	operator.Put("/restaurants/:id/menu/:itemId", menuHandler.UpdateMenuItem)
	operator.Delete("/restaurants/:id/menu/:itemId", menuHandler.DeleteMenuItem)
	operator.Get("/restaurants/:id/coupons", menuHandler.ListCoupons)
	operator.Post("/restaurants/:id/coupons", menuHandler.CreateCoupon)
	operator.Put("/restaurants/:id/coupons/:couponId", menuHandler.UpdateCoupon)

	// Super-admin console
	admin := protected.Group("", middleware.RequireRole(models.RoleAdmin))
	admin.Post("/restaurants", restaurantHandler.CreateRestaurant)
	admin.Patch("/restaurants/:id", restaurantHandler.UpdateRestaurant)
}
