package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/config"
	"github.com/example/grillhouse/internal/handlers"
	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/middleware"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/repository"
	"github.com/example/grillhouse/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, rdb redis.Cmdable, cfg *config.Config) {
	var notifier services.OrderNotifier
	if cfg.TelegramBotToken != "" {
		notifier = services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	}

	users := repository.NewUsers(db)
	userCache := services.NewMemoryUserCache(0, cfg.UserCacheTTL)
	codes := services.NewCodeService(services.NewRedisCodeStore(rdb), cfg.OTPTTL, cfg.OTPLockTTL)
	var sender services.CodeSender = services.LogCodeSender{Production: cfg.IsProduction()}
	if cfg.SMS.Enabled {
		sender = services.NewSMSGateway(cfg.SMS)
	}

	loginService := services.NewLoginService(users, codes, sender, userCache, services.TokenConfig{
		Secret:   cfg.JWTSecret,
		UserTTL:  cfg.UserTokenTTL,
		AdminTTL: cfg.AdminTokenTTL,
	})
	userService := services.NewUserService(users, db, userCache)
	orderService := services.NewOrderService(db, cfg.Orders, notifier)
	adminService := services.NewAdminService(db)
	menuService := services.NewMenuService(db, rdb)

	auth := middleware.NewAuthenticator(cfg.JWTSecret, users, userCache)

	authHandler := handlers.NewAuthHandler(loginService, cfg)
	profileHandler := handlers.NewProfileHandler(userService)
	orderHandler := handlers.NewOrderHandler(orderService)
	adminHandler := handlers.NewAdminHandler(adminService, orderService)
	menuHandler := handlers.NewMenuHandler(menuService)
	healthHandler := handlers.NewHealthHandler(db)

	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	api.Get("/health/database", healthHandler.Database)

	// Customer accounts
	customers := api.Group("/users")
	customers.Post("/verify", authHandler.RequestCode)
	customers.Post("/login", authHandler.Login)
	requireUser := auth.RequireUser()
	customers.Get("/", requireUser, profileHandler.GetProfile)
	customers.Patch("/", requireUser, profileHandler.UpdateProfile)
	customers.Delete("/logout", requireUser, authHandler.Logout)
	customers.Get("/orders", requireUser, profileHandler.ListOrders)

	// Checkout
	orders := api.Group("/orders")
	orders.Post("/", requireUser, orderHandler.CreateOrder)
	orders.Post("/guest", orderHandler.CreateGuestOrder)

	// Menu
	api.Get("/menu", menuHandler.ListCategories)
	api.Get("/menu/:id", menuHandler.GetProduct)

	// Back office
	admin := api.Group("/admin")
	admin.Post("/login", authHandler.AdminLogin)

	requireAdmin := auth.RequireAdmin()
	adminRole := middleware.RequireRole(models.RoleAdmin)
	admin.Post("/verify", requireAdmin, adminRole, authHandler.AdminVerify)
	admin.Delete("/logout", requireAdmin, adminRole, authHandler.AdminLogout)
	admin.Get("/dashboard", requireAdmin, adminRole, adminHandler.Dashboard)
	admin.Get("/orders", requireAdmin, adminRole, adminHandler.ListOrders)
	admin.Get("/orders/:id", requireAdmin, adminRole, adminHandler.GetOrder)
	admin.Patch("/orders/:id", requireAdmin, adminRole, adminHandler.UpdateOrder)
}
