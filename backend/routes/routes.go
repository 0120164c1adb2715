package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"diwt-portal/backend/config"
	"diwt-portal/backend/controllers"
	"diwt-portal/backend/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, store controllers.AttachmentStore, rdb *redis.Client) {
	authMiddleware := middleware.AuthMiddleware(db, cfg)
	adminMiddleware := middleware.AdminMiddleware()

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", middleware.LoginRateLimiter(rdb), authController.Login)
	app.Get("/api/auth/me", authMiddleware, authController.Me)
	app.Post("/api/auth/logout", authMiddleware, authController.Logout)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Certificate routes
	certController := controllers.NewCertificateController(db, cfg, store)
	app.Post("/api/certificates", authMiddleware, certController.Create)
	app.Get("/api/certificates", authMiddleware, certController.ListOwn)

	// Chat routes
	chatController := controllers.NewChatController(db, cfg)
	chat := app.Group("/api/chat", authMiddleware)
	chat.Post("/open", chatController.Open)
	chat.Get("/", chatController.Get)
	chat.Post("/messages", chatController.SendMessage)
	chat.Post("/read", chatController.MarkRead)

	// Admin routes
	adminController := controllers.NewAdminController(db, cfg)
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Get("/overview", adminController.Overview)
	admin.Get("/users", adminController.ListUsers)
	admin.Put("/users/:id", adminController.UpdateUser)
	admin.Delete("/users/:id", adminController.DeleteUser)

	admin.Get("/certificates", certController.ListAll)
	admin.Put("/certificates/:id/status", certController.SetStatus)
	admin.Delete("/certificates/:id", certController.Delete)
	admin.Delete("/certificates", certController.DeleteAll)

	admin.Get("/chats", chatController.ListChats)
	admin.Post("/chats/:userId/messages", chatController.Reply)
	admin.Delete("/chats/:userId", chatController.EndChat)
}
