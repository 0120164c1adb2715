package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"diwt-portal/backend/config"
	"diwt-portal/backend/models"
	"diwt-portal/backend/utils"
)

const userContextKey = "currentUser"

// AuthMiddleware проверяет токен из Authorization. Токен действителен,
// только пока он в точности совпадает с session_token в записи
// пользователя: замена или очистка токена разлогинивает старые устройства.
func AuthMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, token, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Unauthorized(c, "Unauthorized")
			}
			return utils.StoreUnavailable(c)
		}

		if user.SessionToken == "" || user.SessionToken != token {
			return utils.Unauthorized(c, "Unauthorized")
		}

		c.Locals(userContextKey, &user)
		return c.Next()
	}
}

// AdminMiddleware пускает дальше только администраторов. Ставится после
// AuthMiddleware.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			return utils.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// CurrentUser возвращает пользователя, прошедшего AuthMiddleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userContextKey).(*models.User)
	return user
}
