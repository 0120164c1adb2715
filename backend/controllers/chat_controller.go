package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"diwt-portal/backend/config"
	"diwt-portal/backend/middleware"
	"diwt-portal/backend/models"
	"diwt-portal/backend/utils"
)

type ChatController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewChatController(db *gorm.DB, cfg *config.Config) *ChatController {
	return &ChatController{DB: db, Cfg: cfg}
}

// Open godoc
// @Summary Open the support chat
// @Description Adopts the active session or creates one seeded with a welcome message
// @Tags chat
// @Produce json
// @Param lang query string false "Locale for the welcome message (uk|en)" default(uk)
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chat/open [post]
func (chc *ChatController) Open(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var session models.ChatSession
	err := chc.DB.Where("user_id = ? AND is_active = ?", user.ID, true).First(&session).Error
	if err == nil {
		return utils.Success(c, fiber.StatusOK, session)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.StoreUnavailable(c)
	}

	// Первое открытие — сессия начинается с системного приветствия
	session = models.ChatSession{
		UserID:   user.ID,
		UserPib:  user.Pib,
		IsActive: true,
		Messages: models.ChatMessages{{
			ID:        "welcome",
			SenderID:  models.AdminSenderID,
			Text:      models.ChatWelcomeText(c.Query("lang", "uk")),
			Timestamp: time.Now().UnixMilli(),
			IsSystem:  true,
		}},
	}
	if err := chc.DB.Create(&session).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Created(c, session)
}

// Get godoc
// @Summary Get the current chat session
// @Description 404 once the administration has ended the chat
// @Tags chat
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chat [get]
func (chc *ChatController) Get(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var session models.ChatSession
	if err := chc.DB.Where("user_id = ? AND is_active = ?", user.ID, true).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Chat ended")
		}
		return utils.StoreUnavailable(c)
	}

	return utils.Success(c, fiber.StatusOK, session)
}

type SendMessageInput struct {
	Text string `json:"text"`
}

// SendMessage godoc
// @Summary Send a chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param input body SendMessageInput true "Message text"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chat/messages [post]
func (chc *ChatController) SendMessage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Text == "" {
		return utils.BadRequest(c, "Empty message")
	}

	session, err := appendChatMessage(chc.DB, user.ID, models.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  user.ID,
		Text:      input.Text,
		Timestamp: time.Now().UnixMilli(),
	}, true, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Chat ended")
		}
		return utils.StoreUnavailable(c)
	}

	return utils.Success(c, fiber.StatusOK, session)
}

// MarkRead godoc
// @Summary Mark admin replies as read
// @Tags chat
// @Produce json
// @Success 204
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chat/read [post]
func (chc *ChatController) MarkRead(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if err := chc.DB.Model(&models.ChatSession{}).
		Where("user_id = ? AND is_active = ?", user.ID, true).
		Update("has_unread_user", false).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.NoContent(c)
}

// ListChats godoc
// @Summary List all chat sessions
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/chats [get]
func (chc *ChatController) ListChats(c *fiber.Ctx) error {
	var chats []models.ChatSession
	if err := chc.DB.Find(&chats).Error; err != nil {
		return utils.StoreUnavailable(c)
	}
	return utils.Success(c, fiber.StatusOK, chats)
}

// Reply godoc
// @Summary Reply in a user's chat
// @Tags admin
// @Accept json
// @Produce json
// @Param userId path string true "Chat owner id"
// @Param input body SendMessageInput true "Reply text"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/chats/{userId}/messages [post]
func (chc *ChatController) Reply(c *fiber.Ctx) error {
	var input SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Text == "" {
		return utils.BadRequest(c, "Empty message")
	}

	session, err := appendChatMessage(chc.DB, c.Params("userId"), models.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  models.AdminSenderID,
		Text:      input.Text,
		Timestamp: time.Now().UnixMilli(),
	}, false, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Chat not found")
		}
		return utils.StoreUnavailable(c)
	}

	return utils.Success(c, fiber.StatusOK, session)
}

// EndChat godoc
// @Summary End and delete a chat
// @Description Deletes the session row entirely; the user's poller observes the teardown
// @Tags admin
// @Produce json
// @Param userId path string true "Chat owner id"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/chats/{userId} [delete]
func (chc *ChatController) EndChat(c *fiber.Ctx) error {
	res := chc.DB.Where("user_id = ?", c.Params("userId")).Delete(&models.ChatSession{})
	if res.Error != nil {
		return utils.StoreUnavailable(c)
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Chat not found")
	}
	return utils.NoContent(c)
}

// appendChatMessage дописывает сообщение в активную сессию внутри
// транзакции с перечитыванием строки: одновременные отправки студента
// и администратора не затирают друг друга.
func appendChatMessage(db *gorm.DB, userID string, msg models.ChatMessage, unreadAdmin, unreadUser bool) (*models.ChatSession, error) {
	var session models.ChatSession
	err := db.Transaction(func(tx *gorm.DB) error {
		// Блокируем строку до конца транзакции: одновременные отправки
		// студента и администратора дописываются по очереди, а не
		// затирают список сообщений друг друга
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND is_active = ?", userID, true).
			First(&session).Error; err != nil {
			return err
		}

		session.Messages = append(session.Messages, msg)
		session.HasUnreadAdmin = unreadAdmin
		session.HasUnreadUser = unreadUser

		return tx.Model(&models.ChatSession{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"messages":         session.Messages,
				"has_unread_admin": unreadAdmin,
				"has_unread_user":  unreadUser,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}
