package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"diwt-portal/backend/config"
	"diwt-portal/backend/models"
	"diwt-portal/backend/utils"
)

type AdminController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAdminController(db *gorm.DB, cfg *config.Config) *AdminController {
	return &AdminController{DB: db, Cfg: cfg}
}

// ListUsers godoc
// @Summary List all users
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (adc *AdminController) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := adc.DB.Order("login").Find(&users).Error; err != nil {
		return utils.StoreUnavailable(c)
	}
	return utils.Success(c, fiber.StatusOK, users)
}

type AdminUpdateUserInput struct {
	Pib      string `json:"pib"`
	Login    string `json:"login"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Role     string `json:"role"`
	Password string `json:"password"` // пустой — пароль не меняется
}

// UpdateUser godoc
// @Summary Edit a user
// @Description Changing login or password clears the session token, forcing re-login
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param input body AdminUpdateUserInput true "User data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users/{id} [put]
func (adc *AdminController) UpdateUser(c *fiber.Ctx) error {
	var input AdminUpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := adc.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.StoreUnavailable(c)
	}

	if input.Phone != "" && !utils.ValidPhone(input.Phone) {
		return utils.BadRequest(c, "Phone must match +380XXXXXXXXX")
	}

	loginChanged := input.Login != "" && input.Login != user.Login
	passwordChanged := input.Password != ""

	if loginChanged {
		var existing models.User
		err := adc.DB.Where("login = ?", input.Login).First(&existing).Error
		switch {
		case err == nil:
			if existing.ID != user.ID {
				return utils.BadRequest(c, "Login already taken")
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return utils.StoreUnavailable(c)
		}
		user.Login = input.Login
	}
	if input.Pib != "" {
		user.Pib = input.Pib
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Gender == models.GenderMale || input.Gender == models.GenderFemale {
		user.Gender = input.Gender
	}
	if input.Role == models.RoleStudent || input.Role == models.RoleAdmin {
		user.Role = input.Role
	}

	if passwordChanged {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "Could not hash password")
		}
		user.Password = string(hashedPassword)
	}

	// Правка логина или пароля администратором просто сбрасывает токен:
	// пользователь заново входит на всех устройствах
	if loginChanged || passwordChanged {
		user.SessionToken = ""
	}

	if err := adc.DB.Save(&user).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Success(c, fiber.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description The reserved admin account cannot be deleted
// @Tags admin
// @Produce json
// @Param id path string true "User id"
// @Success 204
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users/{id} [delete]
func (adc *AdminController) DeleteUser(c *fiber.Ctx) error {
	var user models.User
	if err := adc.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.StoreUnavailable(c)
	}

	if user.Login == models.AdminLogin {
		return utils.BadRequest(c, "The admin account cannot be deleted")
	}

	if err := adc.DB.Delete(&user).Error; err != nil {
		return utils.StoreUnavailable(c)
	}
	return utils.NoContent(c)
}

// Overview godoc
// @Summary Admin dashboard counters
// @Description User count, pending certificate requests and unread chats
// @Tags admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/overview [get]
func (adc *AdminController) Overview(c *fiber.Ctx) error {
	var userCount, newCerts, unreadChats int64

	if err := adc.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return utils.StoreUnavailable(c)
	}
	if err := adc.DB.Model(&models.CertificateRequest{}).
		Where("status = ?", models.CertificateStatusNew).
		Count(&newCerts).Error; err != nil {
		return utils.StoreUnavailable(c)
	}
	if err := adc.DB.Model(&models.ChatSession{}).
		Where("has_unread_admin = ?", true).
		Count(&unreadChats).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"users":            userCount,
		"new_certificates": newCerts,
		"unread_chats":     unreadChats,
	})
}
