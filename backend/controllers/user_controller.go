package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"diwt-portal/backend/config"
	"diwt-portal/backend/middleware"
	"diwt-portal/backend/models"
	"diwt-portal/backend/utils"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

type UpdateProfileInput struct {
	Pib      string `json:"pib"`
	Login    string `json:"login"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Password string `json:"password"` // пустой — пароль не меняется
}

// GetProfile godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return utils.Success(c, fiber.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Edits profile fields; changing login or password reissues the session token
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateProfileInput true "Profile data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.Pib == "" || input.Login == "" || input.Email == "" {
		return utils.BadRequest(c, "Missing required fields")
	}
	if !utils.ValidPhone(input.Phone) {
		return utils.BadRequest(c, "Phone must match +380XXXXXXXXX")
	}

	loginChanged := input.Login != user.Login
	passwordChanged := input.Password != ""

	if loginChanged {
		// Проверяем, не занят ли логин. Ошибка чтения — это не «логин свободен»
		var existing models.User
		err := uc.DB.Where("login = ?", input.Login).First(&existing).Error
		switch {
		case err == nil:
			if existing.ID != user.ID {
				return utils.BadRequest(c, "Login already taken")
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return utils.StoreUnavailable(c)
		}
	}

	user.Pib = input.Pib
	user.Login = input.Login
	user.Email = input.Email
	user.Phone = input.Phone
	if input.Gender == models.GenderMale || input.Gender == models.GenderFemale {
		user.Gender = input.Gender
	}

	if passwordChanged {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "Could not hash password")
		}
		user.Password = string(hashedPassword)
	}

	// Смена логина или пароля делает старый токен недействительным.
	// Новый возвращается в ответе, чтобы текущее устройство осталось в сессии.
	newToken := ""
	if loginChanged || passwordChanged {
		token, err := utils.GenerateSessionToken(user.ID, uc.Cfg)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "Could not generate token")
		}
		user.SessionToken = token
		newToken = token
	}

	if err := uc.DB.Save(user).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	resp := fiber.Map{"user": user}
	if newToken != "" {
		resp["token"] = newToken
	}
	return utils.Success(c, fiber.StatusOK, resp)
}
