package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"diwt-portal/backend/config"
	"diwt-portal/backend/middleware"
	"diwt-portal/backend/models"
	"diwt-portal/backend/utils"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type RegisterInput struct {
	Pib      string `json:"pib"`
	Login    string `json:"login"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

// [+] Register godoc
// @Summary Register a new student
// @Description Creates a student account; the user must log in afterwards
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterInput true "Registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.Pib == "" || input.Login == "" || input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "Missing required fields")
	}

	// Валидация до каких-либо записей в базу
	if !utils.ValidPhone(input.Phone) {
		return utils.BadRequest(c, "Phone must match +380XXXXXXXXX")
	}

	var count int64
	if err := ac.DB.Model(&models.User{}).Where("login = ?", input.Login).Count(&count).Error; err != nil {
		return utils.StoreUnavailable(c)
	}
	if count > 0 {
		return utils.BadRequest(c, "Login already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Could not hash password")
	}

	gender := input.Gender
	if gender != models.GenderFemale {
		gender = models.GenderMale
	}

	user := models.User{
		ID:       uuid.NewString(),
		Pib:      input.Pib,
		Login:    input.Login,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashedPassword),
		Gender:   gender,
		Role:     models.RoleStudent,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Created(c, fiber.Map{
		"id":    user.ID,
		"pib":   user.Pib,
		"login": user.Login,
		"email": user.Email,
	})
}

type LoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// [+] Login godoc
// @Summary User login
// @Description Authenticates credentials and issues a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	// Неизвестный логин и неверный пароль не различаются для клиента
	var user models.User
	if err := ac.DB.Where("login = ?", input.Login).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.StoreUnavailable(c)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	token, err := utils.GenerateSessionToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Could not generate token")
	}

	// Новый токен вытесняет предыдущий: старые устройства разлогиниваются
	if err := ac.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("session_token", token).Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token":    token,
		"remember": input.Remember,
		"user":     user,
	})
}

// Me godoc
// @Summary Restore session
// @Description Returns the user owning the presented session token
// @Tags auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return utils.Success(c, fiber.StatusOK, user)
}

// Logout godoc
// @Summary Log out
// @Description Clears the stored session token
// @Tags auth
// @Produce json
// @Success 204
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if err := ac.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Update("session_token", "").Error; err != nil {
		return utils.StoreUnavailable(c)
	}

	return utils.NoContent(c)
}
