package models

const (
	GenderMale   = "male"
	GenderFemale = "female"

	RoleStudent = "student"
	RoleAdmin   = "admin"

	// Зарезервированный логин администратора, его нельзя удалить
	AdminLogin = "admin"
)

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Pib          string `gorm:"not null" json:"pib"`
	Login        string `gorm:"unique;not null" json:"login"`
	Email        string `gorm:"not null" json:"email"`
	Phone        string `gorm:"not null" json:"phone"`
	Password     string `gorm:"not null" json:"-"` // bcrypt hash
	Gender       string `gorm:"default:male" json:"gender"`
	Role         string `gorm:"default:student" json:"role"`
	SessionToken string `gorm:"column:session_token" json:"-"`
	AvatarURL    string `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
}
