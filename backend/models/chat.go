package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AdminSenderID — сентинел для сообщений от администрации,
// не совпадает ни с одним реальным id пользователя.
const AdminSenderID = "admin"

type ChatMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	IsSystem  bool   `json:"isSystem,omitempty"`
}

// ChatMessages хранится одной json-колонкой, как в исходной схеме.
type ChatMessages []ChatMessage

func (m ChatMessages) Value() (driver.Value, error) {
	if m == nil {
		m = ChatMessages{}
	}
	return json.Marshal(m)
}

func (m *ChatMessages) Scan(value interface{}) error {
	if value == nil {
		*m = ChatMessages{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported chat messages column type %T", value)
	}
	if len(data) == 0 {
		*m = ChatMessages{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Equal сравнивает списки структурно — по нему поллер решает,
// изменился ли чат с прошлого опроса.
func (m ChatMessages) Equal(other ChatMessages) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// ChatSession — не больше одной активной сессии на пользователя.
type ChatSession struct {
	UserID         string       `gorm:"column:user_id;primaryKey" json:"userId"`
	UserPib        string       `gorm:"column:user_pib" json:"userPib"`
	IsActive       bool         `gorm:"column:is_active;default:true" json:"isActive"`
	Messages       ChatMessages `gorm:"type:json" json:"messages"`
	HasUnreadAdmin bool         `gorm:"column:has_unread_admin" json:"hasUnreadAdmin"`
	HasUnreadUser  bool         `gorm:"column:has_unread_user" json:"hasUnreadUser"`
}

func (ChatSession) TableName() string {
	return "chats"
}

// Локализованные строки чата — единственные две, которые нужны бэкенду.
var chatWelcome = map[string]string{
	"uk": "Добрий день! Чим ми можемо допомогти?",
	"en": "Hello! How can we help you?",
}

func ChatWelcomeText(lang string) string {
	if text, ok := chatWelcome[lang]; ok {
		return text
	}
	return chatWelcome["uk"]
}
