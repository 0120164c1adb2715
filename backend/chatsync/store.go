package chatsync

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"diwt-portal/backend/models"
)

// GormStore адаптирует таблицу чатов под SessionStore.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) ActiveSession(ctx context.Context, userID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) MarkUserRead(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Model(&models.ChatSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("has_unread_user", false).Error
}
