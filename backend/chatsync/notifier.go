package chatsync

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"diwt-portal/backend/models"
)

// StartQueueNotifier периодически пересчитывает очереди администратора
// (непрочитанные чаты и новые заявки) и пишет изменения в лог. Тот же
// опрос с фиксированным интервалом, что и у чата.
func StartQueueNotifier(ctx context.Context, db *gorm.DB, logger *log.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()

		var lastCerts, lastChats int64 = -1, -1
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var newCerts, unreadChats int64
				if err := db.WithContext(ctx).Model(&models.CertificateRequest{}).
					Where("status = ?", models.CertificateStatusNew).
					Count(&newCerts).Error; err != nil {
					logger.Printf("queue notifier: certificates count failed: %v", err)
					continue
				}
				if err := db.WithContext(ctx).Model(&models.ChatSession{}).
					Where("has_unread_admin = ?", true).
					Count(&unreadChats).Error; err != nil {
					logger.Printf("queue notifier: chats count failed: %v", err)
					continue
				}

				if newCerts != lastCerts || unreadChats != lastChats {
					logger.Printf("admin queue: %d new certificate requests, %d unread chats", newCerts, unreadChats)
					lastCerts, lastChats = newCerts, unreadChats
				}
			}
		}
	}()
}
