// internal/services/notification_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/leaselink/leaselink-backend/internal/models"
)

// NotificationService writes into the per-user inbox. Writes are fire and
// forget from the caller's perspective: a failed write is logged, never
// surfaced, so a notification hiccup cannot fail a business operation.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) Notify(userID uuid.UUID, title, message, link string) {
	notification := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Link:    link,
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
		}).Error("Failed to write notification")
	}
}

// NotifyAll writes the same notification to several users.
func (s *NotificationService) NotifyAll(userIDs []uuid.UUID, title, message, link string) {
	for _, id := range userIDs {
		s.Notify(id, title, message, link)
	}
}

func (s *NotificationService) List(userID uuid.UUID) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	var unread int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return notifications, unread, nil
}

func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error; err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
