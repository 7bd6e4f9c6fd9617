// internal/services/notification_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ThatQne/drivora-backend/internal/models"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

// NotificationService is the engine's event sink. Every method is
// best-effort: failures are logged and swallowed so they can never roll back
// the trade transition that produced the event.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) NotifyTradeCreated(trade *models.Trade) {
	s.deliver(&models.Notification{
		UserID:  trade.ReceiverID,
		Type:    models.NotificationTradeCreated,
		Title:   "New trade offer",
		Message: "You received a new trade offer on your listing",
		Data:    tradePayload(trade),
	})
}

// NotifyTradeUpdated announces a non-terminal transition to the party that
// did not act.
func (s *NotificationService) NotifyTradeUpdated(trade *models.Trade, actorID uuid.UUID, action models.TradeAction) {
	s.deliver(&models.Notification{
		UserID:  trade.CounterpartyOf(actorID),
		Type:    models.NotificationTradeUpdated,
		Title:   "Trade updated",
		Message: fmt.Sprintf("A trade you are part of was %s", action),
		Data:    tradePayload(trade),
	})
}

func (s *NotificationService) NotifyTradeCompleted(trade *models.Trade) {
	for _, userID := range []uuid.UUID{trade.OffererID, trade.ReceiverID} {
		s.deliver(&models.Notification{
			UserID:  userID,
			Type:    models.NotificationTradeCompleted,
			Title:   "Trade completed",
			Message: "Your trade has been settled and ownership transferred",
			Data:    tradePayload(trade),
		})
	}
}

func (s *NotificationService) deliver(notification *models.Notification) {
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": notification.UserID,
			"type":    notification.Type,
		}).Warn("Failed to deliver notification")
	}
}

func tradePayload(trade *models.Trade) models.JSONB {
	return models.JSONB{
		"trade_id":   trade.ID.String(),
		"listing_id": trade.ListingID.String(),
		"status":     string(trade.Status),
	}
}

func (s *NotificationService) ListForUser(userID uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	allowedSortFields := []string{"created_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) MarkRead(id uuid.UUID, userID uuid.UUID) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("notification")
	}
	return nil
}
