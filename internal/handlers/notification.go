// internal/handlers/notification.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThatQne/drivora-backend/internal/services"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GET /notifications
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationService.ListForUser(userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	userID, ok := actorID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(id, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "notification marked as read"})
}
