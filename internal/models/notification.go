// internal/models/notification.go
package models

import (
	"github.com/google/uuid"
)

// Notification is the persisted output of the trade event sink. Delivery to
// clients is a separate concern; rows here are best-effort and a failed write
// never rolls back the trade transition that produced it.
type Notification struct {
	BaseModel
	UserID  uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Type    NotificationType `json:"type" gorm:"type:varchar(30);not null"`
	Title   string           `json:"title" gorm:"type:varchar(200)"`
	Message string           `json:"message" gorm:"type:text"`
	Data    JSONB            `json:"data,omitempty" gorm:"type:jsonb"`
	IsRead  bool             `json:"is_read" gorm:"default:false;index"`
}
