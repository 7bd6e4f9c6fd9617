// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key in the application rather than in the
// database so the same models work against Postgres and the SQLite test
// driver.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, j)
}

// UUIDSlice stores an ordered set of entity ids as a JSON column.
type UUIDSlice []uuid.UUID

func (s UUIDSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]uuid.UUID{})
	}
	return json.Marshal([]uuid.UUID(s))
}

func (s *UUIDSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, s)
}

func (s UUIDSlice) Contains(id uuid.UUID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Union merges two id sets, preserving order and dropping duplicates.
func (s UUIDSlice) Union(other UUIDSlice) UUIDSlice {
	merged := make(UUIDSlice, 0, len(s)+len(other))
	seen := make(map[uuid.UUID]struct{}, len(s)+len(other))
	for _, set := range []UUIDSlice{s, other} {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}

// Enums
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusCountered TradeStatus = "countered"
	TradeStatusAccepted  TradeStatus = "accepted"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusRejected  TradeStatus = "rejected"
	TradeStatusCancelled TradeStatus = "cancelled"
	TradeStatusDeclined  TradeStatus = "declined"
)

// Valid reports whether the value is one of the known trade statuses.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusPending, TradeStatusCountered, TradeStatusAccepted,
		TradeStatusCompleted, TradeStatusRejected, TradeStatusCancelled,
		TradeStatusDeclined:
		return true
	}
	return false
}

type TradeAction string

const (
	TradeActionCreated   TradeAction = "created"
	TradeActionCountered TradeAction = "countered"
	TradeActionAccepted  TradeAction = "accepted"
	TradeActionRejected  TradeAction = "rejected"
	TradeActionCancelled TradeAction = "cancelled"
	TradeActionCompleted TradeAction = "completed"
	TradeActionDeclined  TradeAction = "declined"
)

// PartyRole identifies which fixed side of a trade an actor is on. Roles are
// established at creation and never swap, even as counters reverse who is
// giving what.
type PartyRole string

const (
	RoleOfferer  PartyRole = "offerer"
	RoleReceiver PartyRole = "receiver"
)

type NotificationType string

const (
	NotificationTradeCreated   NotificationType = "trade_created"
	NotificationTradeUpdated   NotificationType = "trade_updated"
	NotificationTradeCompleted NotificationType = "trade_completed"
)
