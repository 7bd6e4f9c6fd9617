// internal/models/listing.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing advertises exactly one vehicle. A listing goes inactive when its
// vehicle is claimed by an accepted trade or sold; it only comes back through
// an explicit relist, never automatically.
type Listing struct {
	BaseModel
	VehicleID uuid.UUID `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	SellerID  uuid.UUID `json:"seller_id" gorm:"type:uuid;not null;index"`

	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Description string `json:"description" gorm:"type:text"`
	Price       int64  `json:"price"`

	IsActive  bool       `json:"is_active" gorm:"default:true;index"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
	SoldTo    *uuid.UUID `json:"sold_to,omitempty" gorm:"type:uuid"`
	SoldPrice *int64     `json:"sold_price,omitempty"`

	// Relationships
	Vehicle Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

func (l *Listing) IsSold() bool {
	return l.SoldAt != nil
}
