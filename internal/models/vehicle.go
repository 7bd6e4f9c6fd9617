// internal/models/vehicle.go
package models

import (
	"github.com/google/uuid"
)

// Vehicle is an owned asset. The listed / auctioned / in-trade flags are
// mutually exclusive claims on it: a vehicle claimed by a non-terminal trade
// carries the claiming trade's id in ActiveTradeID, and auctioned vehicles
// are never eligible for trade offers.
type Vehicle struct {
	BaseModel
	OwnerID uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`

	Make           string `json:"make" gorm:"type:varchar(100);not null"`
	Model          string `json:"model" gorm:"type:varchar(100);not null"`
	Year           int    `json:"year"`
	Mileage        int    `json:"mileage"`
	EstimatedValue int64  `json:"estimated_value"`
	CustomPrice    *int64 `json:"custom_price,omitempty"`

	Listed    bool       `json:"listed" gorm:"default:false"`
	ListingID *uuid.UUID `json:"listing_id,omitempty" gorm:"type:uuid"`
	Auctioned bool       `json:"auctioned" gorm:"default:false"`

	InTrade       bool       `json:"in_trade" gorm:"default:false;index"`
	ActiveTradeID *uuid.UUID `json:"active_trade_id,omitempty" gorm:"type:uuid"`

	Version int `json:"-" gorm:"not null;default:1"`
}

// TradeValue is the amount a vehicle contributes to a sale price: the
// owner's custom price when set, the estimated value otherwise.
func (v *Vehicle) TradeValue() int64 {
	if v.CustomPrice != nil {
		return *v.CustomPrice
	}
	return v.EstimatedValue
}

// AvailableForOffer reports whether a vehicle may be named in a new offer or
// counter. Vehicles already claimed by a trade stay nameable here; exclusion
// is enforced at acceptance, when claims are taken.
func (v *Vehicle) AvailableForOffer() bool {
	return !v.Auctioned
}
