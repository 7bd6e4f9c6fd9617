// internal/models/trade.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Trade tracks one negotiation between two fixed parties over one listing.
// The offerer's side of the deal is a package of cash plus vehicles from the
// offerer's garage; the receiver's side is the listed vehicle. Counters
// revise the package: a receiver counter records what they want in the
// receiver columns, an offerer counter restates the offerer columns. The
// columns duplicate what the event log holds; ReplayTerms reconstructs them.
type Trade struct {
	BaseModel
	OffererID  uuid.UUID `json:"offerer_id" gorm:"type:uuid;not null;index:idx_trades_offerer_status"`
	ReceiverID uuid.UUID `json:"receiver_id" gorm:"type:uuid;not null;index:idx_trades_receiver_status"`
	ListingID  uuid.UUID `json:"listing_id" gorm:"type:uuid;not null;index:idx_trades_listing_status"`

	OffererCash        int64     `json:"offerer_cash"`
	OffererVehicleIDs  UUIDSlice `json:"offerer_vehicle_ids" gorm:"type:jsonb"`
	ReceiverCash       int64     `json:"receiver_cash"`
	ReceiverVehicleIDs UUIDSlice `json:"receiver_vehicle_ids" gorm:"type:jsonb"`

	Status          TradeStatus `json:"status" gorm:"type:varchar(20);default:'pending';index:idx_trades_offerer_status;index:idx_trades_receiver_status;index:idx_trades_listing_status"`
	LastCounteredBy *uuid.UUID  `json:"last_countered_by,omitempty" gorm:"type:uuid"`
	Version         int         `json:"-" gorm:"not null;default:1"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`

	Events []TradeEvent `json:"events,omitempty" gorm:"foreignKey:TradeID"`
}

// TradeEvent is one entry of the append-only trade history. Entries carry a
// full snapshot of both sides' terms at the time of the action and are never
// mutated.
type TradeEvent struct {
	BaseModel
	TradeID uuid.UUID   `json:"trade_id" gorm:"type:uuid;not null;index"`
	Seq     int         `json:"seq" gorm:"not null"`
	Action  TradeAction `json:"action" gorm:"type:varchar(20);not null"`
	ActorID uuid.UUID   `json:"actor_id" gorm:"type:uuid;not null"`

	OffererCash        int64     `json:"offerer_cash"`
	OffererVehicleIDs  UUIDSlice `json:"offerer_vehicle_ids" gorm:"type:jsonb"`
	ReceiverCash       int64     `json:"receiver_cash"`
	ReceiverVehicleIDs UUIDSlice `json:"receiver_vehicle_ids" gorm:"type:jsonb"`

	Message string `json:"message,omitempty" gorm:"type:text"`
}

// TradeTerms is a snapshot of both sides' negotiated fields.
type TradeTerms struct {
	OffererCash        int64     `json:"offerer_cash"`
	OffererVehicleIDs  UUIDSlice `json:"offerer_vehicle_ids"`
	ReceiverCash       int64     `json:"receiver_cash"`
	ReceiverVehicleIDs UUIDSlice `json:"receiver_vehicle_ids"`
}

var tradeTransitions = map[TradeStatus][]TradeStatus{
	TradeStatusPending:   {TradeStatusAccepted, TradeStatusRejected, TradeStatusCancelled, TradeStatusCountered},
	TradeStatusCountered: {TradeStatusAccepted, TradeStatusRejected, TradeStatusCancelled, TradeStatusCountered},
	TradeStatusAccepted:  {TradeStatusCompleted, TradeStatusDeclined},
}

// CanTransition reports whether the state machine allows moving from the
// trade's current status to the target status.
func (t *Trade) CanTransition(to TradeStatus) bool {
	for _, allowed := range tradeTransitions[t.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (t *Trade) IsTerminal() bool {
	return len(tradeTransitions[t.Status]) == 0
}

// ActiveTradeStatuses are the statuses under which a trade holds its claim on
// the (offerer, listing) pair and, once accepted, on its vehicles.
var ActiveTradeStatuses = []TradeStatus{TradeStatusPending, TradeStatusCountered, TradeStatusAccepted}

func (t *Trade) IsActive() bool {
	for _, s := range ActiveTradeStatuses {
		if t.Status == s {
			return true
		}
	}
	return false
}

// RoleOf resolves an actor to their fixed role on this trade.
func (t *Trade) RoleOf(actorID uuid.UUID) (PartyRole, bool) {
	switch actorID {
	case t.OffererID:
		return RoleOfferer, true
	case t.ReceiverID:
		return RoleReceiver, true
	default:
		return "", false
	}
}

// CounterpartyOf returns the other party's id.
func (t *Trade) CounterpartyOf(actorID uuid.UUID) uuid.UUID {
	if actorID == t.OffererID {
		return t.ReceiverID
	}
	return t.OffererID
}

// MayRespond enforces turn discipline for accept/reject. From pending only
// the receiver may respond. From countered, whoever countered last must wait
// for the other party; a trade without a recorded counterer accepts a
// response from either party.
func (t *Trade) MayRespond(actorID uuid.UUID) bool {
	if _, ok := t.RoleOf(actorID); !ok {
		return false
	}
	switch t.Status {
	case TradeStatusPending:
		return actorID == t.ReceiverID
	case TradeStatusCountered:
		if t.LastCounteredBy == nil {
			return true
		}
		return *t.LastCounteredBy != actorID
	default:
		return false
	}
}

// CurrentTerms snapshots the trade's negotiated fields.
func (t *Trade) CurrentTerms() TradeTerms {
	return TradeTerms{
		OffererCash:        t.OffererCash,
		OffererVehicleIDs:  t.OffererVehicleIDs,
		ReceiverCash:       t.ReceiverCash,
		ReceiverVehicleIDs: t.ReceiverVehicleIDs,
	}
}

// AgreedCash and AgreedVehicleIDs return the package the offerer gives in
// exchange for the listed vehicle: whichever side's fields hold the most
// recent counter, or the original offer when nobody has countered.
func (t *Trade) AgreedCash() int64 {
	if t.lastCounterByReceiver() {
		return t.ReceiverCash
	}
	return t.OffererCash
}

func (t *Trade) AgreedVehicleIDs() UUIDSlice {
	if t.lastCounterByReceiver() {
		return t.ReceiverVehicleIDs
	}
	return t.OffererVehicleIDs
}

func (t *Trade) lastCounterByReceiver() bool {
	return t.LastCounteredBy != nil && *t.LastCounteredBy == t.ReceiverID
}

// ReplayTerms reconstructs the current terms as a pure fold over the ordered
// event log. Events are full snapshots, so the fold applies each in turn;
// the result must always match the trade's duplicated columns.
func ReplayTerms(events []TradeEvent) TradeTerms {
	var terms TradeTerms
	for _, e := range events {
		terms = TradeTerms{
			OffererCash:        e.OffererCash,
			OffererVehicleIDs:  e.OffererVehicleIDs,
			ReceiverCash:       e.ReceiverCash,
			ReceiverVehicleIDs: e.ReceiverVehicleIDs,
		}
	}
	return terms
}
