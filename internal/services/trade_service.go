// internal/services/trade_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThatQne/drivora-backend/internal/models"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

// TradeService owns the negotiation state machine and orchestrates the asset
// registry and listing directory so cross-entity invariants hold. Every
// mutating operation re-validates preconditions inside one transaction and
// advances the trade row with a version compare-and-swap, so concurrent
// callers racing on the same trade or the same vehicles cannot both win.
type TradeService struct {
	db            *gorm.DB
	vehicles      *VehicleService
	listings      *ListingService
	notifications *NotificationService
}

type CreateTradeRequest struct {
	ListingID  uuid.UUID   `json:"listing_id" validate:"required"`
	ReceiverID uuid.UUID   `json:"receiver_id" validate:"required"`
	Cash       int64       `json:"cash"`
	VehicleIDs []uuid.UUID `json:"vehicle_ids"`
	Message    string      `json:"message,omitempty" validate:"max=500"`
}

type CounterTradeRequest struct {
	Cash       int64       `json:"cash"`
	VehicleIDs []uuid.UUID `json:"vehicle_ids"`
	Message    string      `json:"message,omitempty" validate:"max=500"`
}

type TradeSearchParams struct {
	utils.PaginationParams
	Direction string // all, incoming, outgoing
	Status    *models.TradeStatus
}

func NewTradeService(db *gorm.DB, vehicles *VehicleService, listings *ListingService, notifications *NotificationService) *TradeService {
	return &TradeService{
		db:            db,
		vehicles:      vehicles,
		listings:      listings,
		notifications: notifications,
	}
}

// CreateTrade opens a pending negotiation by the offerer against an active
// listing. Vehicles are validated but not locked here; claims are only taken
// once a trade reaches accepted.
func (s *TradeService) CreateTrade(offererID uuid.UUID, req *CreateTradeRequest) (*models.Trade, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var trade *models.Trade

	err := s.db.Transaction(func(tx *gorm.DB) error {
		listing, err := s.listings.getListing(tx, req.ListingID)
		if err != nil {
			return err
		}
		if !listing.IsActive {
			return errListingUnavailable("listing is no longer active")
		}
		if listing.SellerID == offererID {
			return errSelfTrade()
		}
		if req.ReceiverID != listing.SellerID {
			return errUnauthorized("receiver must be the listing seller")
		}

		// One active negotiation per (offerer, listing) pair.
		var existing int64
		if err := tx.Model(&models.Trade{}).
			Where("offerer_id = ? AND listing_id = ? AND status IN ?",
				offererID, req.ListingID, models.ActiveTradeStatuses).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check existing trades: %w", err)
		}
		if existing > 0 {
			return errDuplicateTrade()
		}

		if err := s.validateOfferedVehicles(tx, req.VehicleIDs, offererID); err != nil {
			return err
		}

		trade = &models.Trade{
			OffererID:         offererID,
			ReceiverID:        req.ReceiverID,
			ListingID:         req.ListingID,
			OffererCash:       req.Cash,
			OffererVehicleIDs: models.UUIDSlice(req.VehicleIDs),
			Status:            models.TradeStatusPending,
		}
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("failed to create trade: %w", err)
		}

		return s.appendEvent(tx, trade, models.TradeActionCreated, offererID, req.Message)
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.NotifyTradeCreated(trade)

	return trade, nil
}

// CounterTrade revises one side's terms. Which garage the named vehicles
// must come from depends on the actor's fixed role, not on who happens to be
// acting: the receiver picks from the offerer's garage (their counter states
// what they want the offerer's contribution to be), while the offerer
// restates their own contribution.
func (s *TradeService) CounterTrade(tradeID uuid.UUID, actorID uuid.UUID, req *CounterTradeRequest) (*models.Trade, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var trade *models.Trade

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		trade, err = s.fetchTrade(tx, tradeID)
		if err != nil {
			return err
		}

		role, ok := trade.RoleOf(actorID)
		if !ok {
			return errUnauthorized("you are not a party to this trade")
		}
		if !trade.CanTransition(models.TradeStatusCountered) {
			return errInvalidTransition(string(trade.Status), string(models.TradeStatusCountered))
		}

		var requiredOwner uuid.UUID
		switch role {
		case models.RoleOfferer:
			requiredOwner = trade.OffererID
		case models.RoleReceiver:
			// Counters select from the other side's garage.
			requiredOwner = trade.OffererID
		}
		if err := s.validateOfferedVehicles(tx, req.VehicleIDs, requiredOwner); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":            models.TradeStatusCountered,
			"last_countered_by": actorID,
		}
		if role == models.RoleOfferer {
			updates["offerer_cash"] = req.Cash
			updates["offerer_vehicle_ids"] = models.UUIDSlice(req.VehicleIDs)
			trade.OffererCash = req.Cash
			trade.OffererVehicleIDs = models.UUIDSlice(req.VehicleIDs)
		} else {
			updates["receiver_cash"] = req.Cash
			updates["receiver_vehicle_ids"] = models.UUIDSlice(req.VehicleIDs)
			trade.ReceiverCash = req.Cash
			trade.ReceiverVehicleIDs = models.UUIDSlice(req.VehicleIDs)
		}
		if err := s.casUpdate(tx, trade, updates); err != nil {
			return err
		}
		trade.Status = models.TradeStatusCountered
		trade.LastCounteredBy = &actorID

		return s.appendEvent(tx, trade, models.TradeActionCountered, actorID, req.Message)
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.NotifyTradeUpdated(trade, actorID, models.TradeActionCountered)

	return trade, nil
}

// AcceptTrade locks in the deal: every vehicle named by either side plus the
// listed vehicle is claimed, listings tied to those vehicles are retired, and
// every rival negotiation on the same listing is cancelled, all in one
// transaction, so two sibling acceptances can never both claim an asset.
func (s *TradeService) AcceptTrade(tradeID uuid.UUID, actorID uuid.UUID) (*models.Trade, error) {
	return s.respond(tradeID, actorID, true)
}

// RejectTrade declines the current offer. Nothing was locked before
// acceptance, so only the trade status changes.
func (s *TradeService) RejectTrade(tradeID uuid.UUID, actorID uuid.UUID) (*models.Trade, error) {
	return s.respond(tradeID, actorID, false)
}

func (s *TradeService) respond(tradeID uuid.UUID, actorID uuid.UUID, accept bool) (*models.Trade, error) {
	target := models.TradeStatusRejected
	action := models.TradeActionRejected
	if accept {
		target = models.TradeStatusAccepted
		action = models.TradeActionAccepted
	}

	var trade *models.Trade
	var cancelledRivals []*models.Trade

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		trade, err = s.fetchTrade(tx, tradeID)
		if err != nil {
			return err
		}

		if _, ok := trade.RoleOf(actorID); !ok {
			return errUnauthorized("you are not a party to this trade")
		}
		if !trade.CanTransition(target) {
			return errInvalidTransition(string(trade.Status), string(target))
		}
		if !trade.MayRespond(actorID) {
			return errUnauthorized("it is not your turn to respond to this trade")
		}

		if accept {
			cancelledRivals, err = s.acceptEffects(tx, trade, actorID)
			if err != nil {
				return err
			}
		}

		if err := s.casUpdate(tx, trade, map[string]interface{}{"status": target}); err != nil {
			return err
		}
		trade.Status = target

		return s.appendEvent(tx, trade, action, actorID, "")
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.NotifyTradeUpdated(trade, actorID, action)
	for _, rival := range cancelledRivals {
		go s.notifications.NotifyTradeUpdated(rival, actorID, models.TradeActionCancelled)
	}

	return trade, nil
}

// acceptEffects performs the lock + deactivate + cancel-rivals sequence
// within the caller's transaction. It returns the cancelled rivals so the
// caller can notify them once the transaction has committed; nothing here
// emits notifications, since the whole sequence may still roll back.
func (s *TradeService) acceptEffects(tx *gorm.DB, trade *models.Trade, actorID uuid.UUID) ([]*models.Trade, error) {
	listing, err := s.listings.getListing(tx, trade.ListingID)
	if err != nil {
		return nil, err
	}

	// Ownership may have shifted since the terms were written; re-check
	// against committed state before taking claims.
	named := trade.OffererVehicleIDs.Union(trade.ReceiverVehicleIDs)
	vehicles, err := s.vehicles.GetVehiclesByIDs(tx, named)
	if err != nil {
		return nil, err
	}
	for i := range vehicles {
		if vehicles[i].OwnerID != trade.OffererID {
			return nil, errForeignAsset(fmt.Sprintf("vehicle %s is no longer owned by the offerer", vehicles[i].ID))
		}
	}
	if listing.Vehicle.OwnerID != trade.ReceiverID {
		return nil, errForeignAsset("listed vehicle is no longer owned by the seller")
	}

	claimed := named.Union(models.UUIDSlice{listing.VehicleID})
	if err := s.vehicles.Lock(tx, claimed, trade.ID); err != nil {
		return nil, err
	}

	if err := s.listings.DeactivateForVehicles(tx, claimed, "claimed by accepted trade"); err != nil {
		return nil, err
	}

	return s.cancelRivals(tx, trade, actorID)
}

// cancelRivals soft-terminates every other pending or countered trade
// competing for the same listing and returns them.
func (s *TradeService) cancelRivals(tx *gorm.DB, trade *models.Trade, actorID uuid.UUID) ([]*models.Trade, error) {
	var rivals []models.Trade
	if err := tx.Where("listing_id = ? AND id != ? AND status IN ?",
		trade.ListingID, trade.ID,
		[]models.TradeStatus{models.TradeStatusPending, models.TradeStatusCountered}).
		Find(&rivals).Error; err != nil {
		return nil, fmt.Errorf("failed to find rival trades: %w", err)
	}

	cancelled := make([]*models.Trade, 0, len(rivals))
	for i := range rivals {
		rival := &rivals[i]
		if err := s.casUpdate(tx, rival, map[string]interface{}{
			"status": models.TradeStatusCancelled,
		}); err != nil {
			return nil, err
		}
		rival.Status = models.TradeStatusCancelled
		if err := s.appendEvent(tx, rival, models.TradeActionCancelled, actorID,
			"listing was accepted into another trade"); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, rival)
	}

	return cancelled, nil
}

// CancelTrade withdraws a negotiation before acceptance. Either party may
// cancel; nothing was locked, so no asset state changes.
func (s *TradeService) CancelTrade(tradeID uuid.UUID, actorID uuid.UUID) (*models.Trade, error) {
	var trade *models.Trade

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		trade, err = s.fetchTrade(tx, tradeID)
		if err != nil {
			return err
		}

		if _, ok := trade.RoleOf(actorID); !ok {
			return errUnauthorized("you are not a party to this trade")
		}
		if !trade.CanTransition(models.TradeStatusCancelled) {
			return errInvalidTransition(string(trade.Status), string(models.TradeStatusCancelled))
		}

		if err := s.casUpdate(tx, trade, map[string]interface{}{"status": models.TradeStatusCancelled}); err != nil {
			return err
		}
		trade.Status = models.TradeStatusCancelled

		return s.appendEvent(tx, trade, models.TradeActionCancelled, actorID, "")
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.NotifyTradeUpdated(trade, actorID, models.TradeActionCancelled)

	return trade, nil
}

// CompleteTrade settles an accepted trade: the agreed package (the most
// recent counter's cash and vehicles) moves from the offerer to the
// receiver, the listed vehicle moves to the offerer, stale claims are
// released, and the listing is marked sold. All of it commits or none of it
// does.
func (s *TradeService) CompleteTrade(tradeID uuid.UUID, actorID uuid.UUID) (*models.Trade, error) {
	var trade *models.Trade

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		trade, err = s.fetchTrade(tx, tradeID)
		if err != nil {
			return err
		}

		if _, ok := trade.RoleOf(actorID); !ok {
			return errUnauthorized("you are not a party to this trade")
		}
		if !trade.CanTransition(models.TradeStatusCompleted) {
			return errInvalidTransition(string(trade.Status), string(models.TradeStatusCompleted))
		}

		listing, err := s.listings.getListing(tx, trade.ListingID)
		if err != nil {
			return err
		}

		packageIDs := trade.AgreedVehicleIDs()
		packageVehicles, err := s.vehicles.GetVehiclesByIDs(tx, packageIDs)
		if err != nil {
			return err
		}

		soldPrice := trade.AgreedCash()
		for i := range packageVehicles {
			soldPrice += packageVehicles[i].TradeValue()
		}

		for _, id := range packageIDs {
			if err := s.vehicles.Transfer(tx, id, trade.ReceiverID); err != nil {
				return err
			}
		}
		if err := s.vehicles.Transfer(tx, listing.VehicleID, trade.OffererID); err != nil {
			return err
		}

		// Vehicles locked at acceptance but absent from the final terms
		// (a superseded side of the negotiation) go back to their owner.
		stale := staleClaims(trade, listing.VehicleID, packageIDs)
		if err := s.vehicles.Unlock(tx, stale, trade.ID); err != nil {
			return err
		}

		if err := s.listings.MarkSold(tx, listing.ID, trade.OffererID, soldPrice); err != nil {
			return err
		}

		now := time.Now()
		if err := s.casUpdate(tx, trade, map[string]interface{}{
			"status":       models.TradeStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return err
		}
		trade.Status = models.TradeStatusCompleted
		trade.CompletedAt = &now

		return s.appendEvent(tx, trade, models.TradeActionCompleted, actorID, "")
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.NotifyTradeCompleted(trade)

	return trade, nil
}

// DeclineTrade backs out of a physically accepted trade. All claims taken at
// acceptance are released without any ownership transfer.
func (s *TradeService) DeclineTrade(tradeID uuid.UUID, actorID uuid.UUID) (*models.Trade, error) {
	var trade *models.Trade

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		trade, err = s.fetchTrade(tx, tradeID)
		if err != nil {
			return err
		}

		if _, ok := trade.RoleOf(actorID); !ok {
			return errUnauthorized("you are not a party to this trade")
		}
		if !trade.CanTransition(models.TradeStatusDeclined) {
			return errInvalidTransition(string(trade.Status), string(models.TradeStatusDeclined))
		}

		listing, err := s.listings.getListing(tx, trade.ListingID)
		if err != nil {
			return err
		}

		claimed := trade.OffererVehicleIDs.
			Union(trade.ReceiverVehicleIDs).
			Union(models.UUIDSlice{listing.VehicleID})
		if err := s.vehicles.Unlock(tx, claimed, trade.ID); err != nil {
			return err
		}

		now := time.Now()
		if err := s.casUpdate(tx, trade, map[string]interface{}{
			"status":       models.TradeStatusDeclined,
			"completed_at": now,
		}); err != nil {
			return err
		}
		trade.Status = models.TradeStatusDeclined
		trade.CompletedAt = &now

		return s.appendEvent(tx, trade, models.TradeActionDeclined, actorID, "")
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.NotifyTradeUpdated(trade, actorID, models.TradeActionDeclined)

	return trade, nil
}

func (s *TradeService) GetTrade(tradeID uuid.UUID, userID uuid.UUID) (*models.Trade, error) {
	var trade models.Trade
	if err := s.db.Preload("Events", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).First(&trade, "id = ?", tradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("trade")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if _, ok := trade.RoleOf(userID); !ok {
		return nil, errUnauthorized("you are not a party to this trade")
	}

	return &trade, nil
}

func (s *TradeService) SearchTrades(userID uuid.UUID, params TradeSearchParams) ([]models.Trade, int64, error) {
	query := s.db.Model(&models.Trade{})

	switch params.Direction {
	case "incoming":
		query = query.Where("receiver_id = ?", userID)
	case "outgoing":
		query = query.Where("offerer_id = ?", userID)
	default:
		query = query.Where("offerer_id = ? OR receiver_id = ?", userID, userID)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var trades []models.Trade
	if err := query.Find(&trades).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch trades: %w", err)
	}

	return trades, total, nil
}

// Internal helpers

func (s *TradeService) fetchTrade(tx *gorm.DB, tradeID uuid.UUID) (*models.Trade, error) {
	var trade models.Trade
	if err := tx.First(&trade, "id = ?", tradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("trade")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &trade, nil
}

// validateOfferedVehicles checks that every named vehicle exists, belongs to
// requiredOwner, and is not up for auction.
func (s *TradeService) validateOfferedVehicles(tx *gorm.DB, ids []uuid.UUID, requiredOwner uuid.UUID) error {
	vehicles, err := s.vehicles.GetVehiclesByIDs(tx, ids)
	if err != nil {
		return err
	}
	for i := range vehicles {
		if vehicles[i].OwnerID != requiredOwner {
			return errForeignAsset(fmt.Sprintf("vehicle %s is not owned by the offering side", vehicles[i].ID))
		}
		if !vehicles[i].AvailableForOffer() {
			return errAssetUnavailable(fmt.Sprintf("vehicle %s is up for auction", vehicles[i].ID))
		}
	}
	return nil
}

// casUpdate advances the trade row only if nobody else has since; a lost
// race surfaces as CONFLICT and the caller's transaction rolls back.
func (s *TradeService) casUpdate(tx *gorm.DB, trade *models.Trade, updates map[string]interface{}) error {
	updates["version"] = trade.Version + 1
	res := tx.Model(&models.Trade{}).
		Where("id = ? AND version = ?", trade.ID, trade.Version).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errConflict("trade was modified concurrently")
	}
	trade.Version++
	return nil
}

// appendEvent records the action with a full snapshot of both sides' terms.
// The log is append-only; nothing ever updates or deletes a row.
func (s *TradeService) appendEvent(tx *gorm.DB, trade *models.Trade, action models.TradeAction, actorID uuid.UUID, message string) error {
	var count int64
	if err := tx.Model(&models.TradeEvent{}).
		Where("trade_id = ?", trade.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count trade events: %w", err)
	}

	event := &models.TradeEvent{
		TradeID:            trade.ID,
		Seq:                int(count) + 1,
		Action:             action,
		ActorID:            actorID,
		OffererCash:        trade.OffererCash,
		OffererVehicleIDs:  trade.OffererVehicleIDs,
		ReceiverCash:       trade.ReceiverCash,
		ReceiverVehicleIDs: trade.ReceiverVehicleIDs,
		Message:            message,
	}
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to append trade event: %w", err)
	}
	return nil
}

// staleClaims returns vehicles locked at acceptance that the settlement does
// not transfer.
func staleClaims(trade *models.Trade, listedVehicleID uuid.UUID, packageIDs models.UUIDSlice) models.UUIDSlice {
	claimed := trade.OffererVehicleIDs.
		Union(trade.ReceiverVehicleIDs).
		Union(models.UUIDSlice{listedVehicleID})

	var stale models.UUIDSlice
	for _, id := range claimed {
		if id == listedVehicleID || packageIDs.Contains(id) {
			continue
		}
		stale = append(stale, id)
	}
	return stale
}
