// internal/services/vehicle_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThatQne/drivora-backend/internal/models"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

// VehicleService is the asset registry: it owns vehicle records and the
// lock/unlock/transfer primitives the trade engine builds on. Claims are
// taken with conditional updates so two trades racing for the same vehicle
// resolve deterministically inside their transactions.
type VehicleService struct {
	db *gorm.DB
}

func NewVehicleService(db *gorm.DB) *VehicleService {
	return &VehicleService{db: db}
}

func (s *VehicleService) GetVehicle(id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := s.db.First(&vehicle, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("vehicle")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &vehicle, nil
}

// GetVehiclesByIDs loads every named vehicle within tx, failing if any id
// does not resolve.
func (s *VehicleService) GetVehiclesByIDs(tx *gorm.DB, ids []uuid.UUID) ([]models.Vehicle, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var vehicles []models.Vehicle
	if err := tx.Where("id IN ?", ids).Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	if len(vehicles) != len(dedupe(ids)) {
		return nil, errNotFound("vehicle")
	}

	return vehicles, nil
}

func (s *VehicleService) ListOwned(ownerID uuid.UUID, params utils.PaginationParams) ([]models.Vehicle, int64, error) {
	query := s.db.Model(&models.Vehicle{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	allowedSortFields := []string{"created_at", "year", "estimated_value"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var vehicles []models.Vehicle
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	return vehicles, total, nil
}

// Lock claims every named vehicle for tradeID. A vehicle already claimed by
// a different trade, or up for auction, fails the whole lock. Re-locking
// under the same trade is a no-op. Locking clears the listed flag; the
// vehicle leaves the marketplace while claimed.
func (s *VehicleService) Lock(tx *gorm.DB, ids []uuid.UUID, tradeID uuid.UUID) error {
	for _, id := range dedupe(ids) {
		res := tx.Model(&models.Vehicle{}).
			Where("id = ? AND auctioned = ? AND (in_trade = ? OR active_trade_id = ?)",
				id, false, false, tradeID).
			Updates(map[string]interface{}{
				"in_trade":        true,
				"active_trade_id": tradeID,
				"listed":          false,
				"listing_id":      nil,
				"version":         gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to lock vehicle %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			var vehicle models.Vehicle
			if err := tx.First(&vehicle, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errNotFound("vehicle")
				}
				return fmt.Errorf("failed to fetch vehicle %s: %w", id, err)
			}
			if vehicle.Auctioned {
				return errAssetUnavailable(fmt.Sprintf("vehicle %s is up for auction", id))
			}
			return errAssetUnavailable(fmt.Sprintf("vehicle %s is already claimed by another trade", id))
		}
	}
	return nil
}

// Unlock releases the claim tradeID holds on the named vehicles. Vehicles
// not claimed, or claimed by a different trade, are left untouched, which
// makes the call idempotent.
func (s *VehicleService) Unlock(tx *gorm.DB, ids []uuid.UUID, tradeID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	err := tx.Model(&models.Vehicle{}).
		Where("id IN ? AND active_trade_id = ?", dedupe(ids), tradeID).
		Updates(map[string]interface{}{
			"in_trade":        false,
			"active_trade_id": nil,
			"version":         gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to unlock vehicles: %w", err)
	}
	return nil
}

// Transfer hands ownership to newOwnerID and clears the listing, auction and
// lock flags in the same update, so a transferred vehicle re-enters
// circulation fully unclaimed.
func (s *VehicleService) Transfer(tx *gorm.DB, id uuid.UUID, newOwnerID uuid.UUID) error {
	res := tx.Model(&models.Vehicle{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"owner_id":        newOwnerID,
			"in_trade":        false,
			"active_trade_id": nil,
			"listed":          false,
			"listing_id":      nil,
			"auctioned":       false,
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to transfer vehicle %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("vehicle")
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
