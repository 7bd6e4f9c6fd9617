// internal/services/listing_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ThatQne/drivora-backend/internal/models"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

// ListingService is the listing directory. The trade engine drives the
// deactivate/mark-sold cascades; relisting is an explicit user action and is
// never triggered by the engine.
type ListingService struct {
	db *gorm.DB
}

type ListingSearchParams struct {
	utils.PaginationParams
	SellerID *uuid.UUID
	MaxPrice *int64
}

func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{db: db}
}

func (s *ListingService) GetListing(id uuid.UUID) (*models.Listing, error) {
	return s.getListing(s.db, id)
}

func (s *ListingService) getListing(tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := tx.Preload("Vehicle").First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("listing")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &listing, nil
}

func (s *ListingService) Search(params ListingSearchParams) ([]models.Listing, int64, error) {
	query := s.db.Model(&models.Listing{}).
		Where("is_active = ?", true).
		Preload("Vehicle")

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}
	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}
	if params.Search != "" {
		query = query.Where("title ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	allowedSortFields := []string{"created_at", "price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var listings []models.Listing
	if err := query.Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch listings: %w", err)
	}

	return listings, total, nil
}

// DeactivateForVehicles retires every active listing tied to the given
// vehicles. Used when a trade acceptance claims them.
func (s *ListingService) DeactivateForVehicles(tx *gorm.DB, vehicleIDs []uuid.UUID, reason string) error {
	if len(vehicleIDs) == 0 {
		return nil
	}

	res := tx.Model(&models.Listing{}).
		Where("vehicle_id IN ? AND is_active = ?", vehicleIDs, true).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate listings: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		logrus.WithFields(logrus.Fields{
			"count":  res.RowsAffected,
			"reason": reason,
		}).Debug("Deactivated listings")
	}
	return nil
}

// MarkSold retires the listing with its sale metadata.
func (s *ListingService) MarkSold(tx *gorm.DB, listingID uuid.UUID, buyerID uuid.UUID, price int64) error {
	now := time.Now()
	res := tx.Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"sold_at":    now,
			"sold_to":    buyerID,
			"sold_price": price,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark listing sold: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("listing")
	}
	return nil
}

// Relist reactivates a retired listing. Only the seller may relist, and only
// while the vehicle is still theirs, unclaimed, and the listing unsold.
func (s *ListingService) Relist(listingID uuid.UUID, sellerID uuid.UUID) (*models.Listing, error) {
	var listing *models.Listing

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		listing, err = s.getListing(tx, listingID)
		if err != nil {
			return err
		}

		if listing.SellerID != sellerID {
			return errUnauthorized("only the seller may relist a listing")
		}
		if listing.IsActive {
			return errListingUnavailable("listing is already active")
		}
		if listing.IsSold() {
			return errListingUnavailable("sold listings cannot be relisted")
		}
		if listing.Vehicle.OwnerID != sellerID {
			return errForeignAsset("you no longer own the listed vehicle")
		}
		if listing.Vehicle.InTrade || listing.Vehicle.Auctioned {
			return errAssetUnavailable("vehicle is claimed by a trade or auction")
		}

		if err := tx.Model(&models.Listing{}).
			Where("id = ?", listingID).
			Update("is_active", true).Error; err != nil {
			return fmt.Errorf("failed to relist: %w", err)
		}

		if err := tx.Model(&models.Vehicle{}).
			Where("id = ?", listing.VehicleID).
			Updates(map[string]interface{}{
				"listed":     true,
				"listing_id": listingID,
				"version":    gorm.Expr("version + 1"),
			}).Error; err != nil {
			return fmt.Errorf("failed to flag vehicle as listed: %w", err)
		}

		listing.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}
