// internal/services/vehicle_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ThatQne/drivora-backend/internal/models"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

type VehicleServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	service *VehicleService

	ownerID uuid.UUID
	tradeID uuid.UUID
}

func (s *VehicleServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewVehicleService(s.db)
	s.ownerID = uuid.New()
	s.tradeID = uuid.New()
}

func (s *VehicleServiceSuite) seedVehicle(mutate func(*models.Vehicle)) *models.Vehicle {
	vehicle := &models.Vehicle{
		OwnerID:        s.ownerID,
		Make:           "Toyota",
		Model:          "Corolla",
		Year:           2021,
		EstimatedValue: 11000,
	}
	if mutate != nil {
		mutate(vehicle)
	}
	s.Require().NoError(s.db.Create(vehicle).Error)
	return vehicle
}

func (s *VehicleServiceSuite) reload(id uuid.UUID) *models.Vehicle {
	var vehicle models.Vehicle
	s.Require().NoError(s.db.First(&vehicle, "id = ?", id).Error)
	return &vehicle
}

func (s *VehicleServiceSuite) TestGetVehiclesByIDs() {
	v := s.seedVehicle(nil)

	vehicles, err := s.service.GetVehiclesByIDs(s.db, []uuid.UUID{v.ID})
	s.Require().NoError(err)
	s.Len(vehicles, 1)

	// Duplicated ids resolve to one row, not a missing-vehicle error.
	vehicles, err = s.service.GetVehiclesByIDs(s.db, []uuid.UUID{v.ID, v.ID})
	s.Require().NoError(err)
	s.Len(vehicles, 1)

	_, err = s.service.GetVehiclesByIDs(s.db, []uuid.UUID{v.ID, uuid.New()})
	s.Equal(CodeNotFound, CodeOf(err))

	vehicles, err = s.service.GetVehiclesByIDs(s.db, nil)
	s.NoError(err)
	s.Nil(vehicles)
}

func (s *VehicleServiceSuite) TestListOwnedDefaultsPagination() {
	v := s.seedVehicle(nil)

	// Zero-value params must yield the default page, not an empty LIMIT 0 one.
	vehicles, total, err := s.service.ListOwned(s.ownerID, utils.PaginationParams{})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(vehicles, 1)
	s.Equal(v.ID, vehicles[0].ID)
}

func (s *VehicleServiceSuite) TestLockClaimsAndDelists() {
	listingID := uuid.New()
	v := s.seedVehicle(func(v *models.Vehicle) {
		v.Listed = true
		v.ListingID = &listingID
	})

	s.Require().NoError(s.service.Lock(s.db, []uuid.UUID{v.ID}, s.tradeID))

	locked := s.reload(v.ID)
	s.True(locked.InTrade)
	s.Require().NotNil(locked.ActiveTradeID)
	s.Equal(s.tradeID, *locked.ActiveTradeID)
	s.False(locked.Listed)
	s.Nil(locked.ListingID)
}

func (s *VehicleServiceSuite) TestLockIsIdempotentPerTrade() {
	v := s.seedVehicle(nil)

	s.Require().NoError(s.service.Lock(s.db, []uuid.UUID{v.ID}, s.tradeID))
	s.Require().NoError(s.service.Lock(s.db, []uuid.UUID{v.ID}, s.tradeID))

	err := s.service.Lock(s.db, []uuid.UUID{v.ID}, uuid.New())
	s.Equal(CodeAssetUnavailable, CodeOf(err))
}

func (s *VehicleServiceSuite) TestLockRejectsAuctionedVehicle() {
	v := s.seedVehicle(func(v *models.Vehicle) { v.Auctioned = true })

	err := s.service.Lock(s.db, []uuid.UUID{v.ID}, s.tradeID)
	s.Equal(CodeAssetUnavailable, CodeOf(err))
}

func (s *VehicleServiceSuite) TestLockUnknownVehicle() {
	err := s.service.Lock(s.db, []uuid.UUID{uuid.New()}, s.tradeID)
	s.Equal(CodeNotFound, CodeOf(err))
}

func (s *VehicleServiceSuite) TestUnlockScopedToClaimingTrade() {
	v := s.seedVehicle(nil)
	s.Require().NoError(s.service.Lock(s.db, []uuid.UUID{v.ID}, s.tradeID))

	// A different trade's unlock does not touch the claim.
	s.Require().NoError(s.service.Unlock(s.db, []uuid.UUID{v.ID}, uuid.New()))
	s.True(s.reload(v.ID).InTrade)

	s.Require().NoError(s.service.Unlock(s.db, []uuid.UUID{v.ID}, s.tradeID))
	released := s.reload(v.ID)
	s.False(released.InTrade)
	s.Nil(released.ActiveTradeID)

	// Unlocking an already-free vehicle is a no-op.
	s.NoError(s.service.Unlock(s.db, []uuid.UUID{v.ID}, s.tradeID))
}

func (s *VehicleServiceSuite) TestTransferClearsAllClaims() {
	v := s.seedVehicle(func(v *models.Vehicle) { v.Listed = true })
	s.Require().NoError(s.db.Model(v).Updates(map[string]interface{}{
		"in_trade":        true,
		"active_trade_id": s.tradeID,
	}).Error)

	newOwner := uuid.New()
	s.Require().NoError(s.service.Transfer(s.db, v.ID, newOwner))

	transferred := s.reload(v.ID)
	s.Equal(newOwner, transferred.OwnerID)
	s.False(transferred.InTrade)
	s.Nil(transferred.ActiveTradeID)
	s.False(transferred.Listed)
	s.False(transferred.Auctioned)

	err := s.service.Transfer(s.db, uuid.New(), newOwner)
	s.Equal(CodeNotFound, CodeOf(err))
}

func TestVehicleServiceSuite(t *testing.T) {
	suite.Run(t, new(VehicleServiceSuite))
}
