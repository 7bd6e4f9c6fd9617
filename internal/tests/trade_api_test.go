// internal/tests/trade_api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ThatQne/drivora-backend/internal/config"
	"github.com/ThatQne/drivora-backend/internal/database"
	"github.com/ThatQne/drivora-backend/internal/models"
	"github.com/ThatQne/drivora-backend/internal/router"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

type TradeAPITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	offerer       *models.User
	receiver      *models.User
	listedVehicle *models.Vehicle
	listing       *models.Listing
	offerVehicle  *models.Vehicle
}

func (suite *TradeAPITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(database.RunMigrations(db))
	suite.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 1,
		},
	}
	suite.router = router.Initialize(db, cfg)

	suite.offerer = suite.seedUser("alice")
	suite.receiver = suite.seedUser("bob")

	suite.listedVehicle = suite.seedVehicle(suite.receiver.ID, 15000)
	suite.listing = &models.Listing{
		VehicleID: suite.listedVehicle.ID,
		SellerID:  suite.receiver.ID,
		Title:     "Honda Civic",
		Price:     14500,
		IsActive:  true,
	}
	suite.Require().NoError(db.Create(suite.listing).Error)
	suite.Require().NoError(db.Model(suite.listedVehicle).Updates(map[string]interface{}{
		"listed":     true,
		"listing_id": suite.listing.ID,
	}).Error)

	suite.offerVehicle = suite.seedVehicle(suite.offerer.ID, 8000)
}

func (suite *TradeAPITestSuite) seedUser(username string) *models.User {
	user := &models.User{Username: username, DisplayName: username}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TradeAPITestSuite) seedVehicle(ownerID uuid.UUID, value int64) *models.Vehicle {
	vehicle := &models.Vehicle{
		OwnerID:        ownerID,
		Make:           "Honda",
		Model:          "Civic",
		Year:           2019,
		EstimatedValue: value,
	}
	suite.Require().NoError(suite.db.Create(vehicle).Error)
	return vehicle
}

func (suite *TradeAPITestSuite) request(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		suite.Require().NoError(err)
		buf = bytes.NewBuffer(jsonData)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	if user != nil {
		token, err := utils.GenerateJWT(user.ID.String(), user.Username, time.Hour)
		suite.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TradeAPITestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *TradeAPITestSuite) createTrade() uuid.UUID {
	w := suite.request("POST", "/v1/trades", map[string]interface{}{
		"listing_id":  suite.listing.ID,
		"receiver_id": suite.receiver.ID,
		"cash":        500,
		"vehicle_ids": []uuid.UUID{suite.offerVehicle.ID},
	}, suite.offerer)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	response := suite.decode(w)
	suite.Require().True(response["success"].(bool))

	tradeData := response["data"].(map[string]interface{})["trade"].(map[string]interface{})
	tradeID, err := uuid.Parse(tradeData["id"].(string))
	suite.Require().NoError(err)
	return tradeID
}

func (suite *TradeAPITestSuite) TestHealthCheck() {
	w := suite.request("GET", "/health", nil, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *TradeAPITestSuite) TestCreateTradeRequiresAuth() {
	w := suite.request("POST", "/v1/trades", map[string]interface{}{
		"listing_id":  suite.listing.ID,
		"receiver_id": suite.receiver.ID,
	}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TradeAPITestSuite) TestCreateTrade() {
	tradeID := suite.createTrade()

	var trade models.Trade
	suite.Require().NoError(suite.db.First(&trade, "id = ?", tradeID).Error)
	suite.Equal(models.TradeStatusPending, trade.Status)
	suite.Equal(suite.offerer.ID, trade.OffererID)
}

func (suite *TradeAPITestSuite) TestCreateTradeValidation() {
	w := suite.request("POST", "/v1/trades", map[string]interface{}{
		"cash": 500,
	}, suite.offerer)
	suite.Equal(http.StatusBadRequest, w.Code)

	response := suite.decode(w)
	suite.False(response["success"].(bool))
}

func (suite *TradeAPITestSuite) TestAcceptByWrongPartyForbidden() {
	tradeID := suite.createTrade()

	// The offerer cannot respond to their own pending offer.
	w := suite.request("POST", fmt.Sprintf("/v1/trades/%s/accept", tradeID), nil, suite.offerer)
	suite.Equal(http.StatusForbidden, w.Code)

	response := suite.decode(w)
	errorData := response["error"].(map[string]interface{})
	suite.Equal("UNAUTHORIZED", errorData["code"])
}

func (suite *TradeAPITestSuite) TestFullNegotiationOverHTTP() {
	tradeID := suite.createTrade()

	// The seller counters for less cash.
	w := suite.request("POST", fmt.Sprintf("/v1/trades/%s/counter", tradeID), map[string]interface{}{
		"cash":        200,
		"vehicle_ids": []uuid.UUID{suite.offerVehicle.ID},
	}, suite.receiver)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request("POST", fmt.Sprintf("/v1/trades/%s/accept", tradeID), nil, suite.offerer)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request("POST", fmt.Sprintf("/v1/trades/%s/complete", tradeID), nil, suite.receiver)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// Settlement went through: vehicles swapped, listing sold to the offerer.
	var offered models.Vehicle
	suite.Require().NoError(suite.db.First(&offered, "id = ?", suite.offerVehicle.ID).Error)
	suite.Equal(suite.receiver.ID, offered.OwnerID)

	var listed models.Vehicle
	suite.Require().NoError(suite.db.First(&listed, "id = ?", suite.listedVehicle.ID).Error)
	suite.Equal(suite.offerer.ID, listed.OwnerID)

	var listing models.Listing
	suite.Require().NoError(suite.db.First(&listing, "id = ?", suite.listing.ID).Error)
	suite.False(listing.IsActive)
	suite.True(listing.IsSold())

	// Duplicate completion is rejected.
	w = suite.request("POST", fmt.Sprintf("/v1/trades/%s/complete", tradeID), nil, suite.receiver)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *TradeAPITestSuite) TestGetMyTrades() {
	suite.createTrade()

	w := suite.request("GET", "/v1/trades?direction=outgoing", nil, suite.offerer)
	suite.Require().Equal(http.StatusOK, w.Code)

	response := suite.decode(w)
	suite.True(response["success"].(bool))
	suite.Len(response["data"].([]interface{}), 1)

	w = suite.request("GET", "/v1/trades?direction=incoming", nil, suite.offerer)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Empty(suite.decode(w)["data"])

	w = suite.request("GET", "/v1/trades?status=pending", nil, suite.offerer)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(suite.decode(w)["data"].([]interface{}), 1)
}

func (suite *TradeAPITestSuite) TestGetMyTradesRejectsUnknownStatus() {
	w := suite.request("GET", "/v1/trades?status=bogus", nil, suite.offerer)
	suite.Equal(http.StatusBadRequest, w.Code)

	response := suite.decode(w)
	suite.False(response["success"].(bool))
	errorData := response["error"].(map[string]interface{})
	suite.Equal("BAD_REQUEST", errorData["code"])
}

func (suite *TradeAPITestSuite) TestListingsArePublic() {
	w := suite.request("GET", "/v1/listings", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	response := suite.decode(w)
	suite.True(response["success"].(bool))
	suite.Len(response["data"].([]interface{}), 1)
}

func TestTradeAPISuite(t *testing.T) {
	suite.Run(t, new(TradeAPITestSuite))
}
