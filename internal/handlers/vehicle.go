// internal/handlers/vehicle.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThatQne/drivora-backend/internal/services"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
	}
}

// GET /vehicles
func (h *VehicleHandler) GetMyVehicles(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	vehicles, total, err := h.vehicleService.ListOwned(userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(vehicles, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid vehicle ID", nil)
		return
	}

	vehicle, err := h.vehicleService.GetVehicle(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"vehicle": vehicle})
}
