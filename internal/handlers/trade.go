// internal/handlers/trade.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThatQne/drivora-backend/internal/models"
	"github.com/ThatQne/drivora-backend/internal/services"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

type TradeHandler struct {
	tradeService *services.TradeService
}

func NewTradeHandler(tradeService *services.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// POST /trades
func (h *TradeHandler) CreateTrade(c *gin.Context) {
	offererID, ok := actorID(c)
	if !ok {
		return
	}

	var req services.CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	trade, err := h.tradeService.CreateTrade(offererID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"trade": trade})
}

// POST /trades/:id/counter
func (h *TradeHandler) CounterTrade(c *gin.Context) {
	tradeID, userID, ok := tradeActor(c)
	if !ok {
		return
	}

	var req services.CounterTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	trade, err := h.tradeService.CounterTrade(tradeID, userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"trade": trade})
}

// POST /trades/:id/accept
func (h *TradeHandler) AcceptTrade(c *gin.Context) {
	h.transition(c, h.tradeService.AcceptTrade)
}

// POST /trades/:id/reject
func (h *TradeHandler) RejectTrade(c *gin.Context) {
	h.transition(c, h.tradeService.RejectTrade)
}

// POST /trades/:id/cancel
func (h *TradeHandler) CancelTrade(c *gin.Context) {
	h.transition(c, h.tradeService.CancelTrade)
}

// POST /trades/:id/complete
func (h *TradeHandler) CompleteTrade(c *gin.Context) {
	h.transition(c, h.tradeService.CompleteTrade)
}

// POST /trades/:id/decline
func (h *TradeHandler) DeclineTrade(c *gin.Context) {
	h.transition(c, h.tradeService.DeclineTrade)
}

func (h *TradeHandler) transition(c *gin.Context, op func(uuid.UUID, uuid.UUID) (*models.Trade, error)) {
	tradeID, userID, ok := tradeActor(c)
	if !ok {
		return
	}

	trade, err := op(tradeID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"trade": trade})
}

// GET /trades/:id
func (h *TradeHandler) GetTrade(c *gin.Context) {
	tradeID, userID, ok := tradeActor(c)
	if !ok {
		return
	}

	trade, err := h.tradeService.GetTrade(tradeID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"trade": trade})
}

// GET /trades
func (h *TradeHandler) GetMyTrades(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	params := services.TradeSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		Direction:        c.DefaultQuery("direction", "all"),
	}
	if status := c.Query("status"); status != "" {
		tradeStatus := models.TradeStatus(status)
		if !tradeStatus.Valid() {
			utils.BadRequestResponse(c, "Invalid trade status", nil)
			return
		}
		params.Status = &tradeStatus
	}

	trades, total, err := h.tradeService.SearchTrades(userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(trades, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

func tradeActor(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid trade ID", nil)
		return uuid.Nil, uuid.Nil, false
	}

	userID, ok := actorID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	return tradeID, userID, true
}
