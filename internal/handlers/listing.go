// internal/handlers/listing.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThatQne/drivora-backend/internal/services"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

type ListingHandler struct {
	listingService *services.ListingService
}

func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
	}
}

// GET /listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	params := services.ListingSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if sellerIDStr := c.Query("seller_id"); sellerIDStr != "" {
		if sellerID, err := uuid.Parse(sellerIDStr); err == nil {
			params.SellerID = &sellerID
		}
	}
	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		if maxPrice, err := strconv.ParseInt(maxPriceStr, 10, 64); err == nil {
			params.MaxPrice = &maxPrice
		}
	}

	listings, total, err := h.listingService.Search(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(listings, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	listing, err := h.listingService.GetListing(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing": listing})
}

// POST /listings/:id/relist
func (h *ListingHandler) RelistListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	userID, ok := actorID(c)
	if !ok {
		return
	}

	listing, err := h.listingService.Relist(id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing": listing})
}
