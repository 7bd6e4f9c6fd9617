// internal/handlers/common.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ThatQne/drivora-backend/internal/services"
	"github.com/ThatQne/drivora-backend/internal/utils"
)

// actorID extracts the authenticated caller's id set by the auth middleware.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}

	return userID, true
}

// respondServiceError maps service error codes onto HTTP statuses. Codes are
// passed through so clients can render a specific message.
func respondServiceError(c *gin.Context, err error) {
	code := services.CodeOf(err)
	switch code {
	case services.CodeNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, string(code), err.Error(), nil)
	case services.CodeUnauthorized:
		utils.ErrorResponse(c, http.StatusForbidden, string(code), err.Error(), nil)
	case services.CodeInvalidTransition,
		services.CodeDuplicateTrade,
		services.CodeAssetUnavailable,
		services.CodeConflict:
		utils.ErrorResponse(c, http.StatusConflict, string(code), err.Error(), nil)
	case services.CodeSelfTrade,
		services.CodeForeignAsset,
		services.CodeListingUnavailable:
		utils.ErrorResponse(c, http.StatusBadRequest, string(code), err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
