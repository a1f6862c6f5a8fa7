package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brokerpulse/incentive-backend/internal/requestdata"
	"github.com/brokerpulse/incentive-backend/internal/services"
)

type RedemptionHandler struct {
	redemptionService services.RedemptionService
}

func NewRedemptionHandler(redemptionService services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

func (rh *RedemptionHandler) ListAvailable(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	prizes, err := rh.redemptionService.ListAvailable(c.Request.Context(), rd.AgentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"available_prizes": prizes})
}

func (rh *RedemptionHandler) Redeem(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		AwardedPrizeIDs []uuid.UUID `json:"awarded_prize_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	order, err := rh.redemptionService.Redeem(c.Request.Context(), rd.AgentID, req.AwardedPrizeIDs)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"order": order})
}

func (rh *RedemptionHandler) ListOrders(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	orders, err := rh.redemptionService.ListOrders(c.Request.Context(), rd.AgentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"orders": orders})
}
