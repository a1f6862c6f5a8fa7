package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brokerpulse/incentive-backend/internal/requestdata"
	"github.com/brokerpulse/incentive-backend/internal/services"
)

type PrizeHandler struct {
	campaignService services.CampaignService
	prizeLifecycle  services.PrizeLifecycleService
}

func NewPrizeHandler(campaignService services.CampaignService, prizeLifecycle services.PrizeLifecycleService) *PrizeHandler {
	return &PrizeHandler{campaignService: campaignService, prizeLifecycle: prizeLifecycle}
}

func (ph *PrizeHandler) campaignID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return uuid.Nil, false
	}
	// Ownership gate: the lifecycle services operate on any campaign id.
	if _, _, err := ph.campaignService.GetWithProgress(c.Request.Context(), rd.AgentID, campaignID); err != nil {
		RespondServiceError(c, err)
		return uuid.Nil, false
	}
	return campaignID, true
}

func (ph *PrizeHandler) ListAwarded(c *gin.Context) {
	campaignID, ok := ph.campaignID(c)
	if !ok {
		return
	}
	prizes, err := ph.prizeLifecycle.ListAwarded(c.Request.Context(), campaignID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"awarded_prizes": prizes})
}

func (ph *PrizeHandler) Award(c *gin.Context) {
	campaignID, ok := ph.campaignID(c)
	if !ok {
		return
	}
	outcome, err := ph.prizeLifecycle.Award(c.Request.Context(), campaignID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"awarded_prizes": outcome.Awarded, "warnings": outcome.Warnings})
}

func (ph *PrizeHandler) Revoke(c *gin.Context) {
	campaignID, ok := ph.campaignID(c)
	if !ok {
		return
	}
	revoked, err := ph.prizeLifecycle.Revoke(c.Request.Context(), campaignID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"revoked": revoked})
}
