package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brokerpulse/incentive-backend/internal/requestdata"
	"github.com/brokerpulse/incentive-backend/internal/services"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type PolicyHandler struct {
	policyService services.PolicyService
}

func NewPolicyHandler(policyService services.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

func (ph *PolicyHandler) Register(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		PolicyNumber string          `json:"policy_number"`
		PolicyType   string          `json:"policy_type"`
		ContractType string          `json:"contract_type"`
		PremiumValue decimal.Decimal `json:"premium_value"`
		Description  string          `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	policy := types.Policy{
		AgentID:      rd.AgentID,
		PolicyNumber: req.PolicyNumber,
		PolicyType:   req.PolicyType,
		ContractType: req.ContractType,
		PremiumValue: req.PremiumValue,
		Description:  req.Description,
	}
	created, links, err := ph.policyService.Register(c.Request.Context(), &policy)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"policy": created, "links": links})
}

func (ph *PolicyHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var (
		policies []*types.Policy
		err      error
	)
	if raw := c.Query("since"); raw != "" {
		since, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		policies, err = ph.policyService.ListByAgentSince(c.Request.Context(), rd.AgentID, since)
	} else {
		policies, err = ph.policyService.ListByAgent(c.Request.Context(), rd.AgentID)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"policies": policies})
}

func (ph *PolicyHandler) Link(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		PolicyID   uuid.UUID `json:"policy_id"`
		CampaignID uuid.UUID `json:"campaign_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	link, err := ph.policyService.LinkManually(c.Request.Context(), rd.AgentID, req.PolicyID, req.CampaignID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"link": link})
}

func (ph *PolicyHandler) Unlink(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})
		return
	}
	if err := ph.policyService.Unlink(c.Request.Context(), rd.AgentID, linkID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
