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

type CampaignHandler struct {
	campaignService services.CampaignService
}

func NewCampaignHandler(campaignService services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

type criterionRequest struct {
	PolicyType        string           `json:"policy_type"`
	ContractType      string           `json:"contract_type"`
	TargetType        string           `json:"target_type"`
	TargetValue       decimal.Decimal  `json:"target_value"`
	MinValuePerPolicy *decimal.Decimal `json:"min_value_per_policy"`
}

type prizeRequest struct {
	Name     string          `json:"name"`
	Value    decimal.Decimal `json:"value"`
	Category string          `json:"category"`
}

func (ch *CampaignHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Name        string             `json:"name"`
		Kind        string             `json:"kind"`
		AcceptedAt  *time.Time         `json:"accepted_at"`
		TargetType  string             `json:"target_type"`
		TargetValue decimal.Decimal    `json:"target_value"`
		Criteria    []criterionRequest `json:"criteria"`
		Prizes      []prizeRequest     `json:"prizes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	campaign := types.Campaign{
		AgentID:     rd.AgentID,
		Name:        req.Name,
		Kind:        req.Kind,
		TargetType:  req.TargetType,
		TargetValue: req.TargetValue,
	}
	if req.AcceptedAt != nil {
		campaign.AcceptedAt = *req.AcceptedAt
	}
	for i, cr := range req.Criteria {
		campaign.Criteria = append(campaign.Criteria, types.CampaignCriterion{
			PolicyType:        cr.PolicyType,
			ContractType:      cr.ContractType,
			TargetType:        cr.TargetType,
			TargetValue:       cr.TargetValue,
			MinValuePerPolicy: cr.MinValuePerPolicy,
			OrderIndex:        i,
		})
	}
	prizes := make([]*types.Prize, 0, len(req.Prizes))
	for _, pr := range req.Prizes {
		prizes = append(prizes, &types.Prize{
			Name:     pr.Name,
			Value:    pr.Value,
			Category: pr.Category,
		})
	}

	created, err := ch.campaignService.Create(c.Request.Context(), &campaign, prizes)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": created})
}

func (ch *CampaignHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	campaigns, err := ch.campaignService.ListByAgent(c.Request.Context(), rd.AgentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaigns": campaigns})
}

func (ch *CampaignHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	campaign, result, err := ch.campaignService.GetWithProgress(c.Request.Context(), rd.AgentID, campaignID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"campaign": campaign, "progress": result})
}

func (ch *CampaignHandler) Cancel(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	if err := ch.campaignService.Cancel(c.Request.Context(), rd.AgentID, campaignID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ch *CampaignHandler) Recompute(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	// Ownership gate before the recomputation pass runs.
	if _, _, err := ch.campaignService.GetWithProgress(c.Request.Context(), rd.AgentID, campaignID); err != nil {
		RespondServiceError(c, err)
		return
	}
	result, err := ch.campaignService.Recompute(c.Request.Context(), campaignID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": result})
}
