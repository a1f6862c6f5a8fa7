package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/apierr"
	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/progress"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type CompletionState int

const (
	NotComplete CompletionState = iota
	Complete
)

func (s CompletionState) String() string {
	if s == Complete {
		return "complete"
	}
	return "not_complete"
}

// Verification holds the outcome of one verification pass: the freshly loaded
// campaign, the recomputed aggregate, and the canonical completion state.
type Verification struct {
	State    CompletionState
	Campaign *types.Campaign
	Result   progress.CampaignResult
}

// VerificationService is the single authority on whether a campaign is truly
// complete. It always re-derives the answer from the campaign's active links
// and their policies; the cached status and progress fields are advisory and
// only consulted to treat a cancelled campaign as terminally not complete.
// Every award and revocation decision routes through Verify.
type VerificationService interface {
	Verify(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (*Verification, error)
}

type verificationService struct {
	log          *logger.Logger
	campaignRepo repos.CampaignRepo
	linkRepo     repos.PolicyCampaignLinkRepo
	policyRepo   repos.PolicyRepo
}

func NewVerificationService(log *logger.Logger, campaignRepo repos.CampaignRepo, linkRepo repos.PolicyCampaignLinkRepo, policyRepo repos.PolicyRepo) VerificationService {
	return &verificationService{
		log:          log.With("service", "VerificationService"),
		campaignRepo: campaignRepo,
		linkRepo:     linkRepo,
		policyRepo:   policyRepo,
	}
}

func (vs *verificationService) Verify(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (*Verification, error) {
	campaign, err := vs.campaignRepo.GetByID(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, apierr.NotFound(fmt.Errorf("campaign %s not found", campaignID))
	}

	links, err := vs.linkRepo.GetActiveByCampaignID(ctx, tx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign links: %w", err)
	}
	policyIDs := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		policyIDs = append(policyIDs, link.PolicyID)
	}
	policies, err := vs.policyRepo.GetByIDs(ctx, tx, policyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked policies: %w", err)
	}

	result := progress.Aggregate(campaign, policies)

	state := NotComplete
	if result.Complete && campaign.Status != types.CampaignStatusCancelled {
		state = Complete
	}

	// Stale cache is expected between writes; it never blocks the decision
	// but it should be visible.
	cachedComplete := campaign.Status == types.CampaignStatusCompleted
	if cachedComplete != (state == Complete) || math.Abs(campaign.ProgressPercentage-result.OverallPercentage) > 0.5 {
		vs.log.Warn("Cached campaign state disagrees with verified state",
			"campaign_id", campaignID,
			"cached_status", campaign.Status,
			"cached_percentage", campaign.ProgressPercentage,
			"verified_state", state.String(),
			"verified_percentage", result.OverallPercentage,
		)
	}

	return &Verification{State: state, Campaign: campaign, Result: result}, nil
}
