package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/apierr"
	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

// recomputeParallelism bounds the fan-out when one policy write touches many
// campaigns.
const recomputeParallelism = 4

type PolicyService interface {
	Register(ctx context.Context, policy *types.Policy) (*types.Policy, []*types.PolicyCampaignLink, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*types.Policy, error)
	ListByAgentSince(ctx context.Context, agentID uuid.UUID, since time.Time) ([]*types.Policy, error)
	LinkManually(ctx context.Context, agentID, policyID, campaignID uuid.UUID) (*types.PolicyCampaignLink, error)
	Unlink(ctx context.Context, agentID, linkID uuid.UUID) error
}

type policyService struct {
	txm          repos.TxManager
	log          *logger.Logger
	policyRepo   repos.PolicyRepo
	campaignRepo repos.CampaignRepo
	linkRepo     repos.PolicyCampaignLinkRepo
	classifier   ClassifierService
	campaigns    CampaignService
}

func NewPolicyService(
	txm repos.TxManager,
	log *logger.Logger,
	policyRepo repos.PolicyRepo,
	campaignRepo repos.CampaignRepo,
	linkRepo repos.PolicyCampaignLinkRepo,
	classifier ClassifierService,
	campaigns CampaignService,
) PolicyService {
	return &policyService{
		txm:          txm,
		log:          log.With("service", "PolicyService"),
		policyRepo:   policyRepo,
		campaignRepo: campaignRepo,
		linkRepo:     linkRepo,
		classifier:   classifier,
		campaigns:    campaigns,
	}
}

func validatePolicy(policy *types.Policy) error {
	if policy == nil {
		return fmt.Errorf("policy required")
	}
	if policy.AgentID == uuid.Nil {
		return fmt.Errorf("policy needs an owner")
	}
	if strings.TrimSpace(policy.PolicyType) == "" {
		return fmt.Errorf("policy_type required")
	}
	if strings.TrimSpace(policy.ContractType) == "" {
		return fmt.Errorf("contract_type required")
	}
	if policy.PremiumValue.IsNegative() {
		return fmt.Errorf("premium_value cannot be negative")
	}
	return nil
}

// Register persists a new policy, links it to every compatible active
// campaign of its agent, and fires the recomputation pass for each affected
// campaign. The policy commit happens first so recomputations observe its
// committed state.
func (ps *policyService) Register(ctx context.Context, policy *types.Policy) (*types.Policy, []*types.PolicyCampaignLink, error) {
	if err := validatePolicy(policy); err != nil {
		return nil, nil, err
	}
	policy.ID = uuid.New()
	if _, err := ps.policyRepo.Create(ctx, nil, []*types.Policy{policy}); err != nil {
		return nil, nil, fmt.Errorf("failed to create policy: %w", err)
	}

	candidates, err := ps.campaignRepo.GetActiveByAgentID(ctx, nil, policy.AgentID)
	if err != nil {
		return policy, nil, fmt.Errorf("failed to load active campaigns: %w", err)
	}
	eligible := make([]*types.Campaign, 0, len(candidates))
	for _, campaign := range candidates {
		if policy.CreatedAt.Before(campaign.AcceptedAt) {
			continue
		}
		eligible = append(eligible, campaign)
	}
	if len(eligible) == 0 {
		return policy, nil, nil
	}

	verdicts := ps.classifier.Classify(ctx, policy, eligible)

	var links []*types.PolicyCampaignLink
	affected := make([]uuid.UUID, 0, len(verdicts))
	err = ps.txm.Transaction(ctx, func(tx *gorm.DB) error {
		for _, verdict := range verdicts {
			if !verdict.Compatible {
				continue
			}
			exists, err := ps.linkRepo.ActiveExists(ctx, tx, policy.ID, verdict.CampaignID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			confidence := verdict.Confidence
			links = append(links, &types.PolicyCampaignLink{
				ID:           uuid.New(),
				PolicyID:     policy.ID,
				CampaignID:   verdict.CampaignID,
				Active:       true,
				Automatic:    true,
				AIConfidence: &confidence,
				AIReasoning:  verdict.Reasoning,
			})
			affected = append(affected, verdict.CampaignID)
		}
		if _, err := ps.linkRepo.Create(ctx, tx, links); err != nil {
			return fmt.Errorf("failed to create policy links: %w", err)
		}
		return nil
	})
	if err != nil {
		return policy, nil, err
	}

	ps.recomputeAll(ctx, affected)
	return policy, links, nil
}

// recomputeAll fans the recomputation pass out over the affected campaigns.
// Failures are logged, not returned: the policy write is already committed
// and a failed recomputation self-heals on the next trigger.
func (ps *policyService) recomputeAll(ctx context.Context, campaignIDs []uuid.UUID) {
	if len(campaignIDs) == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeParallelism)
	for _, campaignID := range campaignIDs {
		id := campaignID
		g.Go(func() error {
			if _, err := ps.campaigns.Recompute(gctx, id); err != nil {
				ps.log.Warn("Campaign recomputation failed", "campaign_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (ps *policyService) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*types.Policy, error) {
	return ps.policyRepo.GetByAgentID(ctx, nil, agentID)
}

func (ps *policyService) ListByAgentSince(ctx context.Context, agentID uuid.UUID, since time.Time) ([]*types.Policy, error) {
	return ps.policyRepo.GetByAgentIDSince(ctx, nil, agentID, since)
}

func (ps *policyService) LinkManually(ctx context.Context, agentID, policyID, campaignID uuid.UUID) (*types.PolicyCampaignLink, error) {
	policies, err := ps.policyRepo.GetByIDs(ctx, nil, []uuid.UUID{policyID})
	if err != nil {
		return nil, err
	}
	if len(policies) == 0 || policies[0].AgentID != agentID {
		return nil, apierr.NotFound(fmt.Errorf("policy %s not found", policyID))
	}
	campaign, err := ps.campaignRepo.GetByID(ctx, nil, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil || campaign.AgentID != agentID {
		return nil, apierr.NotFound(fmt.Errorf("campaign %s not found", campaignID))
	}

	exists, err := ps.linkRepo.ActiveExists(ctx, nil, policyID, campaignID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierr.InvalidSelection(fmt.Errorf("policy already linked to campaign"))
	}

	link := &types.PolicyCampaignLink{
		ID:         uuid.New(),
		PolicyID:   policyID,
		CampaignID: campaignID,
		Active:     true,
		Automatic:  false,
	}
	if _, err := ps.linkRepo.Create(ctx, nil, []*types.PolicyCampaignLink{link}); err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	ps.recomputeAll(ctx, []uuid.UUID{campaignID})
	return link, nil
}

func (ps *policyService) Unlink(ctx context.Context, agentID, linkID uuid.UUID) error {
	link, err := ps.linkRepo.GetByID(ctx, nil, linkID)
	if err != nil {
		return err
	}
	if link == nil {
		return apierr.NotFound(fmt.Errorf("link %s not found", linkID))
	}
	campaign, err := ps.campaignRepo.GetByID(ctx, nil, link.CampaignID)
	if err != nil {
		return err
	}
	if campaign == nil || campaign.AgentID != agentID {
		return apierr.NotFound(fmt.Errorf("link %s not found", linkID))
	}

	if err := ps.linkRepo.Deactivate(ctx, nil, linkID); err != nil {
		return fmt.Errorf("failed to unlink policy: %w", err)
	}

	// The unlink may invalidate a completion; the pass revokes what has not
	// been delivered yet.
	ps.recomputeAll(ctx, []uuid.UUID{link.CampaignID})
	return nil
}
