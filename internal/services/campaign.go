package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/apierr"
	redisclient "github.com/brokerpulse/incentive-backend/internal/clients/redis"
	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/progress"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type CampaignService interface {
	Create(ctx context.Context, campaign *types.Campaign, prizes []*types.Prize) (*types.Campaign, error)
	GetWithProgress(ctx context.Context, agentID, campaignID uuid.UUID) (*types.Campaign, *progress.CampaignResult, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*types.Campaign, error)
	Cancel(ctx context.Context, agentID, campaignID uuid.UUID) error

	// Recompute is the recomputation pass fired on every policy write: it
	// re-verifies the campaign, rewrites the advisory progress fields, and
	// drives the prize lifecycle from the verified state.
	Recompute(ctx context.Context, campaignID uuid.UUID) (*progress.CampaignResult, error)
}

type campaignService struct {
	txm          repos.TxManager
	log          *logger.Logger
	campaignRepo repos.CampaignRepo
	prizeRepo    repos.PrizeRepo
	verification VerificationService
	prizes       PrizeLifecycleService
	bus          redisclient.ProgressBus
}

func NewCampaignService(
	txm repos.TxManager,
	log *logger.Logger,
	campaignRepo repos.CampaignRepo,
	prizeRepo repos.PrizeRepo,
	verification VerificationService,
	prizes PrizeLifecycleService,
	bus redisclient.ProgressBus,
) CampaignService {
	return &campaignService{
		txm:          txm,
		log:          log.With("service", "CampaignService"),
		campaignRepo: campaignRepo,
		prizeRepo:    prizeRepo,
		verification: verification,
		prizes:       prizes,
		bus:          bus,
	}
}

func validTargetType(t string) bool {
	return t == types.TargetTypeQuantity || t == types.TargetTypeValue
}

// validateCampaign rejects malformed setups before the campaign ever becomes
// active; the engine never has to recover from a bad criterion later.
func validateCampaign(campaign *types.Campaign) error {
	if campaign == nil {
		return apierr.InvalidCriterion(fmt.Errorf("campaign required"))
	}
	if strings.TrimSpace(campaign.Name) == "" {
		return apierr.InvalidCriterion(fmt.Errorf("campaign name required"))
	}
	switch campaign.Kind {
	case types.CampaignKindSimple:
		if !validTargetType(campaign.TargetType) {
			return apierr.InvalidCriterion(fmt.Errorf("simple campaign needs target_type quantity or value"))
		}
		if !campaign.TargetValue.IsPositive() {
			return apierr.InvalidCriterion(fmt.Errorf("simple campaign needs a positive target_value"))
		}
	case types.CampaignKindComposite:
		if len(campaign.Criteria) == 0 {
			return apierr.InvalidCriterion(fmt.Errorf("composite campaign needs at least one criterion"))
		}
		for i := range campaign.Criteria {
			criterion := &campaign.Criteria[i]
			if !validTargetType(criterion.TargetType) {
				return apierr.InvalidCriterion(fmt.Errorf("criterion %d needs target_type quantity or value", i))
			}
			if !criterion.TargetValue.IsPositive() {
				return apierr.InvalidCriterion(fmt.Errorf("criterion %d needs a positive target_value", i))
			}
			if criterion.MinValuePerPolicy != nil && criterion.MinValuePerPolicy.IsNegative() {
				return apierr.InvalidCriterion(fmt.Errorf("criterion %d has a negative min_value_per_policy", i))
			}
		}
	default:
		return apierr.InvalidCriterion(fmt.Errorf("unknown campaign kind %q", campaign.Kind))
	}
	return nil
}

func (cs *campaignService) Create(ctx context.Context, campaign *types.Campaign, prizes []*types.Prize) (*types.Campaign, error) {
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}

	campaign.ID = uuid.New()
	campaign.Status = types.CampaignStatusActive
	if campaign.AcceptedAt.IsZero() {
		campaign.AcceptedAt = time.Now().UTC()
	}
	// Positional ordering is the default; any explicit order_index in the
	// request means the caller manages ordering and it is kept verbatim.
	explicitOrder := false
	for i := range campaign.Criteria {
		if campaign.Criteria[i].OrderIndex != 0 {
			explicitOrder = true
			break
		}
	}
	for i := range campaign.Criteria {
		campaign.Criteria[i].ID = uuid.New()
		campaign.Criteria[i].CampaignID = campaign.ID
		if !explicitOrder {
			campaign.Criteria[i].OrderIndex = i
		}
	}

	err := cs.txm.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := cs.campaignRepo.Create(ctx, tx, []*types.Campaign{campaign}); err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}
		for _, prize := range prizes {
			prize.ID = uuid.New()
			prize.CampaignID = campaign.ID
		}
		if _, err := cs.prizeRepo.Create(ctx, tx, prizes); err != nil {
			return fmt.Errorf("failed to create prize catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("Campaign created", "campaign_id", campaign.ID, "agent_id", campaign.AgentID, "kind", campaign.Kind)
	return campaign, nil
}

func (cs *campaignService) GetWithProgress(ctx context.Context, agentID, campaignID uuid.UUID) (*types.Campaign, *progress.CampaignResult, error) {
	verification, err := cs.verification.Verify(ctx, nil, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if verification.Campaign.AgentID != agentID {
		return nil, nil, apierr.NotFound(fmt.Errorf("campaign %s not found", campaignID))
	}
	return verification.Campaign, &verification.Result, nil
}

func (cs *campaignService) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*types.Campaign, error) {
	return cs.campaignRepo.GetByAgentID(ctx, nil, agentID)
}

func (cs *campaignService) Cancel(ctx context.Context, agentID, campaignID uuid.UUID) error {
	campaign, err := cs.campaignRepo.GetByID(ctx, nil, campaignID)
	if err != nil {
		return err
	}
	if campaign == nil || campaign.AgentID != agentID {
		return apierr.NotFound(fmt.Errorf("campaign %s not found", campaignID))
	}
	if err := cs.campaignRepo.UpdateStatus(ctx, nil, campaignID, types.CampaignStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel campaign: %w", err)
	}
	// A cancelled campaign can no longer be complete; un-redeemed prizes go
	// back through the normal revocation gate.
	if _, err := cs.prizes.Revoke(ctx, campaignID); err != nil {
		return err
	}
	return nil
}

func (cs *campaignService) Recompute(ctx context.Context, campaignID uuid.UUID) (*progress.CampaignResult, error) {
	var verification *Verification
	err := cs.txm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := cs.txm.AdvisoryXactLock(tx, campaignLockNamespace, campaignID); err != nil {
			return fmt.Errorf("failed to take campaign lock: %w", err)
		}
		v, err := cs.verification.Verify(ctx, tx, campaignID)
		if err != nil {
			return err
		}
		verification = v

		// Rewrite the advisory cache from the verified result.
		criteria := progress.CriteriaOf(v.Campaign)
		for i, cr := range v.Result.Criteria {
			if v.Campaign.Kind == types.CampaignKindSimple {
				break
			}
			if i < len(criteria) {
				if err := cs.campaignRepo.UpdateCriterionProgress(ctx, tx, criteria[i].ID, cr.Current, cr.Percentage); err != nil {
					return fmt.Errorf("failed to persist criterion progress: %w", err)
				}
			}
		}
		// Campaign-level current is the sum of the criterion currents. For
		// composites mixing quantity and value criteria the units mix too, so
		// the per-criterion rows carry the real signal.
		overallCurrent := decimal.Zero
		for _, cr := range v.Result.Criteria {
			overallCurrent = overallCurrent.Add(cr.Current)
		}
		if err := cs.campaignRepo.UpdateProgress(ctx, tx, campaignID, overallCurrent, v.Result.OverallPercentage); err != nil {
			return fmt.Errorf("failed to persist campaign progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Award and revoke re-verify under their own lock, so a state change
	// between the two transactions still converges to the verified truth.
	if verification.State == Complete {
		if _, err := cs.prizes.Award(ctx, campaignID); err != nil {
			return nil, err
		}
	} else {
		if _, err := cs.prizes.Revoke(ctx, campaignID); err != nil {
			return nil, err
		}
	}

	cs.publish(ctx, verification)
	return &verification.Result, nil
}

func (cs *campaignService) publish(ctx context.Context, verification *Verification) {
	if cs.bus == nil || verification == nil {
		return
	}
	event := redisclient.ProgressEvent{
		CampaignID:        verification.Campaign.ID,
		AgentID:           verification.Campaign.AgentID,
		OverallPercentage: verification.Result.OverallPercentage,
		Complete:          verification.State == Complete,
		At:                time.Now().UTC(),
	}
	if err := cs.bus.Publish(ctx, event); err != nil {
		cs.log.Warn("Failed to publish progress event", "campaign_id", event.CampaignID, "error", err)
	}
}
