package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

const campaignLockNamespace = "campaign_prize"

// AwardOutcome reports what an award pass did. Warnings carry misconfigured
// catalog entries that were skipped without failing the award.
type AwardOutcome struct {
	Awarded  []*types.AwardedPrize
	Warnings []string
}

// PrizeLifecycleService materializes prize records when a campaign is
// verified complete and removes still-available ones when re-verification
// shows it no longer is. Both operations re-verify inside a transaction
// holding the per-campaign advisory lock, so racing triggers converge instead
// of double-awarding or prematurely revoking.
type PrizeLifecycleService interface {
	Award(ctx context.Context, campaignID uuid.UUID) (*AwardOutcome, error)
	Revoke(ctx context.Context, campaignID uuid.UUID) (int64, error)
	ListAwarded(ctx context.Context, campaignID uuid.UUID) ([]*types.AwardedPrize, error)
}

type prizeLifecycleService struct {
	txm          repos.TxManager
	log          *logger.Logger
	verification VerificationService
	campaignRepo repos.CampaignRepo
	prizeRepo    repos.PrizeRepo
	awardedRepo  repos.AwardedPrizeRepo
}

func NewPrizeLifecycleService(
	txm repos.TxManager,
	log *logger.Logger,
	verification VerificationService,
	campaignRepo repos.CampaignRepo,
	prizeRepo repos.PrizeRepo,
	awardedRepo repos.AwardedPrizeRepo,
) PrizeLifecycleService {
	return &prizeLifecycleService{
		txm:          txm,
		log:          log.With("service", "PrizeLifecycleService"),
		verification: verification,
		campaignRepo: campaignRepo,
		prizeRepo:    prizeRepo,
		awardedRepo:  awardedRepo,
	}
}

func validateCatalogEntry(prize *types.Prize) error {
	if prize == nil {
		return fmt.Errorf("nil catalog entry")
	}
	if strings.TrimSpace(prize.Name) == "" {
		return fmt.Errorf("prize %s has no name", prize.ID)
	}
	if prize.Value.IsNegative() {
		return fmt.Errorf("prize %s has negative value %s", prize.ID, prize.Value.String())
	}
	return nil
}

func (ps *prizeLifecycleService) Award(ctx context.Context, campaignID uuid.UUID) (*AwardOutcome, error) {
	outcome := &AwardOutcome{}
	err := ps.txm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := ps.txm.AdvisoryXactLock(tx, campaignLockNamespace, campaignID); err != nil {
			return fmt.Errorf("failed to take campaign lock: %w", err)
		}

		verification, err := ps.verification.Verify(ctx, tx, campaignID)
		if err != nil {
			return err
		}
		if verification.State != Complete {
			ps.log.Debug("Award requested for campaign that is not complete, skipping", "campaign_id", campaignID)
			return nil
		}

		// One award pass per campaign: existing rows make this a no-op.
		existingCount, err := ps.awardedRepo.CountByCampaignID(ctx, tx, campaignID)
		if err != nil {
			return fmt.Errorf("failed to check existing awarded prizes: %w", err)
		}
		if existingCount > 0 {
			existing, err := ps.awardedRepo.GetByCampaignID(ctx, tx, campaignID)
			if err != nil {
				return fmt.Errorf("failed to load existing awarded prizes: %w", err)
			}
			outcome.Awarded = existing
			return nil
		}

		catalog, err := ps.prizeRepo.GetByCampaignID(ctx, tx, campaignID)
		if err != nil {
			return fmt.Errorf("failed to load prize catalog: %w", err)
		}

		rows := make([]*types.AwardedPrize, 0, len(catalog))
		for _, prize := range catalog {
			if vErr := validateCatalogEntry(prize); vErr != nil {
				ps.log.Warn("Skipping misconfigured catalog entry", "campaign_id", campaignID, "error", vErr)
				outcome.Warnings = append(outcome.Warnings, vErr.Error())
				continue
			}
			rows = append(rows, &types.AwardedPrize{
				ID:         uuid.New(),
				CampaignID: campaignID,
				PrizeID:    prize.ID,
				AgentID:    verification.Campaign.AgentID,
				Name:       prize.Name,
				Value:      prize.Value,
				Category:   prize.Category,
				Status:     types.PrizeStatusAvailable,
			})
		}

		inserted, err := ps.awardedRepo.Create(ctx, tx, rows)
		if err != nil {
			return fmt.Errorf("failed to create awarded prizes: %w", err)
		}
		if !inserted && len(rows) > 0 {
			// A concurrent award won the race; fetch its rows so both callers
			// see the same end state.
			existing, err := ps.awardedRepo.GetByCampaignID(ctx, tx, campaignID)
			if err != nil {
				return err
			}
			outcome.Awarded = existing
			return nil
		}
		outcome.Awarded = rows

		if verification.Campaign.Status != types.CampaignStatusCompleted {
			if err := ps.campaignRepo.UpdateStatus(ctx, tx, campaignID, types.CampaignStatusCompleted); err != nil {
				return fmt.Errorf("failed to mark campaign completed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(outcome.Awarded) > 0 {
		ps.log.Info("Campaign prizes awarded", "campaign_id", campaignID, "count", len(outcome.Awarded), "warnings", len(outcome.Warnings))
	}
	return outcome, nil
}

func (ps *prizeLifecycleService) Revoke(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var revoked int64
	err := ps.txm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := ps.txm.AdvisoryXactLock(tx, campaignLockNamespace, campaignID); err != nil {
			return fmt.Errorf("failed to take campaign lock: %w", err)
		}

		verification, err := ps.verification.Verify(ctx, tx, campaignID)
		if err != nil {
			return err
		}
		if verification.State == Complete {
			return nil
		}

		// Delivered prizes are permanent; only the available pool is removed.
		n, err := ps.awardedRepo.DeleteAvailableByCampaignID(ctx, tx, campaignID)
		if err != nil {
			return fmt.Errorf("failed to revoke awarded prizes: %w", err)
		}
		revoked = n

		if verification.Campaign.Status == types.CampaignStatusCompleted {
			if err := ps.campaignRepo.UpdateStatus(ctx, tx, campaignID, types.CampaignStatusActive); err != nil {
				return fmt.Errorf("failed to reopen campaign: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if revoked > 0 {
		ps.log.Info("Campaign prizes revoked", "campaign_id", campaignID, "count", revoked)
	}
	return revoked, nil
}

func (ps *prizeLifecycleService) ListAwarded(ctx context.Context, campaignID uuid.UUID) ([]*types.AwardedPrize, error) {
	return ps.awardedRepo.GetByCampaignID(ctx, nil, campaignID)
}
