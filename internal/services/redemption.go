package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/apierr"
	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

const redemptionLockNamespace = "agent_redemption"

// RedemptionService converts available awarded prizes into a redemption
// order. Order creation and pool removal happen in one transaction: either
// both apply or neither does.
type RedemptionService interface {
	Redeem(ctx context.Context, agentID uuid.UUID, awardedPrizeIDs []uuid.UUID) (*types.RedemptionOrder, error)
	ListAvailable(ctx context.Context, agentID uuid.UUID) ([]*types.AwardedPrize, error)
	ListOrders(ctx context.Context, agentID uuid.UUID) ([]*types.RedemptionOrder, error)
}

type redemptionService struct {
	txm         repos.TxManager
	log         *logger.Logger
	awardedRepo repos.AwardedPrizeRepo
	orderRepo   repos.RedemptionOrderRepo
}

func NewRedemptionService(txm repos.TxManager, log *logger.Logger, awardedRepo repos.AwardedPrizeRepo, orderRepo repos.RedemptionOrderRepo) RedemptionService {
	return &redemptionService{
		txm:         txm,
		log:         log.With("service", "RedemptionService"),
		awardedRepo: awardedRepo,
		orderRepo:   orderRepo,
	}
}

type orderItem struct {
	AwardedPrizeID uuid.UUID       `json:"awarded_prize_id"`
	CampaignID     uuid.UUID       `json:"campaign_id"`
	Name           string          `json:"name"`
	Value          decimal.Decimal `json:"value"`
	Category       string          `json:"category,omitempty"`
}

func (rs *redemptionService) Redeem(ctx context.Context, agentID uuid.UUID, awardedPrizeIDs []uuid.UUID) (*types.RedemptionOrder, error) {
	if agentID == uuid.Nil {
		return nil, apierr.New(401, apierr.CodeUnauthorized, fmt.Errorf("agent id required"))
	}
	unique := make([]uuid.UUID, 0, len(awardedPrizeIDs))
	seen := map[uuid.UUID]struct{}{}
	for _, id := range awardedPrizeIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, apierr.InvalidSelection(fmt.Errorf("no prizes selected"))
	}

	var order *types.RedemptionOrder
	err := rs.txm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := rs.txm.AdvisoryXactLock(tx, redemptionLockNamespace, agentID); err != nil {
			return fmt.Errorf("failed to take redemption lock: %w", err)
		}

		prizes, err := rs.awardedRepo.GetByIDs(ctx, tx, unique)
		if err != nil {
			return fmt.Errorf("failed to load awarded prizes: %w", err)
		}
		if len(prizes) != len(unique) {
			return apierr.InvalidSelection(fmt.Errorf("selection references unknown prizes"))
		}
		for _, prize := range prizes {
			if prize.AgentID != agentID {
				return apierr.InvalidSelection(fmt.Errorf("prize %s does not belong to agent", prize.ID))
			}
			if prize.Status != types.PrizeStatusAvailable {
				return apierr.InvalidSelection(fmt.Errorf("prize %s is not available", prize.ID))
			}
		}

		items := make([]orderItem, 0, len(prizes))
		total := decimal.Zero
		for _, prize := range prizes {
			items = append(items, orderItem{
				AwardedPrizeID: prize.ID,
				CampaignID:     prize.CampaignID,
				Name:           prize.Name,
				Value:          prize.Value,
				Category:       prize.Category,
			})
			total = total.Add(prize.Value)
		}
		itemsJSON, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to snapshot order items: %w", err)
		}

		now := time.Now().UTC()
		order = &types.RedemptionOrder{
			ID:         uuid.New(),
			AgentID:    agentID,
			ItemCount:  len(items),
			TotalValue: total,
			Items:      datatypes.JSON(itemsJSON),
		}
		// The status guard on the update catches a concurrent revocation that
		// deleted a selected row after the load above; a short count aborts
		// the whole redemption instead of snapshotting vanished prizes.
		delivered, err := rs.awardedRepo.MarkDelivered(ctx, tx, unique, order.ID, now)
		if err != nil {
			return fmt.Errorf("failed to mark prizes delivered: %w", err)
		}
		if delivered != int64(len(unique)) {
			return apierr.InvalidSelection(fmt.Errorf("selection changed while redeeming: %d of %d prizes still available", delivered, len(unique)))
		}
		if _, err := rs.orderRepo.Create(ctx, tx, []*types.RedemptionOrder{order}); err != nil {
			return fmt.Errorf("failed to create redemption order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("Redemption order created", "agent_id", agentID, "order_id", order.ID, "items", order.ItemCount)
	return order, nil
}

func (rs *redemptionService) ListAvailable(ctx context.Context, agentID uuid.UUID) ([]*types.AwardedPrize, error) {
	return rs.awardedRepo.GetAvailableByAgentID(ctx, nil, agentID)
}

func (rs *redemptionService) ListOrders(ctx context.Context, agentID uuid.UUID) ([]*types.RedemptionOrder, error) {
	return rs.orderRepo.GetByAgentID(ctx, nil, agentID)
}
