package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/brokerpulse/incentive-backend/internal/apierr"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

func availablePrize(t *testing.T, agentID uuid.UUID, name, value string) *types.AwardedPrize {
	t.Helper()
	row := &types.AwardedPrize{
		CampaignID: uuid.New(),
		PrizeID:    uuid.New(),
		AgentID:    agentID,
		Name:       name,
		Value:      mustDec(t, value),
		Status:     types.PrizeStatusAvailable,
	}
	row.ID = uuid.New()
	return row
}

func wantInvalidSelection(t *testing.T, err error) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeInvalidSelection {
		t.Fatalf("expected INVALID_SELECTION, got %v", err)
	}
}

func TestRedeem_CreatesOrderAndDeliversAtomically(t *testing.T) {
	agentID := uuid.New()
	a := availablePrize(t, agentID, "Tablet", "800")
	b := availablePrize(t, agentID, "Gift card", "150.50")
	awardedRepo := newFakeAwardedPrizeRepo(a, b)
	orderRepo := &fakeOrderRepo{}
	svc := NewRedemptionService(&fakeTxManager{}, testLogger(t), awardedRepo, orderRepo)

	order, err := svc.Redeem(context.Background(), agentID, []uuid.UUID{a.ID, b.ID, b.ID})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if order.ItemCount != 2 {
		t.Fatalf("order item count = %d, want 2 after dedupe", order.ItemCount)
	}
	if !order.TotalValue.Equal(mustDec(t, "950.50")) {
		t.Fatalf("order total = %s, want 950.50", order.TotalValue)
	}
	var items []map[string]any
	if err := json.Unmarshal(order.Items, &items); err != nil || len(items) != 2 {
		t.Fatalf("order items snapshot invalid: %v (%d items)", err, len(items))
	}
	for _, row := range []*types.AwardedPrize{a, b} {
		if row.Status != types.PrizeStatusDelivered {
			t.Fatalf("prize %s status = %q, want delivered", row.Name, row.Status)
		}
		if row.RedemptionOrderID == nil || *row.RedemptionOrderID != order.ID {
			t.Fatalf("prize %s not stamped with order id", row.Name)
		}
		if row.DeliveredAt == nil {
			t.Fatalf("prize %s missing delivered_at", row.Name)
		}
	}
	if len(orderRepo.orders) != 1 {
		t.Fatalf("expected exactly one persisted order, got %d", len(orderRepo.orders))
	}
}

func TestRedeem_RejectsBadSelections(t *testing.T) {
	agentID := uuid.New()
	mine := availablePrize(t, agentID, "Tablet", "800")
	theirs := availablePrize(t, uuid.New(), "Watch", "300")
	delivered := availablePrize(t, agentID, "Gift card", "150")
	delivered.Status = types.PrizeStatusDelivered
	awardedRepo := newFakeAwardedPrizeRepo(mine, theirs, delivered)
	svc := NewRedemptionService(&fakeTxManager{}, testLogger(t), awardedRepo, &fakeOrderRepo{})

	t.Run("empty selection", func(t *testing.T) {
		_, err := svc.Redeem(context.Background(), agentID, nil)
		wantInvalidSelection(t, err)
	})

	t.Run("unknown prize id", func(t *testing.T) {
		_, err := svc.Redeem(context.Background(), agentID, []uuid.UUID{uuid.New()})
		wantInvalidSelection(t, err)
	})

	t.Run("someone else's prize", func(t *testing.T) {
		_, err := svc.Redeem(context.Background(), agentID, []uuid.UUID{theirs.ID})
		wantInvalidSelection(t, err)
	})

	t.Run("already delivered prize", func(t *testing.T) {
		_, err := svc.Redeem(context.Background(), agentID, []uuid.UUID{delivered.ID})
		wantInvalidSelection(t, err)
	})

	t.Run("rejection leaves state untouched", func(t *testing.T) {
		if mine.Status != types.PrizeStatusAvailable {
			t.Fatalf("valid prize must stay available after failed attempts")
		}
	})
}

func TestRedeem_RejectsWhenPrizeRevokedMidFlight(t *testing.T) {
	agentID := uuid.New()
	a := availablePrize(t, agentID, "Tablet", "800")
	b := availablePrize(t, agentID, "Gift card", "150")
	awardedRepo := newFakeAwardedPrizeRepo(a, b)
	orderRepo := &fakeOrderRepo{}
	svc := NewRedemptionService(&fakeTxManager{}, testLogger(t), awardedRepo, orderRepo)

	// A concurrent revocation deletes one selected row between the load and
	// the delivery update.
	awardedRepo.afterGetByIDs = func() {
		delete(awardedRepo.rows, b.ID)
	}

	_, err := svc.Redeem(context.Background(), agentID, []uuid.UUID{a.ID, b.ID})
	wantInvalidSelection(t, err)
	if len(orderRepo.orders) != 0 {
		t.Fatalf("no order may be persisted for a partially revoked selection, got %d", len(orderRepo.orders))
	}
}

func TestListAvailable_FiltersDelivered(t *testing.T) {
	agentID := uuid.New()
	a := availablePrize(t, agentID, "Tablet", "800")
	d := availablePrize(t, agentID, "Watch", "300")
	d.Status = types.PrizeStatusDelivered
	svc := NewRedemptionService(&fakeTxManager{}, testLogger(t), newFakeAwardedPrizeRepo(a, d), &fakeOrderRepo{})

	out, err := svc.ListAvailable(context.Background(), agentID)
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if len(out) != 1 || out[0].ID != a.ID {
		t.Fatalf("expected only the available prize, got %d rows", len(out))
	}
}
