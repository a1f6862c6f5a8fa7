package progress

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brokerpulse/incentive-backend/internal/types"
)

func pctClose(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func policyAt(created time.Time, policyType, contractType, premium string) *types.Policy {
	p := &types.Policy{
		AgentID:      uuid.New(),
		PolicyType:   policyType,
		ContractType: contractType,
		PremiumValue: dec(premium),
	}
	p.CreatedAt = created
	return p
}

func TestEvaluate(t *testing.T) {
	acceptedAt := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("value target sums matching premiums", func(t *testing.T) {
		criterion := &types.CampaignCriterion{
			ID:          uuid.New(),
			PolicyType:  "auto",
			TargetType:  types.TargetTypeValue,
			TargetValue: dec("10000"),
		}
		policies := []*types.Policy{
			policyAt(acceptedAt.Add(time.Hour), "auto", "new", "4000"),
			policyAt(acceptedAt.Add(2*time.Hour), "auto", "renewal", "2000"),
			policyAt(acceptedAt.Add(3*time.Hour), "residential", "new", "9999"),
		}
		got := Evaluate(criterion, acceptedAt, policies)
		if !got.Current.Equal(dec("6000")) {
			t.Fatalf("current = %s, want 6000", got.Current)
		}
		if !pctClose(got.Percentage, 60) {
			t.Fatalf("percentage = %v, want 60", got.Percentage)
		}
	})

	t.Run("quantity target counts matching policies", func(t *testing.T) {
		criterion := &types.CampaignCriterion{
			ID:          uuid.New(),
			TargetType:  types.TargetTypeQuantity,
			TargetValue: dec("4"),
		}
		policies := []*types.Policy{
			policyAt(acceptedAt, "auto", "new", "100"),
			policyAt(acceptedAt.Add(time.Hour), "life", "renewal", "200"),
		}
		got := Evaluate(criterion, acceptedAt, policies)
		if !got.Current.Equal(dec("2")) {
			t.Fatalf("current = %s, want 2", got.Current)
		}
		if !pctClose(got.Percentage, 50) {
			t.Fatalf("percentage = %v, want 50", got.Percentage)
		}
	})

	t.Run("policy exactly at acceptance counts", func(t *testing.T) {
		criterion := &types.CampaignCriterion{ID: uuid.New(), TargetType: types.TargetTypeValue, TargetValue: dec("1000")}
		got := Evaluate(criterion, acceptedAt, []*types.Policy{
			policyAt(acceptedAt, "auto", "new", "1000"),
		})
		if !pctClose(got.Percentage, 100) {
			t.Fatalf("percentage = %v, want 100", got.Percentage)
		}
	})

	t.Run("policy before acceptance never counts", func(t *testing.T) {
		criterion := &types.CampaignCriterion{ID: uuid.New(), TargetType: types.TargetTypeValue, TargetValue: dec("1000")}
		got := Evaluate(criterion, acceptedAt, []*types.Policy{
			policyAt(acceptedAt.Add(-time.Nanosecond), "auto", "new", "1000"),
		})
		if !got.Current.IsZero() || !pctClose(got.Percentage, 0) {
			t.Fatalf("current = %s pct = %v, want zero progress", got.Current, got.Percentage)
		}
	})

	t.Run("percentage clamps at 100", func(t *testing.T) {
		criterion := &types.CampaignCriterion{ID: uuid.New(), TargetType: types.TargetTypeValue, TargetValue: dec("1000")}
		got := Evaluate(criterion, acceptedAt, []*types.Policy{
			policyAt(acceptedAt.Add(time.Hour), "auto", "new", "2000"),
		})
		if !pctClose(got.Percentage, 100) {
			t.Fatalf("percentage = %v, want clamped 100", got.Percentage)
		}
		if !got.Current.Equal(dec("2000")) {
			t.Fatalf("current = %s, want raw 2000", got.Current)
		}
	})

	t.Run("non-positive target reports zero", func(t *testing.T) {
		criterion := &types.CampaignCriterion{ID: uuid.New(), TargetType: types.TargetTypeValue, TargetValue: dec("0")}
		got := Evaluate(criterion, acceptedAt, []*types.Policy{
			policyAt(acceptedAt.Add(time.Hour), "auto", "new", "2000"),
		})
		if !pctClose(got.Percentage, 0) {
			t.Fatalf("percentage = %v, want 0 for zero target", got.Percentage)
		}
	})
}

func TestCriteriaOf(t *testing.T) {
	t.Run("simple campaign synthesizes one criterion", func(t *testing.T) {
		campaign := &types.Campaign{
			Kind:        types.CampaignKindSimple,
			TargetType:  types.TargetTypeQuantity,
			TargetValue: dec("5"),
		}
		campaign.ID = uuid.New()
		criteria := CriteriaOf(campaign)
		if len(criteria) != 1 {
			t.Fatalf("expected 1 criterion, got %d", len(criteria))
		}
		if criteria[0].ID != campaign.ID {
			t.Fatalf("synthetic criterion should borrow the campaign id")
		}
		if criteria[0].TargetType != types.TargetTypeQuantity || !criteria[0].TargetValue.Equal(dec("5")) {
			t.Fatalf("synthetic criterion should borrow the campaign target")
		}
	})

	t.Run("composite criteria ordered by index", func(t *testing.T) {
		campaign := &types.Campaign{
			Kind: types.CampaignKindComposite,
			Criteria: []types.CampaignCriterion{
				{PolicyType: "b", OrderIndex: 1},
				{PolicyType: "a", OrderIndex: 0},
			},
		}
		criteria := CriteriaOf(campaign)
		if len(criteria) != 2 || criteria[0].PolicyType != "a" || criteria[1].PolicyType != "b" {
			t.Fatalf("criteria not ordered by index: %+v", criteria)
		}
	})
}

func TestAggregate(t *testing.T) {
	acceptedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	newComposite := func() *types.Campaign {
		campaign := &types.Campaign{
			Kind:       types.CampaignKindComposite,
			AcceptedAt: acceptedAt,
			Criteria: []types.CampaignCriterion{
				{ID: uuid.New(), PolicyType: "auto", TargetType: types.TargetTypeValue, TargetValue: dec("10000"), OrderIndex: 0},
				{ID: uuid.New(), PolicyType: "residential", TargetType: types.TargetTypeValue, TargetValue: dec("5000"), OrderIndex: 1},
			},
		}
		campaign.ID = uuid.New()
		return campaign
	}

	t.Run("partial progress averages and is not complete", func(t *testing.T) {
		campaign := newComposite()
		policies := []*types.Policy{
			policyAt(acceptedAt.Add(time.Hour), "auto", "new", "12000"),
			policyAt(acceptedAt.Add(2*time.Hour), "residential", "new", "3000"),
		}
		got := Aggregate(campaign, policies)
		if !pctClose(got.Criteria[0].Percentage, 100) {
			t.Fatalf("auto criterion pct = %v, want clamped 100", got.Criteria[0].Percentage)
		}
		if !pctClose(got.Criteria[1].Percentage, 60) {
			t.Fatalf("residential criterion pct = %v, want 60", got.Criteria[1].Percentage)
		}
		if !pctClose(got.OverallPercentage, 80) {
			t.Fatalf("overall = %v, want 80", got.OverallPercentage)
		}
		if got.Complete {
			t.Fatalf("campaign must not be complete at 80%%")
		}
	})

	t.Run("every criterion at 100 completes", func(t *testing.T) {
		campaign := newComposite()
		policies := []*types.Policy{
			policyAt(acceptedAt.Add(time.Hour), "auto", "new", "12000"),
			policyAt(acceptedAt.Add(2*time.Hour), "residential", "new", "3000"),
			policyAt(acceptedAt.Add(3*time.Hour), "residential", "renewal", "2500"),
		}
		got := Aggregate(campaign, policies)
		if !got.Complete {
			t.Fatalf("expected complete, got overall %v criteria %+v", got.OverallPercentage, got.Criteria)
		}
		if !pctClose(got.OverallPercentage, 100) {
			t.Fatalf("overall = %v, want 100", got.OverallPercentage)
		}
	})

	t.Run("one criterion short blocks completion", func(t *testing.T) {
		campaign := newComposite()
		policies := []*types.Policy{
			policyAt(acceptedAt.Add(time.Hour), "auto", "new", "10000"),
			policyAt(acceptedAt.Add(2*time.Hour), "residential", "new", "4999.99"),
		}
		got := Aggregate(campaign, policies)
		if got.Complete {
			t.Fatalf("campaign with a criterion at %v%% must not be complete", got.Criteria[1].Percentage)
		}
	})

	t.Run("no criteria never completes", func(t *testing.T) {
		campaign := &types.Campaign{Kind: types.CampaignKindComposite, AcceptedAt: acceptedAt}
		got := Aggregate(campaign, nil)
		if got.Complete {
			t.Fatalf("campaign with no criteria must not be complete")
		}
		if !pctClose(got.OverallPercentage, 0) {
			t.Fatalf("overall = %v, want 0", got.OverallPercentage)
		}
	})

	t.Run("simple campaign evaluates its own target", func(t *testing.T) {
		campaign := &types.Campaign{
			Kind:        types.CampaignKindSimple,
			AcceptedAt:  acceptedAt,
			TargetType:  types.TargetTypeQuantity,
			TargetValue: dec("2"),
		}
		campaign.ID = uuid.New()
		policies := []*types.Policy{
			policyAt(acceptedAt.Add(time.Hour), "auto", "new", "100"),
			policyAt(acceptedAt.Add(2*time.Hour), "life", "renewal", "50"),
		}
		got := Aggregate(campaign, policies)
		if !got.Complete || !pctClose(got.OverallPercentage, 100) {
			t.Fatalf("simple campaign should be complete at 2/2, got %+v", got)
		}
	})
}
