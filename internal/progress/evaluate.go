package progress

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brokerpulse/incentive-backend/internal/types"
)

type CriterionResult struct {
	CriterionID uuid.UUID       `json:"criterion_id"`
	Current     decimal.Decimal `json:"current"`
	Target      decimal.Decimal `json:"target"`
	Percentage  float64         `json:"percentage"`
}

type CampaignResult struct {
	Criteria          []CriterionResult `json:"criteria"`
	OverallPercentage float64           `json:"overall_percentage"`
	Complete          bool              `json:"complete"`
}

// Evaluate computes a single criterion's progress over the supplied policies.
// Policies dated before acceptedAt never count; a policy dated exactly at
// acceptedAt does. Percentage is clamped to [0,100]; a non-positive target
// reports 0.
func Evaluate(criterion *types.CampaignCriterion, acceptedAt time.Time, policies []*types.Policy) CriterionResult {
	current := decimal.Zero
	count := 0
	for _, p := range policies {
		if p == nil || p.CreatedAt.Before(acceptedAt) {
			continue
		}
		if !Matches(p, criterion) {
			continue
		}
		count++
		current = current.Add(p.PremiumValue)
	}
	if criterion.TargetType == types.TargetTypeQuantity {
		current = decimal.NewFromInt(int64(count))
	}

	pct := 0.0
	if criterion.TargetValue.IsPositive() {
		pct = current.Div(criterion.TargetValue).InexactFloat64() * 100
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
	}

	return CriterionResult{
		CriterionID: criterion.ID,
		Current:     current,
		Target:      criterion.TargetValue,
		Percentage:  pct,
	}
}

// CriteriaOf returns the criteria a campaign is evaluated against, ordered by
// OrderIndex. A simple campaign evaluates one synthetic criterion built from
// its own target; the synthetic criterion borrows the campaign id so results
// stay addressable.
func CriteriaOf(campaign *types.Campaign) []*types.CampaignCriterion {
	if campaign == nil {
		return nil
	}
	if campaign.Kind == types.CampaignKindSimple {
		return []*types.CampaignCriterion{{
			ID:          campaign.ID,
			CampaignID:  campaign.ID,
			TargetType:  campaign.TargetType,
			TargetValue: campaign.TargetValue,
		}}
	}
	out := make([]*types.CampaignCriterion, 0, len(campaign.Criteria))
	for i := range campaign.Criteria {
		out = append(out, &campaign.Criteria[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// Aggregate runs Evaluate once per criterion and combines the results.
// Complete requires every criterion at 100%; a campaign with no criteria is
// never complete. OverallPercentage is the arithmetic mean of per-criterion
// percentages. Pure computation; the caller decides what to persist.
func Aggregate(campaign *types.Campaign, policies []*types.Policy) CampaignResult {
	criteria := CriteriaOf(campaign)
	result := CampaignResult{Criteria: make([]CriterionResult, 0, len(criteria))}
	if len(criteria) == 0 {
		return result
	}

	sum := 0.0
	complete := true
	for _, criterion := range criteria {
		cr := Evaluate(criterion, campaign.AcceptedAt, policies)
		result.Criteria = append(result.Criteria, cr)
		sum += cr.Percentage
		if cr.Percentage < 100 {
			complete = false
		}
	}
	result.OverallPercentage = sum / float64(len(criteria))
	result.Complete = complete
	return result
}
