package progress

import (
	"strings"

	"github.com/brokerpulse/incentive-backend/internal/types"
)

// Matches reports whether a policy satisfies a criterion's eligibility
// filters. Unset filters always pass; set filters are ANDed. Total function,
// no I/O.
func Matches(policy *types.Policy, criterion *types.CampaignCriterion) bool {
	if policy == nil || criterion == nil {
		return false
	}
	if criterion.PolicyType != "" && !strings.EqualFold(policy.PolicyType, criterion.PolicyType) {
		return false
	}
	if criterion.ContractType != "" && !strings.EqualFold(criterion.ContractType, types.ContractTypeEither) &&
		!strings.EqualFold(policy.ContractType, criterion.ContractType) {
		return false
	}
	if criterion.MinValuePerPolicy != nil && policy.PremiumValue.LessThan(*criterion.MinValuePerPolicy) {
		return false
	}
	return true
}

// MatchReasons returns a human-readable account of which filters a policy
// passed or failed, used as the synthesized reasoning on the classifier's
// deterministic fallback path.
func MatchReasons(policy *types.Policy, criterion *types.CampaignCriterion) []string {
	if policy == nil || criterion == nil {
		return nil
	}
	var reasons []string
	if criterion.PolicyType != "" {
		if strings.EqualFold(policy.PolicyType, criterion.PolicyType) {
			reasons = append(reasons, "policy type "+policy.PolicyType+" matches")
		} else {
			reasons = append(reasons, "policy type "+policy.PolicyType+" does not match required "+criterion.PolicyType)
		}
	}
	if criterion.ContractType != "" && !strings.EqualFold(criterion.ContractType, types.ContractTypeEither) {
		if strings.EqualFold(policy.ContractType, criterion.ContractType) {
			reasons = append(reasons, "contract type "+policy.ContractType+" matches")
		} else {
			reasons = append(reasons, "contract type "+policy.ContractType+" does not match required "+criterion.ContractType)
		}
	}
	if criterion.MinValuePerPolicy != nil {
		if policy.PremiumValue.LessThan(*criterion.MinValuePerPolicy) {
			reasons = append(reasons, "premium "+policy.PremiumValue.String()+" below minimum "+criterion.MinValuePerPolicy.String())
		} else {
			reasons = append(reasons, "premium "+policy.PremiumValue.String()+" meets minimum "+criterion.MinValuePerPolicy.String())
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "criterion has no filters set")
	}
	return reasons
}
