package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/progress"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

// fallbackConfidence is the nominal confidence reported when the verdict came
// from the deterministic matcher instead of the text-generation service.
const fallbackConfidence = 0.5

type Verdict struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Compatible bool      `json:"compatible"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
}

// ClassifierService judges (policy, campaign) compatibility. The
// text-generation path is assistive only: on any failure, timeout, or
// malformed response it degrades to the deterministic matcher, whose
// admit/reject verdicts it can therefore never contradict on the fallback
// path — only confidence and reasoning differ.
type ClassifierService interface {
	Classify(ctx context.Context, policy *types.Policy, candidates []*types.Campaign) []Verdict
}

type classifierService struct {
	log         *logger.Logger
	client      TextGenClient
	callLogRepo repos.ClassifierCallLogRepo
}

func NewClassifierService(log *logger.Logger, client TextGenClient, callLogRepo repos.ClassifierCallLogRepo) ClassifierService {
	return &classifierService{
		log:         log.With("service", "ClassifierService"),
		client:      client,
		callLogRepo: callLogRepo,
	}
}

func (cs *classifierService) Classify(ctx context.Context, policy *types.Policy, candidates []*types.Campaign) []Verdict {
	if policy == nil || len(candidates) == 0 {
		return nil
	}
	if cs.client == nil {
		return cs.fallback(policy, candidates)
	}

	started := time.Now()
	verdicts, prompt, rawResponse, err := cs.classifyRemote(ctx, policy, candidates)
	cs.recordCall(policy, prompt, rawResponse, err, time.Since(started))
	if err != nil {
		cs.log.Warn("Classifier call failed, using deterministic fallback", "policy_id", policy.ID, "error", err)
		return cs.fallback(policy, candidates)
	}
	return verdicts
}

func (cs *classifierService) classifyRemote(ctx context.Context, policy *types.Policy, candidates []*types.Campaign) ([]Verdict, string, string, error) {
	type criterionPrompt struct {
		PolicyType        string `json:"policy_type,omitempty"`
		ContractType      string `json:"contract_type,omitempty"`
		TargetType        string `json:"target_type"`
		TargetValue       string `json:"target_value"`
		MinValuePerPolicy string `json:"min_value_per_policy,omitempty"`
	}
	type campaignPrompt struct {
		CampaignID string            `json:"campaign_id"`
		Name       string            `json:"name"`
		Criteria   []criterionPrompt `json:"criteria"`
	}

	prompts := make([]campaignPrompt, 0, len(candidates))
	for _, campaign := range candidates {
		cp := campaignPrompt{CampaignID: campaign.ID.String(), Name: campaign.Name}
		for _, criterion := range progress.CriteriaOf(campaign) {
			entry := criterionPrompt{
				PolicyType:   criterion.PolicyType,
				ContractType: criterion.ContractType,
				TargetType:   criterion.TargetType,
				TargetValue:  criterion.TargetValue.String(),
			}
			if criterion.MinValuePerPolicy != nil {
				entry.MinValuePerPolicy = criterion.MinValuePerPolicy.String()
			}
			cp.Criteria = append(cp.Criteria, entry)
		}
		prompts = append(prompts, cp)
	}

	userPayload := map[string]any{
		"policy": map[string]any{
			"policy_type":   policy.PolicyType,
			"contract_type": policy.ContractType,
			"premium_value": policy.PremiumValue.String(),
			"description":   policy.Description,
		},
		"campaigns": prompts,
	}
	userJSON, err := json.Marshal(userPayload)
	if err != nil {
		return nil, "", "", err
	}

	system := "You evaluate whether an insurance policy is eligible to count toward incentive campaigns. " +
		"A policy is compatible with a campaign when it satisfies the filters of at least one of the campaign's criteria. " +
		"Judge every campaign in the input and return one verdict per campaign."

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verdicts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"campaign_id": map[string]any{"type": "string"},
						"compatible":  map[string]any{"type": "boolean"},
						"confidence":  map[string]any{"type": "number"},
						"reasoning":   map[string]any{"type": "string"},
					},
					"required":             []string{"campaign_id", "compatible", "confidence", "reasoning"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"verdicts"},
		"additionalProperties": false,
	}

	out, err := cs.client.GenerateJSON(ctx, system, string(userJSON), "campaign_compatibility", schema)
	rawResponse := ""
	if out != nil {
		if b, mErr := json.Marshal(out); mErr == nil {
			rawResponse = string(b)
		}
	}
	if err != nil {
		return nil, string(userJSON), rawResponse, err
	}

	verdicts, err := parseVerdicts(out, candidates)
	if err != nil {
		return nil, string(userJSON), rawResponse, err
	}
	return verdicts, string(userJSON), rawResponse, nil
}

// parseVerdicts validates the structured response: every candidate must be
// judged exactly once and ids must be well-formed, otherwise the whole
// response is rejected and the caller falls back.
func parseVerdicts(out map[string]any, candidates []*types.Campaign) ([]Verdict, error) {
	rawList, ok := out["verdicts"].([]any)
	if !ok {
		return nil, fmt.Errorf("response missing verdicts list")
	}
	byID := make(map[uuid.UUID]Verdict, len(rawList))
	for _, raw := range rawList {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("verdict entry is not an object")
		}
		idStr, _ := entry["campaign_id"].(string)
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("verdict has invalid campaign_id %q", idStr)
		}
		compatible, ok := entry["compatible"].(bool)
		if !ok {
			return nil, fmt.Errorf("verdict for %s has no boolean compatible field", idStr)
		}
		confidence, _ := entry["confidence"].(float64)
		if confidence < 0 || confidence > 1 {
			return nil, fmt.Errorf("verdict for %s has out-of-range confidence", idStr)
		}
		reasoning, _ := entry["reasoning"].(string)
		byID[id] = Verdict{CampaignID: id, Compatible: compatible, Confidence: confidence, Reasoning: reasoning}
	}

	verdicts := make([]Verdict, 0, len(candidates))
	for _, campaign := range candidates {
		v, ok := byID[campaign.ID]
		if !ok {
			return nil, fmt.Errorf("response missing verdict for campaign %s", campaign.ID)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

// fallback evaluates each candidate with the same matcher the progress engine
// uses: compatible when the policy matches at least one criterion.
func (cs *classifierService) fallback(policy *types.Policy, candidates []*types.Campaign) []Verdict {
	verdicts := make([]Verdict, 0, len(candidates))
	for _, campaign := range candidates {
		criteria := progress.CriteriaOf(campaign)
		compatible := false
		var reasons []string
		for _, criterion := range criteria {
			if progress.Matches(policy, criterion) {
				compatible = true
				reasons = progress.MatchReasons(policy, criterion)
				break
			}
		}
		if !compatible {
			if len(criteria) > 0 {
				reasons = progress.MatchReasons(policy, criteria[0])
			} else {
				reasons = []string{"campaign has no criteria"}
			}
		}
		verdicts = append(verdicts, Verdict{
			CampaignID: campaign.ID,
			Compatible: compatible,
			Confidence: fallbackConfidence,
			Reasoning:  "deterministic: " + strings.Join(reasons, "; "),
		})
	}
	return verdicts
}

// recordCall persists the call log best-effort; a logging failure never
// affects the classification outcome.
func (cs *classifierService) recordCall(policy *types.Policy, prompt, response string, callErr error, latency time.Duration) {
	if cs.callLogRepo == nil {
		return
	}
	model := ""
	if cs.client != nil {
		model = cs.client.Model()
	}
	usage, _ := json.Marshal(map[string]any{"latency_ms": latency.Milliseconds()})
	row := &types.ClassifierCallLog{
		ID:        uuid.New(),
		AgentID:   &policy.AgentID,
		PolicyID:  &policy.ID,
		ModelName: model,
		Prompt:    prompt,
		Response:  response,
		Success:   callErr == nil,
		Fallback:  callErr != nil,
		Usage:     datatypes.JSON(usage),
	}
	if callErr != nil {
		row.Error = callErr.Error()
	}
	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cs.callLogRepo.Create(logCtx, nil, []*types.ClassifierCallLog{row}); err != nil {
		cs.log.Warn("Failed to record classifier call", "policy_id", policy.ID, "error", err)
	}
}
