package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}

// fakeTxManager runs closures inline with a nil handle; the fake repos below
// ignore the handle entirely.
type fakeTxManager struct {
	locks []string
}

func (f *fakeTxManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeTxManager) AdvisoryXactLock(tx *gorm.DB, namespace string, id uuid.UUID) error {
	f.locks = append(f.locks, namespace+":"+id.String())
	return nil
}

type fakeCampaignRepo struct {
	campaigns map[uuid.UUID]*types.Campaign
}

func newFakeCampaignRepo(campaigns ...*types.Campaign) *fakeCampaignRepo {
	repo := &fakeCampaignRepo{campaigns: map[uuid.UUID]*types.Campaign{}}
	for _, c := range campaigns {
		repo.campaigns[c.ID] = c
	}
	return repo
}

func (f *fakeCampaignRepo) Create(ctx context.Context, tx *gorm.DB, campaigns []*types.Campaign) ([]*types.Campaign, error) {
	for _, c := range campaigns {
		f.campaigns[c.ID] = c
	}
	return campaigns, nil
}

func (f *fakeCampaignRepo) GetByID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (*types.Campaign, error) {
	return f.campaigns[campaignID], nil
}

func (f *fakeCampaignRepo) GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Campaign, error) {
	var out []*types.Campaign
	for _, c := range f.campaigns {
		if c.AgentID == agentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCampaignRepo) GetActiveByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Campaign, error) {
	var out []*types.Campaign
	for _, c := range f.campaigns {
		if c.AgentID == agentID && c.Status == types.CampaignStatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCampaignRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, status string) error {
	if c, ok := f.campaigns[campaignID]; ok {
		c.Status = status
	}
	return nil
}

func (f *fakeCampaignRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, current decimal.Decimal, percentage float64) error {
	if c, ok := f.campaigns[campaignID]; ok {
		c.CurrentValue = current
		c.ProgressPercentage = percentage
	}
	return nil
}

func (f *fakeCampaignRepo) UpdateCriterionProgress(ctx context.Context, tx *gorm.DB, criterionID uuid.UUID, current decimal.Decimal, percentage float64) error {
	for _, c := range f.campaigns {
		for i := range c.Criteria {
			if c.Criteria[i].ID == criterionID {
				c.Criteria[i].CurrentValue = current
				c.Criteria[i].ProgressPercentage = percentage
			}
		}
	}
	return nil
}

type fakePolicyRepo struct {
	policies map[uuid.UUID]*types.Policy
}

func newFakePolicyRepo(policies ...*types.Policy) *fakePolicyRepo {
	repo := &fakePolicyRepo{policies: map[uuid.UUID]*types.Policy{}}
	for _, p := range policies {
		repo.policies[p.ID] = p
	}
	return repo
}

func (f *fakePolicyRepo) Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error) {
	for _, p := range policies {
		f.policies[p.ID] = p
	}
	return policies, nil
}

func (f *fakePolicyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.Policy, error) {
	var out []*types.Policy
	for _, id := range policyIDs {
		if p, ok := f.policies[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePolicyRepo) GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Policy, error) {
	var out []*types.Policy
	for _, p := range f.policies {
		if p.AgentID == agentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePolicyRepo) GetByAgentIDSince(ctx context.Context, tx *gorm.DB, agentID uuid.UUID, since time.Time) ([]*types.Policy, error) {
	var out []*types.Policy
	for _, p := range f.policies {
		if p.AgentID == agentID && !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeLinkRepo struct {
	links map[uuid.UUID]*types.PolicyCampaignLink
}

func newFakeLinkRepo(links ...*types.PolicyCampaignLink) *fakeLinkRepo {
	repo := &fakeLinkRepo{links: map[uuid.UUID]*types.PolicyCampaignLink{}}
	for _, l := range links {
		repo.links[l.ID] = l
	}
	return repo
}

func (f *fakeLinkRepo) Create(ctx context.Context, tx *gorm.DB, links []*types.PolicyCampaignLink) ([]*types.PolicyCampaignLink, error) {
	for _, l := range links {
		f.links[l.ID] = l
	}
	return links, nil
}

func (f *fakeLinkRepo) GetByID(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) (*types.PolicyCampaignLink, error) {
	return f.links[linkID], nil
}

func (f *fakeLinkRepo) GetActiveByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.PolicyCampaignLink, error) {
	var out []*types.PolicyCampaignLink
	for _, l := range f.links {
		if l.CampaignID == campaignID && l.Active {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) ActiveExists(ctx context.Context, tx *gorm.DB, policyID, campaignID uuid.UUID) (bool, error) {
	for _, l := range f.links {
		if l.PolicyID == policyID && l.CampaignID == campaignID && l.Active {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLinkRepo) Deactivate(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) error {
	if l, ok := f.links[linkID]; ok {
		l.Active = false
	}
	return nil
}

type fakePrizeRepo struct {
	prizes map[uuid.UUID]*types.Prize
}

func newFakePrizeRepo(prizes ...*types.Prize) *fakePrizeRepo {
	repo := &fakePrizeRepo{prizes: map[uuid.UUID]*types.Prize{}}
	for _, p := range prizes {
		repo.prizes[p.ID] = p
	}
	return repo
}

func (f *fakePrizeRepo) Create(ctx context.Context, tx *gorm.DB, prizes []*types.Prize) ([]*types.Prize, error) {
	for _, p := range prizes {
		f.prizes[p.ID] = p
	}
	return prizes, nil
}

func (f *fakePrizeRepo) GetByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.Prize, error) {
	var out []*types.Prize
	for _, p := range f.prizes {
		if p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeAwardedPrizeRepo struct {
	rows map[uuid.UUID]*types.AwardedPrize
	// afterGetByIDs runs once after the next GetByIDs, letting tests mutate
	// the rows between a load and the following write.
	afterGetByIDs func()
}

func newFakeAwardedPrizeRepo(rows ...*types.AwardedPrize) *fakeAwardedPrizeRepo {
	repo := &fakeAwardedPrizeRepo{rows: map[uuid.UUID]*types.AwardedPrize{}}
	for _, r := range rows {
		repo.rows[r.ID] = r
	}
	return repo
}

func (f *fakeAwardedPrizeRepo) Create(ctx context.Context, tx *gorm.DB, prizes []*types.AwardedPrize) (bool, error) {
	if len(prizes) == 0 {
		return false, nil
	}
	for _, p := range prizes {
		for _, existing := range f.rows {
			if existing.CampaignID == p.CampaignID && existing.PrizeID == p.PrizeID {
				return false, nil
			}
		}
	}
	for _, p := range prizes {
		f.rows[p.ID] = p
	}
	return true, nil
}

func (f *fakeAwardedPrizeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.AwardedPrize, error) {
	var out []*types.AwardedPrize
	for _, id := range ids {
		if r, ok := f.rows[id]; ok {
			out = append(out, r)
		}
	}
	if f.afterGetByIDs != nil {
		hook := f.afterGetByIDs
		f.afterGetByIDs = nil
		hook()
	}
	return out, nil
}

func (f *fakeAwardedPrizeRepo) GetByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.AwardedPrize, error) {
	var out []*types.AwardedPrize
	for _, r := range f.rows {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAwardedPrizeRepo) GetAvailableByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.AwardedPrize, error) {
	var out []*types.AwardedPrize
	for _, r := range f.rows {
		if r.AgentID == agentID && r.Status == types.PrizeStatusAvailable {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAwardedPrizeRepo) CountByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (int64, error) {
	rows, _ := f.GetByCampaignID(ctx, tx, campaignID)
	return int64(len(rows)), nil
}

func (f *fakeAwardedPrizeRepo) DeleteAvailableByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (int64, error) {
	var deleted int64
	for id, r := range f.rows {
		if r.CampaignID == campaignID && r.Status == types.PrizeStatusAvailable {
			delete(f.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeAwardedPrizeRepo) MarkDelivered(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, orderID uuid.UUID, deliveredAt time.Time) (int64, error) {
	var updated int64
	for _, id := range ids {
		if r, ok := f.rows[id]; ok && r.Status == types.PrizeStatusAvailable {
			r.Status = types.PrizeStatusDelivered
			at := deliveredAt
			r.DeliveredAt = &at
			oid := orderID
			r.RedemptionOrderID = &oid
			updated++
		}
	}
	return updated, nil
}

type fakeOrderRepo struct {
	orders []*types.RedemptionOrder
}

func (f *fakeOrderRepo) Create(ctx context.Context, tx *gorm.DB, orders []*types.RedemptionOrder) ([]*types.RedemptionOrder, error) {
	f.orders = append(f.orders, orders...)
	return orders, nil
}

func (f *fakeOrderRepo) GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.RedemptionOrder, error) {
	var out []*types.RedemptionOrder
	for _, o := range f.orders {
		if o.AgentID == agentID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeCallLogRepo struct {
	logs []*types.ClassifierCallLog
}

func (f *fakeCallLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.ClassifierCallLog) ([]*types.ClassifierCallLog, error) {
	f.logs = append(f.logs, logs...)
	return logs, nil
}

type fakeAgentRepo struct {
	agents map[uuid.UUID]*types.Agent
}

func newFakeAgentRepo(agents ...*types.Agent) *fakeAgentRepo {
	repo := &fakeAgentRepo{agents: map[uuid.UUID]*types.Agent{}}
	for _, a := range agents {
		repo.agents[a.ID] = a
	}
	return repo
}

func (f *fakeAgentRepo) Create(ctx context.Context, tx *gorm.DB, agents []*types.Agent) ([]*types.Agent, error) {
	for _, a := range agents {
		f.agents[a.ID] = a
	}
	return agents, nil
}

func (f *fakeAgentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.Agent, error) {
	var out []*types.Agent
	for _, id := range agentIDs {
		if a, ok := f.agents[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAgentRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Agent, error) {
	var out []*types.Agent
	for _, email := range emails {
		for _, a := range f.agents {
			if a.Email == email {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (f *fakeAgentRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	for _, a := range f.agents {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeAgentTokenRepo struct {
	tokens map[uuid.UUID]*types.AgentToken
}

func newFakeAgentTokenRepo() *fakeAgentTokenRepo {
	return &fakeAgentTokenRepo{tokens: map[uuid.UUID]*types.AgentToken{}}
}

func (f *fakeAgentTokenRepo) Create(ctx context.Context, tx *gorm.DB, tokens []*types.AgentToken) ([]*types.AgentToken, error) {
	for _, tok := range tokens {
		f.tokens[tok.ID] = tok
	}
	return tokens, nil
}

func (f *fakeAgentTokenRepo) GetByAgentIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.AgentToken, error) {
	var out []*types.AgentToken
	for _, id := range agentIDs {
		for _, tok := range f.tokens {
			if tok.AgentID == id {
				out = append(out, tok)
			}
		}
	}
	return out, nil
}

func (f *fakeAgentTokenRepo) DeleteByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) error {
	for id, tok := range f.tokens {
		if tok.AgentID == agentID {
			delete(f.tokens, id)
		}
	}
	return nil
}

type fakeTextGenClient struct {
	model string
	out   map[string]any
	err   error
}

func (f *fakeTextGenClient) Model() string {
	if f.model == "" {
		return "fake-model"
	}
	return f.model
}

func (f *fakeTextGenClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return f.out, f.err
}
