package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/unclebandit/creator-negotiator/internal/classifier"
	"github.com/unclebandit/creator-negotiator/internal/copywriter"
	appErrors "github.com/unclebandit/creator-negotiator/internal/errors"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/repository"
)

// MockCampaignRepo keeps campaigns in memory
type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	stats     map[string]int
	nextID    int
}

func NewMockCampaignRepo(cs ...model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{campaigns: map[int]*model.Campaign{}}
	for i := range cs {
		c := cs[i]
		m.campaigns[c.ID] = &c
		if c.ID > m.nextID {
			m.nextID = c.ID
		}
	}
	return m
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) UpdateStatus(_ context.Context, id int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status = status
	return nil
}

func (m *MockCampaignRepo) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) ListCampaigns(_ context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range m.campaigns {
		if status == "" || c.Status == status {
			cp := *c
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	if offset >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MockCampaignRepo) GetStageStats(_ context.Context, _ int) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range m.stats {
		out[k] = v
	}
	return out, nil
}

// MockOutreachRepo keeps outreach in memory
type MockOutreachRepo struct {
	mu       sync.Mutex
	items    map[int]*model.Outreach
	nextID   int
	updates  []model.OutreachUpdate
	failNext error
}

func NewMockOutreachRepo(os ...model.Outreach) *MockOutreachRepo {
	m := &MockOutreachRepo{items: map[int]*model.Outreach{}}
	for i := range os {
		o := os[i]
		m.items[o.ID] = &o
		if o.ID > m.nextID {
			m.nextID = o.ID
		}
	}
	return m
}

func (m *MockOutreachRepo) CreateOutreach(_ context.Context, o *model.Outreach) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.CampaignID == o.CampaignID && existing.CandidateID == o.CandidateID {
			*o = *existing
			return false, nil
		}
	}
	m.nextID++
	o.ID = m.nextID
	o.RecipientEmail = strings.ToLower(o.RecipientEmail)
	cp := *o
	m.items[o.ID] = &cp
	return true, nil
}

func (m *MockOutreachRepo) GetByID(_ context.Context, id int) (*model.Outreach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, appErrors.NewOutreachNotFound(id)
	}
	cp := *o
	return &cp, nil
}

func (m *MockOutreachRepo) UpdateOutreach(_ context.Context, id int, u model.OutreachUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	o, ok := m.items[id]
	if !ok {
		return appErrors.NewOutreachNotFound(id)
	}
	m.updates = append(m.updates, u)
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.NegotiationStage != nil {
		o.NegotiationStage = *u.NegotiationStage
	}
	if u.CurrentOffer != nil {
		o.CurrentOffer = *u.CurrentOffer
	}
	if u.NegotiationRounds != nil {
		o.NegotiationRounds = *u.NegotiationRounds
	}
	if u.FollowupCount != nil {
		o.FollowupCount = *u.FollowupCount
	}
	if u.LastFollowupAt != nil {
		t := *u.LastFollowupAt
		o.LastFollowupAt = &t
	}
	if u.LastInboundAt != nil {
		t := *u.LastInboundAt
		o.LastInboundAt = &t
	}
	if u.LastReply != nil {
		o.LastReply = *u.LastReply
	}
	if u.LastError != nil {
		o.LastError = *u.LastError
	}
	if u.MailboxID != nil {
		o.MailboxID = *u.MailboxID
	}
	return nil
}

func (m *MockOutreachRepo) ClaimDraft(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || o.Status != model.StatusDraft || o.NegotiationStage.IsTerminal() {
		return false, nil
	}
	o.Status = model.StatusSent
	return true, nil
}

func (m *MockOutreachRepo) ListOpenOutreach(_ context.Context) ([]model.Outreach, error) {
	return m.filter(func(o *model.Outreach) bool {
		return o.Status == model.StatusSent || o.Status == model.StatusReplied
	}), nil
}

func (m *MockOutreachRepo) ListAwaitingReply(_ context.Context, maxFollowups int) ([]model.Outreach, error) {
	return m.filter(func(o *model.Outreach) bool {
		return o.Status == model.StatusSent && !o.NegotiationStage.IsTerminal() &&
			o.LastInboundAt == nil && o.FollowupCount < maxFollowups
	}), nil
}

func (m *MockOutreachRepo) ListByCampaign(_ context.Context, campaignID int, stage model.Stage, offset, limit int) ([]model.Outreach, int, error) {
	all := m.filter(func(o *model.Outreach) bool {
		return o.CampaignID == campaignID && (stage == "" || o.NegotiationStage == stage)
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return []model.Outreach{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MockOutreachRepo) filter(keep func(o *model.Outreach) bool) []model.Outreach {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Outreach{}
	for _, o := range m.items {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockOutreachRepo) get(id int) model.Outreach {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

// MockThreadRepo is an append-only in-memory thread log
type MockThreadRepo struct {
	mu        sync.Mutex
	entries   []model.ThreadEntry
	failAfter int
}

func (m *MockThreadRepo) AppendThreadEntry(_ context.Context, e *model.ThreadEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter > 0 && len(m.entries) >= m.failAfter {
		return errors.New("thread store unavailable")
	}
	e.ID = len(m.entries) + 1
	m.entries = append(m.entries, *e)
	return nil
}

func (m *MockThreadRepo) ListByOutreach(_ context.Context, outreachID int) ([]model.ThreadEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ThreadEntry{}
	for _, e := range m.entries {
		if e.OutreachID == outreachID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockThreadRepo) LastOutboundAt(_ context.Context, outreachID int) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *time.Time
	for _, e := range m.entries {
		if e.OutreachID == outreachID && e.Direction == model.DirectionOutbound {
			t := e.CreatedAt
			if last == nil || t.After(*last) {
				last = &t
			}
		}
	}
	return last, nil
}

func (m *MockThreadRepo) count(outreachID int, direction string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.OutreachID == outreachID && e.Direction == direction {
			n++
		}
	}
	return n
}

// MockProcessedStore is an insert-if-absent set
type MockProcessedStore struct {
	mu   sync.Mutex
	seen map[string]model.ProcessedMessage
}

func NewMockProcessedStore() *MockProcessedStore {
	return &MockProcessedStore{seen: map[string]model.ProcessedMessage{}}
}

func (m *MockProcessedStore) MarkProcessed(_ context.Context, rec model.ProcessedMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[rec.MessageID]; ok {
		return false, nil
	}
	m.seen[rec.MessageID] = rec
	return true, nil
}

// MockClassifier returns a fixed judgment and counts calls
type MockClassifier struct {
	mu       sync.Mutex
	judgment model.Judgment
	requests []classifier.Request
}

func (m *MockClassifier) Classify(_ context.Context, req classifier.Request) model.Judgment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.judgment
}

func (m *MockClassifier) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type sentEmail struct {
	PreferredID int
	To          string
	Subject     string
	Body        string
}

// MockDispatcher records sends; err makes every send fail
type MockDispatcher struct {
	mu      sync.Mutex
	mailbox model.Mailbox
	err     error
	delay   time.Duration
	sent    []sentEmail
}

func (m *MockDispatcher) Dispatch(_ context.Context, preferredID int, to, subject, body string) (model.Mailbox, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Mailbox{}, m.err
	}
	m.sent = append(m.sent, sentEmail{PreferredID: preferredID, To: to, Subject: subject, Body: body})
	return m.mailbox, nil
}

func (m *MockDispatcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *MockDispatcher) last() sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

// MockWriter returns body, or fails with err
type MockWriter struct {
	body     string
	err      error
	requests []copywriter.Request
}

func (m *MockWriter) Write(_ context.Context, req copywriter.Request) (string, error) {
	m.requests = append(m.requests, req)
	return m.body, m.err
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var (
	_ repository.CampaignRepositoryInterface = (*MockCampaignRepo)(nil)
	_ repository.OutreachRepositoryInterface = (*MockOutreachRepo)(nil)
	_ repository.ThreadRepositoryInterface   = (*MockThreadRepo)(nil)
	_ copywriter.Writer                      = (*MockWriter)(nil)
)
