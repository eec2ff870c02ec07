package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/queue"
	"github.com/engagecrm/engage-backend/internal/segment"
)

// ---- mock repositories ----

type mockCampaignRepo struct {
	mu        sync.Mutex
	created   []*model.Campaign
	appended  map[uuid.UUID][]uuid.UUID
	createErr error
	appendErr error
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{appended: map[uuid.UUID][]uuid.UUID{}}
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	if m.createErr != nil {
		return m.createErr
	}
	c.ID = uuid.New()
	m.created = append(m.created, c)
	return nil
}

func (m *mockCampaignRepo) GetByID(id uuid.UUID) (*model.Campaign, error) {
	for _, c := range m.created {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.NewNotFound("campaign", id.String())
}

func (m *mockCampaignRepo) ListByUser(userID uuid.UUID) ([]*model.Campaign, error) {
	out := []*model.Campaign{}
	for i := len(m.created) - 1; i >= 0; i-- {
		if m.created[i].UserID == userID {
			out = append(out, m.created[i])
		}
	}
	return out, nil
}

func (m *mockCampaignRepo) AppendLogIDs(campaignID uuid.UUID, logIDs []uuid.UUID) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appended[campaignID] = append(m.appended[campaignID], logIDs...)
	return nil
}

type mockCustomerRepo struct {
	customers []*model.Customer
	findErr   error
	count     int
	countErr  error
}

func (m *mockCustomerRepo) Create(*model.Customer) error { return nil }

func (m *mockCustomerRepo) GetByID(id uuid.UUID) (*model.Customer, error) {
	return nil, apperrors.NewNotFound("customer", id.String())
}

func (m *mockCustomerRepo) ListAll() ([]*model.Customer, error) { return m.customers, nil }

func (m *mockCustomerRepo) FindBySegment(pred segment.Predicate) ([]*model.Customer, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.customers, nil
}

func (m *mockCustomerRepo) CountBySegment(pred segment.Predicate) (int, error) {
	return m.count, m.countErr
}

type mockLogRepo struct {
	mu        sync.Mutex
	logs      []*model.CommunicationLog
	stats     map[uuid.UUID]model.DeliveryStats
	failEmail string
	upserts   []queue.DeliveryReceipt
	upsertErr error
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{stats: map[uuid.UUID]model.DeliveryStats{}}
}

func (m *mockLogRepo) Create(l *model.CommunicationLog) error {
	if l.CustomerEmail == m.failEmail && m.failEmail != "" {
		return apperrors.NewStorageUnavailable(errors.New("write refused"))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uuid.New()
	m.logs = append(m.logs, l)
	return nil
}

func (m *mockLogRepo) ListAll() ([]*model.CommunicationLog, error) { return m.logs, nil }

func (m *mockLogRepo) StatsByCampaign(campaignID uuid.UUID) (model.DeliveryStats, error) {
	return m.stats[campaignID], nil
}

func (m *mockLogRepo) UpsertReceipt(campaignID, customerID uuid.UUID, status, errMsg string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, queue.DeliveryReceipt{
		CampaignID: campaignID, CustomerID: customerID, Status: status, Error: errMsg,
	})
	return nil
}

type mockReceiptPublisher struct {
	mu       sync.Mutex
	receipts []queue.DeliveryReceipt
	err      error
}

func (m *mockReceiptPublisher) PublishReceipt(r queue.DeliveryReceipt) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, r)
	return nil
}

// ---- helpers ----

func testCustomers(n int) []*model.Customer {
	out := make([]*model.Customer, n)
	for i := range out {
		out[i] = &model.Customer{ID: uuid.New(), Name: "Customer", Email: uuid.NewString() + "@example.com"}
	}
	return out
}

func alwaysSent(*model.Customer) (string, string) { return model.StatusSent, "" }

func newTestService(campaignRepo *mockCampaignRepo, customerRepo *mockCustomerRepo, logRepo *mockLogRepo) *CampaignService {
	svc := NewCampaignService(campaignRepo, customerRepo, logRepo)
	svc.Outcome = alwaysSent
	return svc
}

var spendOver75 = segment.RuleGroup{
	Combinator: "AND",
	Rules:      []segment.Rule{{Field: "totalSpend", Operator: ">", Value: "75"}},
}

// ---- tests ----

func TestDispatchWritesOneLogPerAudienceMember(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	customerRepo := &mockCustomerRepo{customers: testCustomers(5)}
	logRepo := newMockLogRepo()
	svc := newTestService(campaignRepo, customerRepo, logRepo)

	userID := uuid.New()
	campaign, err := svc.Dispatch(userID, spendOver75, "10% off this week")
	require.NoError(t, err)

	assert.Equal(t, 5, campaign.AudienceSize)
	assert.Len(t, logRepo.logs, 5)
	assert.Len(t, campaign.LogIDs, 5)
	assert.Len(t, campaignRepo.appended[campaign.ID], 5)

	for _, l := range logRepo.logs {
		assert.Equal(t, campaign.ID, l.CampaignID)
		assert.Equal(t, "10% off this week", l.Message)
		assert.Equal(t, model.StatusSent, l.Status)
	}
}

func TestDispatchEmptyRulesPersistsEmptyCampaign(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	customerRepo := &mockCustomerRepo{customers: testCustomers(3)}
	logRepo := newMockLogRepo()
	svc := newTestService(campaignRepo, customerRepo, logRepo)

	campaign, err := svc.Dispatch(uuid.New(), segment.RuleGroup{Combinator: "AND"}, "hello")
	require.NoError(t, err)

	// No rules means nobody is targeted, even though customers exist.
	assert.Zero(t, campaign.AudienceSize)
	assert.Empty(t, logRepo.logs)
	assert.Empty(t, campaignRepo.appended)
	assert.Len(t, campaignRepo.created, 1)
}

func TestDispatchOutcomesRecorded(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	customers := testCustomers(4)
	customerRepo := &mockCustomerRepo{customers: customers}
	logRepo := newMockLogRepo()
	svc := newTestService(campaignRepo, customerRepo, logRepo)

	failing := customers[0].Email
	svc.Outcome = func(c *model.Customer) (string, string) {
		if c.Email == failing {
			return model.StatusFailed, "Invalid email address"
		}
		return model.StatusSent, ""
	}

	campaign, err := svc.Dispatch(uuid.New(), spendOver75, "msg")
	require.NoError(t, err)
	require.Len(t, campaign.LogIDs, 4)

	var sent, failed int
	for _, l := range logRepo.logs {
		switch l.Status {
		case model.StatusSent:
			sent++
		case model.StatusFailed:
			failed++
			assert.Equal(t, "Invalid email address", l.Error)
		}
	}
	assert.Equal(t, 3, sent)
	assert.Equal(t, 1, failed)
}

func TestDispatchContinuesPastLogWriteFailure(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	customers := testCustomers(3)
	customerRepo := &mockCustomerRepo{customers: customers}
	logRepo := newMockLogRepo()
	logRepo.failEmail = customers[1].Email
	svc := newTestService(campaignRepo, customerRepo, logRepo)

	campaign, err := svc.Dispatch(uuid.New(), spendOver75, "msg")
	require.NoError(t, err)

	// One write failed; the other two still went through.
	assert.Equal(t, 3, campaign.AudienceSize)
	assert.Len(t, logRepo.logs, 2)
	assert.Len(t, campaign.LogIDs, 2)
}

func TestDispatchAbortsWhenCampaignWriteFails(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	campaignRepo.createErr = apperrors.NewStorageUnavailable(errors.New("down"))
	customerRepo := &mockCustomerRepo{customers: testCustomers(2)}
	logRepo := newMockLogRepo()
	svc := newTestService(campaignRepo, customerRepo, logRepo)

	_, err := svc.Dispatch(uuid.New(), spendOver75, "msg")
	require.Error(t, err)
	assert.Empty(t, logRepo.logs)
}

func TestDispatchRejectsInvalidRules(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	svc := newTestService(campaignRepo, &mockCustomerRepo{}, newMockLogRepo())

	bad := segment.RuleGroup{
		Combinator: "AND",
		Rules:      []segment.Rule{{Field: "shoeSize", Operator: ">", Value: "9"}},
	}
	_, err := svc.Dispatch(uuid.New(), bad, "msg")
	require.Error(t, err)

	var ve *apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, campaignRepo.created)
}

func TestDispatchRejectsBlankMessage(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	svc := newTestService(campaignRepo, &mockCustomerRepo{}, newMockLogRepo())

	_, err := svc.Dispatch(uuid.New(), spendOver75, "   ")
	require.Error(t, err)

	var ve *apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, campaignRepo.created)
}

func TestDispatchPublishesReceipts(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	customerRepo := &mockCustomerRepo{customers: testCustomers(3)}
	logRepo := newMockLogRepo()
	svc := newTestService(campaignRepo, customerRepo, logRepo)

	pub := &mockReceiptPublisher{}
	svc.Receipts = pub

	campaign, err := svc.Dispatch(uuid.New(), spendOver75, "msg")
	require.NoError(t, err)

	assert.Len(t, pub.receipts, 3)
	for _, r := range pub.receipts {
		assert.Equal(t, campaign.ID, r.CampaignID)
		assert.Equal(t, model.StatusSent, r.Status)
	}
}

func TestDispatchSurvivesReceiptPublishFailure(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	customerRepo := &mockCustomerRepo{customers: testCustomers(2)}
	logRepo := newMockLogRepo()
	svc := newTestService(campaignRepo, customerRepo, logRepo)
	svc.Receipts = &mockReceiptPublisher{err: errors.New("broker gone")}

	campaign, err := svc.Dispatch(uuid.New(), spendOver75, "msg")
	require.NoError(t, err)
	assert.Len(t, campaign.LogIDs, 2)
}

func TestPreviewAudience(t *testing.T) {
	customerRepo := &mockCustomerRepo{count: 12}
	svc := newTestService(newMockCampaignRepo(), customerRepo, newMockLogRepo())

	count, err := svc.PreviewAudience(spendOver75)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestPreviewAudienceEmptyRules(t *testing.T) {
	customerRepo := &mockCustomerRepo{count: 12, countErr: errors.New("must not be called")}
	svc := newTestService(newMockCampaignRepo(), customerRepo, newMockLogRepo())

	count, err := svc.PreviewAudience(segment.RuleGroup{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHistoryDerivesStats(t *testing.T) {
	campaignRepo := newMockCampaignRepo()
	customerRepo := &mockCustomerRepo{customers: testCustomers(4)}
	logRepo := newMockLogRepo()
	svc := newTestService(campaignRepo, customerRepo, logRepo)

	userID := uuid.New()
	campaign, err := svc.Dispatch(userID, spendOver75, "msg")
	require.NoError(t, err)

	logRepo.stats[campaign.ID] = model.DeliveryStats{Sent: 3, Failed: 1}

	history, err := svc.History(userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DeliveryStats{Sent: 3, Failed: 1}, history[0].DeliveryStats)
	assert.Equal(t, 4, history[0].AudienceSize)
}
