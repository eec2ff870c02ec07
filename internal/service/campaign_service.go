// internal/service/campaign_service.go
package service

import (
	"encoding/json"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/queue"
	"github.com/engagecrm/engage-backend/internal/repository"
	"github.com/engagecrm/engage-backend/internal/segment"
)

// dispatchWorkers bounds how many simulated sends run at once.
const dispatchWorkers = 10

// OutcomeFunc decides the simulated delivery outcome for one customer. It
// returns a final status plus an error message for failures.
type OutcomeFunc func(c *model.Customer) (status, errMsg string)

// MockVendorOutcome delivers ~90% of messages and fails the rest with the
// vendor's canned rejection reason.
func MockVendorOutcome(_ *model.Customer) (string, string) {
	if rand.Float64() < 0.9 {
		return model.StatusSent, ""
	}
	return model.StatusFailed, "Invalid email address"
}

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	LogRepo      repository.CommunicationLogRepositoryInterface
	Translator   *segment.Translator
	Outcome      OutcomeFunc
	// Receipts is optional: when set, each outcome is also published as a
	// vendor-style receipt. Publish failures never fail the dispatch.
	Receipts queue.ReceiptPublisher
}

func NewCampaignService(
	campaignRepo repository.CampaignRepositoryInterface,
	customerRepo repository.CustomerRepositoryInterface,
	logRepo repository.CommunicationLogRepositoryInterface,
) *CampaignService {
	return &CampaignService{
		CampaignRepo: campaignRepo,
		CustomerRepo: customerRepo,
		LogRepo:      logRepo,
		Translator:   segment.NewTranslator(),
		Outcome:      MockVendorOutcome,
	}
}

// Dispatch creates a campaign for the matched audience and runs the simulated
// send for every member. The audience size is snapshotted on the campaign at
// creation; later customer changes never alter it. Individual send failures
// are logged and skipped, so one bad customer cannot abort the run.
func (s *CampaignService) Dispatch(userID uuid.UUID, rules segment.RuleGroup, message string) (*model.Campaign, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidation("message must not be empty")
	}

	pred, err := s.Translator.Translate(rules)
	if err != nil {
		return nil, err
	}

	customers := []*model.Customer{}
	if !pred.Empty {
		customers, err = s.CustomerRepo.FindBySegment(pred)
		if err != nil {
			return nil, err
		}
	}

	rawRules, err := json.Marshal(rules)
	if err != nil {
		return nil, err
	}

	campaign := &model.Campaign{
		UserID:       userID,
		SegmentRules: rawRules,
		Message:      message,
		AudienceSize: len(customers),
		LogIDs:       []uuid.UUID{},
	}
	if err := s.CampaignRepo.Create(campaign); err != nil {
		return nil, err
	}

	if len(customers) == 0 {
		return campaign, nil
	}

	logIDs := s.deliverAll(campaign, customers)
	if len(logIDs) > 0 {
		if err := s.CampaignRepo.AppendLogIDs(campaign.ID, logIDs); err != nil {
			log.WithError(err).WithField("campaignId", campaign.ID).
				Error("failed to attach communication logs")
		} else {
			campaign.LogIDs = logIDs
		}
	}

	return campaign, nil
}

// deliverAll fans the audience out over a bounded worker pool and returns the
// ids of every log it managed to write.
func (s *CampaignService) deliverAll(campaign *model.Campaign, customers []*model.Customer) []uuid.UUID {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		logIDs = make([]uuid.UUID, 0, len(customers))
	)
	sem := make(chan struct{}, dispatchWorkers)

	for _, c := range customers {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *model.Customer) {
			defer wg.Done()
			defer func() { <-sem }()

			id, err := s.deliverOne(campaign, c)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"campaignId": campaign.ID,
					"customerId": c.ID,
				}).Warn("send skipped")
				return
			}
			mu.Lock()
			logIDs = append(logIDs, id)
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	return logIDs
}

func (s *CampaignService) deliverOne(campaign *model.Campaign, c *model.Customer) (uuid.UUID, error) {
	status, errMsg := s.Outcome(c)

	entry := &model.CommunicationLog{
		CampaignID:    campaign.ID,
		CustomerID:    c.ID,
		CustomerEmail: c.Email,
		Message:       campaign.Message,
		Status:        status,
		Error:         errMsg,
	}
	if err := s.LogRepo.Create(entry); err != nil {
		return uuid.Nil, err
	}

	if s.Receipts != nil {
		receipt := queue.DeliveryReceipt{
			CampaignID: campaign.ID,
			CustomerID: c.ID,
			Status:     status,
			Error:      errMsg,
		}
		if err := s.Receipts.PublishReceipt(receipt); err != nil {
			log.WithError(err).Warn("receipt publish failed")
		}
	}

	return entry.ID, nil
}

// PreviewAudience counts the customers a rule group would reach without
// creating anything.
func (s *CampaignService) PreviewAudience(rules segment.RuleGroup) (int, error) {
	pred, err := s.Translator.Translate(rules)
	if err != nil {
		return 0, err
	}
	if pred.Empty {
		return 0, nil
	}
	return s.CustomerRepo.CountBySegment(pred)
}

// History lists the user's campaigns newest first, each with delivery stats
// derived from its communication logs.
func (s *CampaignService) History(userID uuid.UUID) ([]*model.CampaignWithStats, error) {
	campaigns, err := s.CampaignRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.CampaignWithStats, 0, len(campaigns))
	for _, c := range campaigns {
		stats, err := s.LogRepo.StatsByCampaign(c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &model.CampaignWithStats{Campaign: *c, DeliveryStats: stats})
	}
	return out, nil
}
