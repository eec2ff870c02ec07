// internal/service/delivery_service.go
package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/repository"
)

// DeliveryService exposes the communication log: listing for the dashboard
// and the vendor receipt callback.
type DeliveryService struct {
	LogRepo repository.CommunicationLogRepositoryInterface
}

func NewDeliveryService(logRepo repository.CommunicationLogRepositoryInterface) *DeliveryService {
	return &DeliveryService{LogRepo: logRepo}
}

func (s *DeliveryService) ListLogs() ([]*model.CommunicationLog, error) {
	return s.LogRepo.ListAll()
}

// RecordReceipt applies a delivery receipt to the matching log entry. The
// write is an overwrite keyed by (campaign, customer), so replays are safe.
func (s *DeliveryService) RecordReceipt(campaignID, customerID uuid.UUID, status, errMsg string) error {
	if status != model.StatusPending && status != model.StatusSent && status != model.StatusFailed {
		return apperrors.NewValidation(fmt.Sprintf("unknown delivery status %q", status))
	}
	return s.LogRepo.UpsertReceipt(campaignID, customerID, status, errMsg)
}
