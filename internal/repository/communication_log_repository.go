package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
)

type CommunicationLogRepositoryInterface interface {
	Create(l *model.CommunicationLog) error
	ListAll() ([]*model.CommunicationLog, error)
	StatsByCampaign(campaignID uuid.UUID) (model.DeliveryStats, error)
	UpsertReceipt(campaignID, customerID uuid.UUID, status, errMsg string) error
}

type CommunicationLogRepository struct {
	DB *sql.DB
}

const logColumns = `id, campaign_id, customer_id, customer_email, message, status, error, created_at`

func (r *CommunicationLogRepository) Create(l *model.CommunicationLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	if l.Status == "" {
		l.Status = model.StatusPending
	}

	query := `
        INSERT INTO communication_logs (id, campaign_id, customer_id, customer_email, message, status, error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.DB.Exec(query, l.ID, l.CampaignID, l.CustomerID, l.CustomerEmail, l.Message, l.Status, l.Error, l.CreatedAt)
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

func (r *CommunicationLogRepository) ListAll() ([]*model.CommunicationLog, error) {
	query := `SELECT ` + logColumns + ` FROM communication_logs ORDER BY created_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	defer rows.Close()

	logs := []*model.CommunicationLog{}
	for rows.Next() {
		l := &model.CommunicationLog{}
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.CustomerID, &l.CustomerEmail, &l.Message, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, apperrors.NewStorageUnavailable(err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return logs, nil
}

func (r *CommunicationLogRepository) StatsByCampaign(campaignID uuid.UUID) (model.DeliveryStats, error) {
	query := `SELECT status, COUNT(*) FROM communication_logs WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return model.DeliveryStats{}, apperrors.NewStorageUnavailable(err)
	}
	defer rows.Close()

	var stats model.DeliveryStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.DeliveryStats{}, apperrors.NewStorageUnavailable(err)
		}
		switch status {
		case model.StatusSent:
			stats.Sent = count
		case model.StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return model.DeliveryStats{}, apperrors.NewStorageUnavailable(err)
	}
	return stats, nil
}

// UpsertReceipt records a delivery outcome keyed by (campaign, customer).
// An existing log row is overwritten, otherwise a bare one is inserted, so
// vendor retries and out-of-order receipts are both safe.
func (r *CommunicationLogRepository) UpsertReceipt(campaignID, customerID uuid.UUID, status, errMsg string) error {
	query := `
        INSERT INTO communication_logs (id, campaign_id, customer_id, customer_email, message, status, error, created_at)
        VALUES ($1, $2, $3, '', '', $4, $5, $6)
        ON CONFLICT (campaign_id, customer_id)
        DO UPDATE SET status=EXCLUDED.status, error=EXCLUDED.error
    `
	_, err := r.DB.Exec(query, uuid.New(), campaignID, customerID, status, errMsg, time.Now())
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

var _ CommunicationLogRepositoryInterface = (*CommunicationLogRepository)(nil)
