// internal/model/communication_log.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Delivery statuses. Write-once in the dispatch path; the receipt upsert may
// overwrite PENDING.
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

type CommunicationLog struct {
	ID            uuid.UUID `db:"id" json:"id"`
	CampaignID    uuid.UUID `db:"campaign_id" json:"campaignId"`
	CustomerID    uuid.UUID `db:"customer_id" json:"customerId"`
	CustomerEmail string    `db:"customer_email" json:"customerEmail"`
	Message       string    `db:"message" json:"message"`
	Status        string    `db:"status" json:"status"`
	Error         string    `db:"error" json:"error,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
