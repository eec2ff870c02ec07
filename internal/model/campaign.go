// internal/model/campaign.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Campaign struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"userId"`
	SegmentRules json.RawMessage `db:"segment_rules" json:"segmentRules"`
	Message      string          `db:"message" json:"message"`
	// AudienceSize is snapshotted at creation time and never recomputed.
	AudienceSize int         `db:"audience_size" json:"audienceSize"`
	LogIDs       []uuid.UUID `db:"log_ids" json:"communicationLogs"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
}

// CampaignWithStats is a Campaign plus delivery stats derived from its
// communication logs at read time.
type CampaignWithStats struct {
	Campaign
	DeliveryStats DeliveryStats `json:"deliveryStats"`
}

type DeliveryStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
