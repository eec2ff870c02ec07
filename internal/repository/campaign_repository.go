package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id uuid.UUID) (*model.Campaign, error)
	ListByUser(userID uuid.UUID) ([]*model.Campaign, error)
	AppendLogIDs(campaignID uuid.UUID, logIDs []uuid.UUID) error
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	if c.SegmentRules == nil {
		c.SegmentRules = json.RawMessage(`{"rules":[],"combinator":"AND"}`)
	}

	query := `
        INSERT INTO campaigns (id, user_id, segment_rules, message, audience_size, log_ids, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.DB.Exec(query, c.ID, c.UserID, []byte(c.SegmentRules), c.Message, c.AudienceSize, uuidArray(c.LogIDs), c.CreatedAt)
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(id uuid.UUID) (*model.Campaign, error) {
	query := `
        SELECT id, user_id, segment_rules, message, audience_size, log_ids, created_at
        FROM campaigns WHERE id=$1
    `
	c := &model.Campaign{}
	var rules []byte
	var logIDs pq.StringArray
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.UserID, &rules, &c.Message, &c.AudienceSize, &logIDs, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("campaign", id.String())
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	c.SegmentRules = json.RawMessage(rules)
	c.LogIDs, err = parseUUIDs(logIDs)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return c, nil
}

// ListByUser returns the user's campaigns newest first.
func (r *CampaignRepository) ListByUser(userID uuid.UUID) ([]*model.Campaign, error) {
	query := `
        SELECT id, user_id, segment_rules, message, audience_size, log_ids, created_at
        FROM campaigns WHERE user_id=$1 ORDER BY created_at DESC
    `
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		var rules []byte
		var logIDs pq.StringArray
		if err := rows.Scan(&c.ID, &c.UserID, &rules, &c.Message, &c.AudienceSize, &logIDs, &c.CreatedAt); err != nil {
			return nil, apperrors.NewStorageUnavailable(err)
		}
		c.SegmentRules = json.RawMessage(rules)
		if c.LogIDs, err = parseUUIDs(logIDs); err != nil {
			return nil, apperrors.NewStorageUnavailable(err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return campaigns, nil
}

// AppendLogIDs adds the dispatch run's log ids to the campaign in a single
// update once all sends have been attempted.
func (r *CampaignRepository) AppendLogIDs(campaignID uuid.UUID, logIDs []uuid.UUID) error {
	query := `UPDATE campaigns SET log_ids = log_ids || $1 WHERE id=$2`
	res, err := r.DB.Exec(query, uuidArray(logIDs), campaignID)
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFound("campaign", campaignID.String())
	}
	return nil
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw pq.StringArray) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
