// internal/controller/campaign_controller.go
package controller

import (
	"net/http"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/auth"
	"github.com/engagecrm/engage-backend/internal/httputil"
	"github.com/engagecrm/engage-backend/internal/segment"
	"github.com/engagecrm/engage-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

type createCampaignRequest struct {
	SegmentRules segment.RuleGroup `json:"segmentRules"`
	Message      string            `json:"message" validate:"required"`
}

// CreateCampaign persists the campaign and runs the send for the matched
// audience in one request, returning the campaign with its log references.
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.NewAuth("not authenticated"))
		return
	}

	var body createCampaignRequest
	if !httputil.Decode(w, r, &body) {
		return
	}
	if err := checkRequest(body); err != nil {
		httputil.WriteError(w, err)
		return
	}

	campaign, err := c.CampaignService.Dispatch(userID, body.SegmentRules, body.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.NewAuth("not authenticated"))
		return
	}

	history, err := c.CampaignService.History(userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, history)
}

type previewRequest struct {
	SegmentRules segment.RuleGroup `json:"segmentRules"`
}

// PreviewAudience sizes a rule group without creating anything.
func (c *CampaignController) PreviewAudience(w http.ResponseWriter, r *http.Request) {
	var body previewRequest
	if !httputil.Decode(w, r, &body) {
		return
	}

	count, err := c.CampaignService.PreviewAudience(body.SegmentRules)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int{"audienceSize": count})
}
