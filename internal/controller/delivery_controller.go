// internal/controller/delivery_controller.go
package controller

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/engagecrm/engage-backend/internal/httputil"
	"github.com/engagecrm/engage-backend/internal/service"
)

type DeliveryController struct {
	DeliveryService *service.DeliveryService
}

func (c *DeliveryController) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := c.DeliveryService.ListLogs()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, logs)
}

type receiptRequest struct {
	CampaignID uuid.UUID `json:"campaignId" validate:"required"`
	CustomerID uuid.UUID `json:"customerId" validate:"required"`
	Status     string    `json:"status" validate:"required"`
	Error      string    `json:"error"`
}

// ReceiveReceipt is the vendor callback: it applies a delivery outcome to the
// matching log entry. Safe to replay.
func (c *DeliveryController) ReceiveReceipt(w http.ResponseWriter, r *http.Request) {
	var body receiptRequest
	if !httputil.Decode(w, r, &body) {
		return
	}
	if err := checkRequest(body); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := c.DeliveryService.RecordReceipt(body.CampaignID, body.CustomerID, body.Status, body.Error); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
