// internal/controller/customer_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/engagecrm/engage-backend/internal/ai"
	"github.com/engagecrm/engage-backend/internal/httputil"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/repository"
)

type CustomerController struct {
	CustomerRepo repository.CustomerRepositoryInterface
	// Segmenter is nil when no AI key is configured.
	Segmenter *ai.Segmenter
}

type createCustomerRequest struct {
	Name       string     `json:"name" validate:"required"`
	Email      string     `json:"email" validate:"required,email"`
	TotalSpend float64    `json:"totalSpend" validate:"gte=0"`
	Visits     int        `json:"visits" validate:"gte=0"`
	LastActive *time.Time `json:"lastActive"`
}

func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var body createCustomerRequest
	if !httputil.Decode(w, r, &body) {
		return
	}
	if err := checkRequest(body); err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer := &model.Customer{
		Name:       body.Name,
		Email:      body.Email,
		TotalSpend: body.TotalSpend,
		Visits:     body.Visits,
	}
	if body.LastActive != nil {
		customer.LastActive = *body.LastActive
	}

	if err := c.CustomerRepo.Create(customer); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, customer)
}

func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := c.CustomerRepo.ListAll()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, customers)
}

// SegmentCustomers returns every customer annotated with an AI label. The
// whole endpoint is best-effort: provider trouble yields fallback labels,
// never a failure.
func (c *CustomerController) SegmentCustomers(w http.ResponseWriter, r *http.Request) {
	if c.Segmenter == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "AI segmentation is not configured")
		return
	}

	customers, err := c.CustomerRepo.ListAll()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	segmented := c.Segmenter.SegmentAll(r.Context(), customers)
	if segmented == nil {
		segmented = []*model.SegmentedCustomer{}
	}
	httputil.JSON(w, http.StatusOK, segmented)
}
