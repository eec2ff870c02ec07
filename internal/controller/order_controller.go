// internal/controller/order_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/httputil"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/repository"
)

type OrderController struct {
	OrderRepo repository.OrderRepositoryInterface
}

type createOrderRequest struct {
	CustomerID uuid.UUID  `json:"customerId" validate:"required"`
	Amount     float64    `json:"amount" validate:"gt=0"`
	Date       *time.Time `json:"date"`
}

func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderRequest
	if !httputil.Decode(w, r, &body) {
		return
	}
	if err := checkRequest(body); err != nil {
		httputil.WriteError(w, err)
		return
	}

	exists, err := c.OrderRepo.CustomerExists(body.CustomerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !exists {
		httputil.WriteError(w, apperrors.NewValidation("customer does not exist"))
		return
	}

	order := &model.Order{CustomerID: body.CustomerID, Amount: body.Amount}
	if body.Date != nil {
		order.Date = *body.Date
	}

	if err := c.OrderRepo.Create(order); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, order)
}

func (c *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := c.OrderRepo.ListAll()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, orders)
}
