// internal/model/order.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customerId"`
	Amount     float64   `db:"amount" json:"amount"`
	Date       time.Time `db:"date" json:"date"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
