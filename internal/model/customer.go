// internal/model/customer.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	TotalSpend float64   `db:"total_spend" json:"totalSpend"`
	Visits     int       `db:"visits" json:"visits"`
	LastActive time.Time `db:"last_active" json:"lastActive"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// SegmentedCustomer is a Customer annotated with an AI-generated segment
// label. The label is never persisted back to the store.
type SegmentedCustomer struct {
	Customer
	Segment string `json:"segment"`
}
