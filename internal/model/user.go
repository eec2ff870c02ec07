// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// User is created lazily on first successful OAuth login and never deleted.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	GoogleID  string    `db:"google_id" json:"googleId"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
