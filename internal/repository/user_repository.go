package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
)

type UserRepositoryInterface interface {
	GetByGoogleID(googleID string) (*model.User, error)
	GetByID(id uuid.UUID) (*model.User, error)
	Create(u *model.User) error
}

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, google_id, email, name, created_at, updated_at`

func (r *UserRepository) GetByGoogleID(googleID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id=$1`
	var u model.User
	err := r.DB.QueryRow(query, googleID).Scan(&u.ID, &u.GoogleID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("user", googleID)
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var u model.User
	err := r.DB.QueryRow(query, id).Scan(&u.ID, &u.GoogleID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("user", id.String())
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
        INSERT INTO users (id, google_id, email, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	if _, err := r.DB.Exec(query, u.ID, u.GoogleID, u.Email, u.Name, u.CreatedAt, u.UpdatedAt); err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
