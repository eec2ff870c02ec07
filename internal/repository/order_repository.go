package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
)

type OrderRepositoryInterface interface {
	Create(o *model.Order) error
	ListAll() ([]*model.Order, error)
	CustomerExists(id uuid.UUID) (bool, error)
}

type OrderRepository struct {
	DB *sql.DB
}

func (r *OrderRepository) Create(o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	if o.Date.IsZero() {
		o.Date = o.CreatedAt
	}

	query := `
        INSERT INTO orders (id, customer_id, amount, date, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.DB.Exec(query, o.ID, o.CustomerID, o.Amount, o.Date, o.CreatedAt)
	if err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

func (r *OrderRepository) ListAll() ([]*model.Order, error) {
	query := `SELECT id, customer_id, amount, date, created_at FROM orders ORDER BY date DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	for rows.Next() {
		o := &model.Order{}
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Amount, &o.Date, &o.CreatedAt); err != nil {
			return nil, apperrors.NewStorageUnavailable(err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return orders, nil
}

func (r *OrderRepository) CustomerExists(id uuid.UUID) (bool, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM customers WHERE id=$1`, id).Scan(&count)
	if err != nil {
		return false, apperrors.NewStorageUnavailable(err)
	}
	return count > 0, nil
}

var _ OrderRepositoryInterface = (*OrderRepository)(nil)
