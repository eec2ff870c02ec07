package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/segment"
)

type CustomerRepositoryInterface interface {
	Create(c *model.Customer) error
	GetByID(id uuid.UUID) (*model.Customer, error)
	ListAll() ([]*model.Customer, error)
	FindBySegment(pred segment.Predicate) ([]*model.Customer, error)
	CountBySegment(pred segment.Predicate) (int, error)
}

type CustomerRepository struct {
	DB *sql.DB
}

const customerColumns = `id, name, email, total_spend, visits, last_active, created_at, updated_at`

func (r *CustomerRepository) Create(c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.LastActive.IsZero() {
		c.LastActive = now
	}

	query := `
        INSERT INTO customers (id, name, email, total_spend, visits, last_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.DB.Exec(query, c.ID, c.Name, c.Email, c.TotalSpend, c.Visits, c.LastActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.NewDuplicate("email")
		}
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(id uuid.UUID) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
	var c model.Customer
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.TotalSpend, &c.Visits, &c.LastActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("customer", id.String())
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return &c, nil
}

func (r *CustomerRepository) ListAll() ([]*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// FindBySegment runs a translated rule predicate against the customers table.
// An Empty predicate matches nobody.
func (r *CustomerRepository) FindBySegment(pred segment.Predicate) ([]*model.Customer, error) {
	if pred.Empty {
		return []*model.Customer{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE %s ORDER BY created_at DESC`, customerColumns, pred.Where)
	rows, err := r.DB.Query(query, pred.Args...)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func (r *CustomerRepository) CountBySegment(pred segment.Predicate) (int, error) {
	if pred.Empty {
		return 0, nil
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM customers WHERE %s`, pred.Where)
	var count int
	if err := r.DB.QueryRow(query, pred.Args...).Scan(&count); err != nil {
		return 0, apperrors.NewStorageUnavailable(err)
	}
	return count, nil
}

func scanCustomers(rows *sql.Rows) ([]*model.Customer, error) {
	customers := []*model.Customer{}
	for rows.Next() {
		c := &model.Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.TotalSpend, &c.Visits, &c.LastActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperrors.NewStorageUnavailable(err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return customers, nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
