package repository

import (
	"context"
	"database/sql"

	"fraud-screening/internal/models"
)

// CustomerRepository reads host customer records.
type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByID(ctx context.Context, customerID int64) (*models.Customer, error) {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(last_ip_address, '')
		FROM customers WHERE id = $1
	`
	var customer models.Customer
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&customer.ID,
		&customer.Email,
		&customer.LastIPAddress,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
