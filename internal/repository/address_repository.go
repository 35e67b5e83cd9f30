package repository

import (
	"context"
	"database/sql"

	"fraud-screening/internal/models"
)

// AddressRepository reads host addresses with state province and country
// already resolved, so callers never chase directory lookups.
type AddressRepository struct {
	db *sql.DB
}

func NewAddressRepository(db *sql.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) GetByID(ctx context.Context, addressID int64) (*models.Address, error) {
	query := `
		SELECT a.id,
		       COALESCE(a.first_name, ''), COALESCE(a.last_name, ''),
		       COALESCE(a.email, ''), COALESCE(a.phone_number, ''),
		       COALESCE(a.address1, ''), COALESCE(a.address2, ''),
		       COALESCE(a.city, ''), COALESCE(sp.name, ''),
		       COALESCE(c.two_letter_iso_code, ''), COALESCE(a.zip_postal_code, '')
		FROM addresses a
		LEFT JOIN state_provinces sp ON sp.id = a.state_province_id
		LEFT JOIN countries c ON c.id = a.country_id
		WHERE a.id = $1
	`
	var addr models.Address
	err := r.db.QueryRowContext(ctx, query, addressID).Scan(
		&addr.ID,
		&addr.FirstName,
		&addr.LastName,
		&addr.Email,
		&addr.PhoneNumber,
		&addr.Address1,
		&addr.Address2,
		&addr.City,
		&addr.StateProvince,
		&addr.CountryCode,
		&addr.ZipPostalCode,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
