package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// AttributeRepository persists generic key-value attributes attached to host
// entities (orders, customers). Writes overwrite; attributes are never
// deleted with the entity still present.
type AttributeRepository struct {
	db *sql.DB
}

func NewAttributeRepository(db *sql.DB) *AttributeRepository {
	return &AttributeRepository{db: db}
}

// Save upserts a single attribute value.
func (r *AttributeRepository) Save(ctx context.Context, keyGroup string, entityID int64, key, value string) error {
	query := `
		INSERT INTO generic_attributes (key_group, entity_id, attr_key, attr_value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key_group, entity_id, attr_key)
		DO UPDATE SET attr_value = EXCLUDED.attr_value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, keyGroup, entityID, key, value, time.Now())
	return err
}

// Get returns the attribute value, or an empty string when it was never set.
func (r *AttributeRepository) Get(ctx context.Context, keyGroup string, entityID int64, key string) (string, error) {
	query := `
		SELECT attr_value FROM generic_attributes
		WHERE key_group = $1 AND entity_id = $2 AND attr_key = $3
	`
	var value string
	err := r.db.QueryRowContext(ctx, query, keyGroup, entityID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetAll returns every attribute stored for an entity, keyed by name.
func (r *AttributeRepository) GetAll(ctx context.Context, keyGroup string, entityID int64) (map[string]string, error) {
	query := `
		SELECT attr_key, attr_value FROM generic_attributes
		WHERE key_group = $1 AND entity_id = $2
	`
	rows, err := r.db.QueryContext(ctx, query, keyGroup, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		attrs[key] = value
	}
	return attrs, rows.Err()
}
