package repository

import (
	"context"
	"database/sql"

	"fraud-screening/internal/models"
)

// OrderRepository reads the host platform's order records and applies status
// updates. Everything beyond the status field is read-only here.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID int64) (*models.Order, error) {
	query := `
		SELECT id, order_guid, customer_id, billing_address_id, shipping_address_id,
		       order_status_id, order_total, customer_currency_code,
		       COALESCE(card_number, ''), COALESCE(payment_method_system_name, ''), created_at
		FROM orders WHERE id = $1
	`
	var order models.Order
	var shippingAddressID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.GUID,
		&order.CustomerID,
		&order.BillingAddressID,
		&shippingAddressID,
		&order.OrderStatusID,
		&order.OrderTotal,
		&order.CustomerCurrencyCode,
		&order.CardNumber,
		&order.PaymentMethodSystemName,
		&order.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if shippingAddressID.Valid {
		order.ShippingAddressID = &shippingAddressID.Int64
	}
	return &order, nil
}

// UpdateStatus persists a changed order status id.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *models.Order) error {
	query := `UPDATE orders SET order_status_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, order.OrderStatusID, order.ID)
	return err
}

// GetItems returns the purchased lines with the product SKU resolved. The
// SKU may be empty when the product defines none; callers fall back to the
// numeric product id.
func (r *OrderRepository) GetItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT oi.product_id, COALESCE(p.sku, ''), oi.quantity
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Sku, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
