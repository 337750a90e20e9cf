package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/repository"
)

type orderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (reference, buyer_id, seller_id, total_minor, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		o.Reference, o.BuyerID, o.SellerID, o.TotalMinor, o.Status,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO order_items (order_id, listing_id, name, quantity, unit_price_minor) VALUES ($1, $2, $3, $4, $5)`,
			o.ID, it.ListingID, it.Name, it.Quantity, it.UnitPriceMinor)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, reference, buyer_id, seller_id, total_minor, status, created_at, seller_confirmed_at
		 FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus is a compare-and-set on the status column. Zero rows affected
// means the order moved (or never was) out of the expected state.
func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	if !domain.CanTransitionTo(from, to) {
		return domain.ErrInvalidTransition
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *orderRepository) StampSellerConfirmed(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET seller_confirmed_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.Order, error) {
	query := `SELECT id, reference, buyer_id, seller_id, total_minor, status, created_at, seller_confirmed_at
	          FROM orders WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, accountID)
}

func (r *orderRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	query := `SELECT id, reference, buyer_id, seller_id, total_minor, status, created_at, seller_confirmed_at
	          FROM orders WHERE status = $1 AND created_at < $2`
	return r.list(ctx, query, domain.OrderStatusPendingPayment, olderThan)
}

func (r *orderRepository) HasCompletedPurchase(ctx context.Context, buyerID, listingID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM orders o JOIN order_items i ON i.order_id = o.id
	            WHERE o.buyer_id = $1 AND o.status = $2 AND i.listing_id = $3)`
	err := r.db.QueryRowContext(ctx, query, buyerID, domain.OrderStatusCompleted, listingID).Scan(&exists)
	return exists, err
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT listing_id, name, quantity, unit_price_minor FROM order_items WHERE order_id = $1 ORDER BY listing_id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ListingID, &it.Name, &it.Quantity, &it.UnitPriceMinor); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var confirmedAt sql.NullTime
	err := row.Scan(&o.ID, &o.Reference, &o.BuyerID, &o.SellerID, &o.TotalMinor, &o.Status, &o.CreatedAt, &confirmedAt)
	if err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		o.SellerConfirmedAt = &t
	}
	return &o, nil
}
