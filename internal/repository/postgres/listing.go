package postgres

import (
	"context"
	"database/sql"
	"errors"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/repository"
)

type listingRepository struct {
	db DBTX
}

func NewListingRepository(db DBTX) repository.ListingRepository {
	return &listingRepository{db: db}
}

const listingColumns = `id, seller_id, name, description, price_minor, category, rating, in_stock, created_at`

func (r *listingRepository) Create(ctx context.Context, l *domain.Listing) error {
	query := `INSERT INTO listings (seller_id, name, description, price_minor, category, rating, in_stock, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		l.SellerID, l.Name, l.Description, l.PriceMinor, l.Category, l.Rating, l.InStock,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *listingRepository) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return l, err
}

func (r *listingRepository) Update(ctx context.Context, l *domain.Listing) error {
	query := `UPDATE listings SET name = $1, description = $2, price_minor = $3, category = $4,
	          rating = $5, in_stock = $6 WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, l.Name, l.Description, l.PriceMinor, l.Category, l.Rating, l.InStock, l.ID)
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

func (r *listingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
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

// ListVisible hides the inventory of banned sellers from the storefront.
func (r *listingRepository) ListVisible(ctx context.Context) ([]domain.Listing, error) {
	query := `SELECT l.id, l.seller_id, l.name, l.description, l.price_minor, l.category, l.rating, l.in_stock, l.created_at
	          FROM listings l JOIN accounts a ON a.id = l.seller_id
	          WHERE a.ban_type IS NULL ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE seller_id = $1 ORDER BY id`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *listingRepository) DeleteBySeller(ctx context.Context, sellerID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE seller_id = $1`, sellerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.Name, &l.Description, &l.PriceMinor, &l.Category, &l.Rating, &l.InStock, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanListings(rows *sql.Rows) ([]domain.Listing, error) {
	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}
