package postgres

import (
	"context"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/repository"
)

type reviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `INSERT INTO reviews (listing_id, author_id, author_name, rating, comment, verified_purchase, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		rv.ListingID, rv.AuthorID, rv.AuthorName, rv.Rating, rv.Comment, rv.VerifiedPurchase,
	).Scan(&rv.ID, &rv.CreatedAt)
}

func (r *reviewRepository) ListByListing(ctx context.Context, listingID int64) ([]domain.Review, error) {
	query := `SELECT id, listing_id, author_id, author_name, rating, COALESCE(comment, ''), verified_purchase, created_at
	          FROM reviews WHERE listing_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ListingID, &rv.AuthorID, &rv.AuthorName, &rv.Rating, &rv.Comment, &rv.VerifiedPurchase, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *reviewRepository) AverageRating(ctx context.Context, listingID int64) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE listing_id = $1`, listingID).Scan(&avg)
	return avg, err
}
