package memory

import (
	"context"
	"time"

	"unimarket-backend/internal/domain"
)

type reviewRepo struct {
	s *Store
}

func (r *reviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	defer r.s.wlock()()
	st := r.s.st

	st.nextReviewID++
	rv.ID = st.nextReviewID
	rv.CreatedAt = time.Now()
	st.reviews = append(st.reviews, *rv)
	return nil
}

func (r *reviewRepo) ListByListing(ctx context.Context, listingID int64) ([]domain.Review, error) {
	defer r.s.rlock()()
	var out []domain.Review
	for i := len(r.s.st.reviews) - 1; i >= 0; i-- {
		if r.s.st.reviews[i].ListingID == listingID {
			out = append(out, r.s.st.reviews[i])
		}
	}
	return out, nil
}

func (r *reviewRepo) AverageRating(ctx context.Context, listingID int64) (float64, error) {
	defer r.s.rlock()()
	var sum, count int64
	for _, rv := range r.s.st.reviews {
		if rv.ListingID == listingID {
			sum += int64(rv.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}
