package service

import (
	"context"
	"fmt"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/logger"
	"unimarket-backend/internal/repository"
	"unimarket-backend/internal/security"
)

type catalogService struct {
	store     repository.Store
	sanitizer *security.Sanitizer
	limiter   *security.RateLimiter
	audit     *security.AuditLog
}

func NewCatalogService(store repository.Store, sanitizer *security.Sanitizer, limiter *security.RateLimiter, audit *security.AuditLog) CatalogService {
	return &catalogService{
		store:     store,
		sanitizer: sanitizer,
		limiter:   limiter,
		audit:     audit,
	}
}

func (s *catalogService) AddListing(ctx context.Context, sellerID int64, listing *domain.Listing) error {
	if err := s.limiter.Allow(fmt.Sprintf("catalog:%d", sellerID)); err != nil {
		return err
	}

	seller, err := s.store.Accounts().GetByID(ctx, sellerID)
	if err != nil {
		return err
	}
	if seller.IsBanned() {
		return domain.ErrAccountSuspended
	}
	if seller.Role != domain.RoleSeller {
		return fmt.Errorf("%w: only sellers can create listings", domain.ErrRoleNotAllowed)
	}

	clean, err := s.sanitizer.SanitizeAll(listing.Name, listing.Description, listing.Category)
	if err != nil {
		return err
	}
	listing.Name, listing.Description, listing.Category = clean[0], clean[1], clean[2]

	if listing.Name == "" {
		return fmt.Errorf("%w: listing name is required", domain.ErrInvalidAmount)
	}
	if listing.PriceMinor <= 0 {
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidAmount)
	}

	listing.SellerID = sellerID
	listing.Rating = 0
	if err := s.store.Listings().Create(ctx, listing); err != nil {
		return err
	}

	logger.Info("listing created", "listing_id", listing.ID, "seller_id", sellerID)
	return nil
}

func (s *catalogService) UpdateListing(ctx context.Context, sellerID int64, listing *domain.Listing) error {
	current, err := s.store.Listings().GetByID(ctx, listing.ID)
	if err != nil {
		return err
	}
	if current.SellerID != sellerID {
		s.audit.Record(security.SeverityHigh, fmt.Sprintf(
			"account %d attempted to edit listing %d it does not own", sellerID, listing.ID))
		return domain.ErrUnauthorized
	}

	clean, err := s.sanitizer.SanitizeAll(listing.Name, listing.Description, listing.Category)
	if err != nil {
		return err
	}
	listing.Name, listing.Description, listing.Category = clean[0], clean[1], clean[2]

	if listing.PriceMinor <= 0 {
		return fmt.Errorf("%w: price must be positive", domain.ErrInvalidAmount)
	}

	// Open orders are unaffected: they carry their own price snapshot.
	listing.Rating = current.Rating
	return s.store.Listings().Update(ctx, listing)
}

func (s *catalogService) DeleteListing(ctx context.Context, callerID, listingID int64) error {
	listing, err := s.store.Listings().GetByID(ctx, listingID)
	if err != nil {
		return err
	}

	if listing.SellerID != callerID {
		caller, err := s.store.Accounts().GetByID(ctx, callerID)
		if err != nil {
			return err
		}
		if caller.Role != domain.RoleAdmin {
			s.audit.Record(security.SeverityHigh, fmt.Sprintf(
				"account %d attempted to delete listing %d it does not own", callerID, listingID))
			return domain.ErrUnauthorized
		}
	}

	if err := s.store.Listings().Delete(ctx, listingID); err != nil {
		return err
	}
	logger.Info("listing deleted", "listing_id", listingID, "by", callerID)
	return nil
}

func (s *catalogService) Storefront(ctx context.Context) ([]domain.Listing, error) {
	return s.store.Listings().ListVisible(ctx)
}

func (s *catalogService) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Listing, error) {
	return s.store.Listings().ListBySeller(ctx, sellerID)
}

func (s *catalogService) SubmitReview(ctx context.Context, authorID, listingID int64, rating int32, comment string) (*domain.Review, error) {
	if err := s.limiter.Allow(fmt.Sprintf("reviews:%d", authorID)); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidAmount)
	}

	cleanComment, err := s.sanitizer.Sanitize(comment)
	if err != nil {
		return nil, err
	}

	author, err := s.store.Accounts().GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.IsBanned() {
		return nil, domain.ErrAccountSuspended
	}

	purchased, err := s.store.Orders().HasCompletedPurchase(ctx, authorID, listingID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		s.audit.Record(security.SeverityMedium, fmt.Sprintf(
			"account %d attempted to review listing %d without a completed purchase", authorID, listingID))
		return nil, fmt.Errorf("%w: reviews require a completed purchase", domain.ErrUnauthorized)
	}

	review := &domain.Review{
		ListingID:        listingID,
		AuthorID:         authorID,
		AuthorName:       author.Name,
		Rating:           rating,
		Comment:          cleanComment,
		VerifiedPurchase: true,
	}

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		listing, err := tx.Listings().GetByID(ctx, listingID)
		if err != nil {
			return err
		}
		if err := tx.Reviews().Create(ctx, review); err != nil {
			return err
		}
		avg, err := tx.Reviews().AverageRating(ctx, listingID)
		if err != nil {
			return err
		}
		listing.Rating = avg
		return tx.Listings().Update(ctx, listing)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("review submitted", "listing_id", listingID, "author_id", authorID, "rating", rating)
	return review, nil
}

func (s *catalogService) ListReviews(ctx context.Context, listingID int64) ([]domain.Review, error) {
	return s.store.Reviews().ListByListing(ctx, listingID)
}
