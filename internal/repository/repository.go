package repository

import (
	"context"
	"time"

	"unimarket-backend/internal/domain"
)

// Store bundles the repositories with the transaction boundary. Every
// operation that moves funds runs inside ExecTx so the ledger append and the
// status write commit or roll back as one unit.
type Store interface {
	Accounts() AccountRepository
	Listings() ListingRepository
	Orders() OrderRepository
	Ledger() LedgerRepository
	Reviews() ReviewRepository

	// ExecTx runs fn against a Store view whose mutations are applied
	// atomically: all of them on success, none of them on error.
	ExecTx(ctx context.Context, fn func(Store) error) error
}

type AccountRepository interface {
	// Create inserts the account and assigns its ID. A taken email fails
	// with domain.ErrDuplicateEmail.
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	// Update persists profile, ban and referral fields. It never writes the
	// balance; balances move only through the ledger.
	Update(ctx context.Context, account *domain.Account) error
	IncrementReferrals(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Account, error)
	// ListExpiredPermanentBans returns permanently banned accounts whose
	// scheduled deletion time has passed.
	ListExpiredPermanentBans(ctx context.Context, now time.Time) ([]domain.Account, error)
	Delete(ctx context.Context, id int64) error
}

type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	Update(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id int64) error
	// ListVisible returns listings whose sellers are not banned.
	ListVisible(ctx context.Context) ([]domain.Listing, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Listing, error)
	DeleteBySeller(ctx context.Context, sellerID int64) (int64, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateStatus performs a guarded transition: it succeeds only when the
	// order is currently in from, otherwise domain.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
	StampSellerConfirmed(ctx context.Context, id int64, at time.Time) error
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Order, error)
	ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Order, error)
	// HasCompletedPurchase reports whether the buyer has a COMPLETED order
	// containing the listing. Backs the verified-purchase review gate.
	HasCompletedPurchase(ctx context.Context, buyerID, listingID int64) (bool, error)
}

// LedgerRepository is the only path that changes a balance. Credit and Debit
// append the transaction row and adjust the balance in the same atomic step.
type LedgerRepository interface {
	// Credit adds amount (> 0) to the account. Non-positive amounts fail
	// with domain.ErrInvalidAmount.
	Credit(ctx context.Context, accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error)
	// Debit removes amount (> 0) from the account, failing with
	// domain.ErrInsufficientFunds when the balance would go negative.
	Debit(ctx context.Context, accountID, amount int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error)
	// Annotate appends a zero-amount informational entry (escrow hold).
	Annotate(ctx context.Context, accountID int64, kind domain.TransactionKind, description string, orderID *int64) (*domain.Transaction, error)
	GetBalance(ctx context.Context, accountID int64) (int64, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	// SumByAccount totals the account's transaction amounts; it must always
	// equal GetBalance for the same account.
	SumByAccount(ctx context.Context, accountID int64) (int64, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListByListing(ctx context.Context, listingID int64) ([]domain.Review, error)
	AverageRating(ctx context.Context, listingID int64) (float64, error)
}
