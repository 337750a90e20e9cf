package service

import (
	"context"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/security"
)

type RegisterRequest struct {
	Name         string
	Email        string
	Password     string
	PhoneNumber  string
	Role         domain.Role
	ReferralCode string
	ProfileImage string // base64, optional
}

// CartItem is a checkout line as submitted by the client. Prices are never
// trusted from the client; they are snapshotted from the listings at order
// creation.
type CartItem struct {
	ListingID int64 `json:"listing_id"`
	Quantity  int32 `json:"quantity"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Account, error)
	// Login returns the account plus access and refresh tokens.
	Login(ctx context.Context, email, password string) (*domain.Account, string, string, error)
	RefreshToken(ctx context.Context, refresh string) (string, string, error)
}

type WalletService interface {
	TopUp(ctx context.Context, accountID, amountMinor int64) (*domain.Transaction, error)
	Withdraw(ctx context.Context, accountID, amountMinor int64) (*domain.Transaction, error)
	GetBalance(ctx context.Context, accountID int64) (int64, error)
	ListTransactions(ctx context.Context, accountID int64) ([]domain.Transaction, error)
}

// OrderService is the escrow engine: every transition that moves funds runs
// the ledger append and the status write in one store transaction.
type OrderService interface {
	// CreateOrder splits the cart into one order per seller, debits the
	// buyer and places each order in escrow.
	CreateOrder(ctx context.Context, buyerID int64, items []CartItem, clientTotalMinor int64) ([]domain.Order, error)
	ConfirmSent(ctx context.Context, orderID, sellerID int64) (*domain.Order, error)
	ConfirmReceived(ctx context.Context, orderID, buyerID int64) (*domain.Order, error)
	Refund(ctx context.Context, orderID, callerID int64, reason string) (*domain.Order, error)
	ListOrders(ctx context.Context, accountID int64) ([]domain.Order, error)
	// CancelStaleOrders cancels PENDING_PAYMENT orders older than the
	// configured timeout. Run by the scheduler.
	CancelStaleOrders(ctx context.Context) (int, error)
}

type CatalogService interface {
	AddListing(ctx context.Context, sellerID int64, listing *domain.Listing) error
	UpdateListing(ctx context.Context, sellerID int64, listing *domain.Listing) error
	DeleteListing(ctx context.Context, callerID, listingID int64) error
	Storefront(ctx context.Context) ([]domain.Listing, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Listing, error)
	SubmitReview(ctx context.Context, authorID, listingID int64, rating int32, comment string) (*domain.Review, error)
	ListReviews(ctx context.Context, listingID int64) ([]domain.Review, error)
}

type AdminService interface {
	BanAccount(ctx context.Context, adminID, targetID int64, banType domain.BanType, reason string) error
	UnbanAccount(ctx context.Context, adminID, targetID int64) error
	DeleteAccount(ctx context.Context, adminID, targetID int64) error
	ListAccounts(ctx context.Context, adminID int64) ([]domain.Account, error)
	SecurityLog(ctx context.Context, adminID int64) ([]security.AuditEntry, error)
	ClearSecurityLog(ctx context.Context, adminID int64) error
	// RunMaintenanceSweep deletes permanently banned accounts whose
	// scheduled deletion time has passed, cascading to their listings.
	// Idempotent; callable on any schedule.
	RunMaintenanceSweep(ctx context.Context) (int, error)
}

type EmailService interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendReferralBonusNotice(ctx context.Context, email, name string, amountMinor int64) error
	SendAccountStatusNotice(ctx context.Context, email, name, status, reason string) error
	SendEscrowReleaseNotice(ctx context.Context, email, name, orderRef string, amountMinor int64) error
}

// RealnessVerifier screens user-supplied images before registration accepts
// them. Implementations may call out to an ML service; the default is a
// local heuristic.
type RealnessVerifier interface {
	VerifyImageRealness(ctx context.Context, imageBase64 string) (bool, error)
}
