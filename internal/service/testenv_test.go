package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/repository/memory"
	"unimarket-backend/internal/security"
	"unimarket-backend/internal/service"
)

const (
	testPassword  = "s3cret-pass"
	testJWTSecret = "0123456789abcdef0123456789abcdef"
)

type env struct {
	store   *memory.Store
	audit   *security.AuditLog
	limiter *security.RateLimiter
	tokens  security.TokenManager
	auth    service.AuthService
	wallet  service.WalletService
	orders  service.OrderService
	catalog service.CatalogService
	admin   service.AdminService
}

// newEnv wires the full service stack against the in-memory store. The rate
// limit is set high enough that tests never trip it; rate limiting has its
// own suite in the security package.
func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.NewStore()
	audit := security.NewAuditLog(0)
	sanitizer := security.NewSanitizer(audit)
	limiter := security.NewRateLimiter(100000, audit)
	tokens := security.NewTokenManager(testJWTSecret, 60, 60*24)
	email := service.NewEmailService("", "noreply@unimarket.test", "UniMarket")
	verifier := service.NewHeuristicVerifier()

	return &env{
		store:   store,
		audit:   audit,
		limiter: limiter,
		tokens:  tokens,
		auth:    service.NewAuthService(store, tokens, sanitizer, limiter, audit, verifier, email, 500),
		wallet:  service.NewWalletService(store, limiter, audit, 10_000_000),
		orders:  service.NewOrderService(store, limiter, audit, email, 5, 30*time.Minute),
		catalog: service.NewCatalogService(store, sanitizer, limiter, audit),
		admin:   service.NewAdminService(store, audit, email, 7),
	}
}

func (e *env) register(t *testing.T, name, email string, role domain.Role) *domain.Account {
	t.Helper()
	account, err := e.auth.Register(context.Background(), service.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)
	return account
}

func (e *env) registerBuyer(t *testing.T, name string) *domain.Account {
	return e.register(t, name, fmt.Sprintf("%s@buyers.test", name), domain.RoleBuyer)
}

func (e *env) registerSeller(t *testing.T, name string) *domain.Account {
	return e.register(t, name, fmt.Sprintf("%s@sellers.test", name), domain.RoleSeller)
}

// createAdmin inserts an admin directly; admin accounts cannot self-register.
func (e *env) createAdmin(t *testing.T, name string) *domain.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &domain.Account{
		Name:         name,
		Email:        fmt.Sprintf("%s@staff.test", name),
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		ReferralCode: "ADM0000",
	}
	require.NoError(t, e.store.Accounts().Create(context.Background(), admin))
	return admin
}

func (e *env) topUp(t *testing.T, buyerID, amountMinor int64) {
	t.Helper()
	_, err := e.wallet.TopUp(context.Background(), buyerID, amountMinor)
	require.NoError(t, err)
}

func (e *env) addListing(t *testing.T, sellerID int64, name string, priceMinor int64) *domain.Listing {
	t.Helper()
	listing := &domain.Listing{
		Name:       name,
		PriceMinor: priceMinor,
		Category:   "general",
		InStock:    true,
	}
	require.NoError(t, e.catalog.AddListing(context.Background(), sellerID, listing))
	return listing
}

func (e *env) balance(t *testing.T, accountID int64) int64 {
	t.Helper()
	balance, err := e.wallet.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	return balance
}

// requireLedgerConsistent asserts the core invariant: every balance equals
// the sum of the account's ledger entries.
func (e *env) requireLedgerConsistent(t *testing.T, accountIDs ...int64) {
	t.Helper()
	for _, id := range accountIDs {
		balance, err := e.store.Ledger().GetBalance(context.Background(), id)
		require.NoError(t, err)
		sum, err := e.store.Ledger().SumByAccount(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, balance, sum, "balance and ledger sum diverged for account %d", id)
	}
}
