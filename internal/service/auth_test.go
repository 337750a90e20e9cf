package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/service"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		e := newEnv(t)

		account, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:     "Ada Obi",
			Email:    "Ada@Example.com",
			Password: testPassword,
			Role:     domain.RoleBuyer,
		})
		require.NoError(t, err)
		assert.NotZero(t, account.ID)
		assert.Equal(t, "ada@example.com", account.Email)
		assert.Len(t, account.ReferralCode, 7)
		assert.Equal(t, int64(0), account.BalanceMinor)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "First", "taken@example.com", domain.RoleBuyer)

		_, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:     "Second",
			Email:    "taken@example.com",
			Password: testPassword,
			Role:     domain.RoleBuyer,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("AdminRoleRejected", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:     "Sneaky",
			Email:    "sneaky@example.com",
			Password: testPassword,
			Role:     domain.RoleAdmin,
		})
		assert.ErrorIs(t, err, domain.ErrRoleNotAllowed)
	})

	t.Run("ShortPasswordRejected", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:     "Weak",
			Email:    "weak@example.com",
			Password: "12345",
			Role:     domain.RoleBuyer,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("MaliciousNameBlocked", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:     "<script>alert('x')</script>",
			Email:    "xss@example.com",
			Password: testPassword,
			Role:     domain.RoleBuyer,
		})
		assert.ErrorIs(t, err, domain.ErrSecurityViolation)
	})

	t.Run("TinyProfileImageRejected", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:         "Faker",
			Email:        "faker@example.com",
			Password:     testPassword,
			Role:         domain.RoleBuyer,
			ProfileImage: "aGVsbG8=", // 5 decoded bytes, far below the floor
		})
		assert.ErrorIs(t, err, domain.ErrVerificationFailed)
	})
}

func TestRegisterReferral(t *testing.T) {
	ctx := context.Background()

	t.Run("BonusCreditedOnce", func(t *testing.T) {
		e := newEnv(t)
		referrer := e.registerSeller(t, "referrer")

		account, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:         "Invited",
			Email:        "invited@example.com",
			Password:     testPassword,
			Role:         domain.RoleBuyer,
			ReferralCode: referrer.ReferralCode,
		})
		require.NoError(t, err)
		require.NotNil(t, account.ReferredBy)
		assert.Equal(t, referrer.ID, *account.ReferredBy)

		assert.Equal(t, int64(500), e.balance(t, referrer.ID))

		updated, err := e.store.Accounts().GetByID(ctx, referrer.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(1), updated.ReferralsCount)

		txs, err := e.wallet.ListTransactions(ctx, referrer.ID)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, domain.TransactionKindReferralBonus, txs[0].Kind)
		e.requireLedgerConsistent(t, referrer.ID)
	})

	t.Run("UnknownCodeIgnored", func(t *testing.T) {
		e := newEnv(t)

		account, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:         "Lonely",
			Email:        "lonely@example.com",
			Password:     testPassword,
			Role:         domain.RoleBuyer,
			ReferralCode: "NOPE999",
		})
		require.NoError(t, err)
		assert.Nil(t, account.ReferredBy)
	})

	t.Run("NoBonusWhenRegistrationFails", func(t *testing.T) {
		e := newEnv(t)
		referrer := e.registerSeller(t, "referrer")
		e.register(t, "Taken", "dup@example.com", domain.RoleBuyer)

		_, err := e.auth.Register(ctx, service.RegisterRequest{
			Name:         "Copycat",
			Email:        "dup@example.com",
			Password:     testPassword,
			Role:         domain.RoleBuyer,
			ReferralCode: referrer.ReferralCode,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

		// The whole transaction rolled back: no bonus, no referral count.
		assert.Equal(t, int64(0), e.balance(t, referrer.ID))
		updated, err := e.store.Accounts().GetByID(ctx, referrer.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(0), updated.ReferralsCount)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		e := newEnv(t)
		registered := e.register(t, "Login User", "login@example.com", domain.RoleBuyer)

		account, access, refresh, err := e.auth.Login(ctx, "login@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, account.ID)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)

		claims, err := e.tokens.ValidateToken(access)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.AccountID)
		assert.Equal(t, string(domain.RoleBuyer), claims.Role)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "Login User", "login@example.com", domain.RoleBuyer)

		_, _, _, err := e.auth.Login(ctx, "login@example.com", "wrong-password")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		e := newEnv(t)

		_, _, _, err := e.auth.Login(ctx, "ghost@example.com", testPassword)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("BannedAccountBlocked", func(t *testing.T) {
		e := newEnv(t)
		admin := e.createAdmin(t, "mod")
		target := e.register(t, "Trouble", "trouble@example.com", domain.RoleBuyer)

		require.NoError(t, e.admin.BanAccount(ctx, admin.ID, target.ID, domain.BanTypeTemporary, "spam"))

		_, _, _, err := e.auth.Login(ctx, "trouble@example.com", testPassword)
		assert.ErrorIs(t, err, domain.ErrAccountSuspended)
		assert.Contains(t, err.Error(), "spam")
	})
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "Refresh User", "refresh@example.com", domain.RoleSeller)
		_, _, refresh, err := e.auth.Login(ctx, "refresh@example.com", testPassword)
		require.NoError(t, err)

		access, newRefresh, err := e.auth.RefreshToken(ctx, refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, newRefresh)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "Refresh User", "refresh@example.com", domain.RoleSeller)
		_, access, _, err := e.auth.Login(ctx, "refresh@example.com", testPassword)
		require.NoError(t, err)

		_, _, err = e.auth.RefreshToken(ctx, access)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
