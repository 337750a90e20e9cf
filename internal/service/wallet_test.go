package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimarket-backend/internal/domain"
)

func TestTopUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")

		tx, err := e.wallet.TopUp(ctx, buyer.ID, 250_00)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionKindDeposit, tx.Kind)
		assert.Equal(t, int64(250_00), tx.AmountMinor)
		assert.Equal(t, int64(250_00), e.balance(t, buyer.ID))
		e.requireLedgerConsistent(t, buyer.ID)
	})

	t.Run("SellerRejected", func(t *testing.T) {
		e := newEnv(t)
		seller := e.registerSeller(t, "vendor")

		_, err := e.wallet.TopUp(ctx, seller.ID, 100)
		assert.ErrorIs(t, err, domain.ErrRoleNotAllowed)
		assert.Equal(t, int64(0), e.balance(t, seller.ID))
	})

	t.Run("AmountValidation", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")

		_, err := e.wallet.TopUp(ctx, buyer.ID, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = e.wallet.TopUp(ctx, buyer.ID, -50)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = e.wallet.TopUp(ctx, buyer.ID, 10_000_001)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		e := newEnv(t)
		seller := e.registerSeller(t, "vendor")
		// Sellers earn through escrow; seed the balance directly.
		_, err := e.store.Ledger().Credit(ctx, seller.ID, 500_00, domain.TransactionKindEscrowRelease, "seed", nil)
		require.NoError(t, err)

		tx, err := e.wallet.Withdraw(ctx, seller.ID, 200_00)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionKindWithdrawal, tx.Kind)
		assert.Equal(t, int64(-200_00), tx.AmountMinor)
		assert.Equal(t, int64(300_00), e.balance(t, seller.ID))
		e.requireLedgerConsistent(t, seller.ID)
	})

	t.Run("BuyerRejected", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		e.topUp(t, buyer.ID, 100_00)

		_, err := e.wallet.Withdraw(ctx, buyer.ID, 50_00)
		assert.ErrorIs(t, err, domain.ErrRoleNotAllowed)
		assert.Equal(t, int64(100_00), e.balance(t, buyer.ID))
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		e := newEnv(t)
		seller := e.registerSeller(t, "vendor")

		_, err := e.wallet.Withdraw(ctx, seller.ID, 10_00)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.registerBuyer(t, "shopper")
	e.topUp(t, buyer.ID, 100)
	e.topUp(t, buyer.ID, 200)

	txs, err := e.wallet.ListTransactions(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	// Newest first.
	assert.Equal(t, int64(200), txs[0].AmountMinor)
	assert.Equal(t, int64(100), txs[1].AmountMinor)
}
