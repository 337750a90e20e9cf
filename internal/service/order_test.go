package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimarket-backend/internal/domain"
	"unimarket-backend/internal/service"
)

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("FundsMoveIntoEscrow", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)

		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 2}}, 90_00)
		require.NoError(t, err)
		require.Len(t, orders, 1)

		order := orders[0]
		assert.Equal(t, domain.OrderStatusPaidEscrow, order.Status)
		assert.Equal(t, int64(90_00), order.TotalMinor)
		assert.Equal(t, seller.ID, order.SellerID)
		require.Len(t, order.Items, 1)
		assert.Equal(t, int64(45_00), order.Items[0].UnitPriceMinor)

		// Buyer paid, seller has nothing yet: funds sit in escrow.
		assert.Equal(t, int64(10_00), e.balance(t, buyer.ID))
		assert.Equal(t, int64(0), e.balance(t, seller.ID))

		// The seller sees a zero-amount hold marker on their ledger.
		sellerTxs, err := e.wallet.ListTransactions(ctx, seller.ID)
		require.NoError(t, err)
		require.Len(t, sellerTxs, 1)
		assert.Equal(t, domain.TransactionKindEscrowHold, sellerTxs[0].Kind)
		assert.Equal(t, int64(0), sellerTxs[0].AmountMinor)

		e.requireLedgerConsistent(t, buyer.ID, seller.ID)
	})

	t.Run("MultiSellerCartSplits", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		alice := e.registerSeller(t, "alice")
		bob := e.registerSeller(t, "bob")
		lamp := e.addListing(t, alice.ID, "Lamp", 30_00)
		mug := e.addListing(t, bob.ID, "Mug", 10_00)
		e.topUp(t, buyer.ID, 100_00)

		orders, err := e.orders.CreateOrder(ctx, buyer.ID, []service.CartItem{
			{ListingID: lamp.ID, Quantity: 1},
			{ListingID: mug.ID, Quantity: 3},
		}, 60_00)
		require.NoError(t, err)
		require.Len(t, orders, 2)

		assert.Equal(t, alice.ID, orders[0].SellerID)
		assert.Equal(t, int64(30_00), orders[0].TotalMinor)
		assert.Equal(t, bob.ID, orders[1].SellerID)
		assert.Equal(t, int64(30_00), orders[1].TotalMinor)
		assert.Equal(t, int64(40_00), e.balance(t, buyer.ID))
	})

	t.Run("PriceTamperingRejectedWithoutMutation", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)

		_, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 1_00)
		assert.ErrorIs(t, err, domain.ErrPriceMismatch)

		// Nothing moved and nothing was created.
		assert.Equal(t, int64(100_00), e.balance(t, buyer.ID))
		orders, err := e.orders.ListOrders(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("RoundingToleranceAccepted", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)

		// Off by 5 minor units, inside the tolerance window.
		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_05)
		require.NoError(t, err)
		// The server total is charged, never the client total.
		assert.Equal(t, int64(45_00), orders[0].TotalMinor)
		assert.Equal(t, int64(55_00), e.balance(t, buyer.ID))
	})

	t.Run("InsufficientFundsRollsBack", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 10_00)

		_, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		assert.Equal(t, int64(10_00), e.balance(t, buyer.ID))
		orders, err := e.orders.ListOrders(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Empty(t, orders)

		// No stray hold marker on the seller either.
		sellerTxs, err := e.wallet.ListTransactions(ctx, seller.ID)
		require.NoError(t, err)
		assert.Empty(t, sellerTxs)
	})

	t.Run("OutOfStockRejected", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		listing.InStock = false
		require.NoError(t, e.catalog.UpdateListing(ctx, seller.ID, listing))
		e.topUp(t, buyer.ID, 100_00)

		_, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
	})

	t.Run("SellerCannotBuy", func(t *testing.T) {
		e := newEnv(t)
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)

		_, err := e.orders.CreateOrder(ctx, seller.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		assert.ErrorIs(t, err, domain.ErrRoleNotAllowed)
	})
}

func TestEscrowLifecycle(t *testing.T) {
	ctx := context.Background()

	place := func(t *testing.T, e *env) (buyer, seller *domain.Account, order domain.Order) {
		t.Helper()
		buyer = e.registerBuyer(t, "shopper")
		seller = e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)
		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		require.NoError(t, err)
		return buyer, seller, orders[0]
	}

	t.Run("HappyPathReleasesToSeller", func(t *testing.T) {
		e := newEnv(t)
		buyer, seller, order := place(t, e)

		confirmed, err := e.orders.ConfirmSent(ctx, order.ID, seller.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusSellerConfirmed, confirmed.Status)
		assert.NotNil(t, confirmed.SellerConfirmedAt)

		completed, err := e.orders.ConfirmReceived(ctx, order.ID, buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCompleted, completed.Status)

		assert.Equal(t, int64(45_00), e.balance(t, seller.ID))
		assert.Equal(t, int64(55_00), e.balance(t, buyer.ID))
		e.requireLedgerConsistent(t, buyer.ID, seller.ID)
	})

	t.Run("DoubleReleaseImpossible", func(t *testing.T) {
		e := newEnv(t)
		buyer, seller, order := place(t, e)

		_, err := e.orders.ConfirmSent(ctx, order.ID, seller.ID)
		require.NoError(t, err)
		_, err = e.orders.ConfirmReceived(ctx, order.ID, buyer.ID)
		require.NoError(t, err)

		// Second confirmation must not credit the seller again.
		_, err = e.orders.ConfirmReceived(ctx, order.ID, buyer.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, int64(45_00), e.balance(t, seller.ID))
	})

	t.Run("ConfirmReceivedBeforeShipmentRejected", func(t *testing.T) {
		e := newEnv(t)
		buyer, seller, order := place(t, e)

		_, err := e.orders.ConfirmReceived(ctx, order.ID, buyer.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, int64(0), e.balance(t, seller.ID))
	})

	t.Run("OnlyTheSellerConfirmsShipment", func(t *testing.T) {
		e := newEnv(t)
		_, _, order := place(t, e)
		other := e.registerSeller(t, "impostor")

		_, err := e.orders.ConfirmSent(ctx, order.ID, other.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("OnlyTheBuyerConfirmsDelivery", func(t *testing.T) {
		e := newEnv(t)
		_, seller, order := place(t, e)

		_, err := e.orders.ConfirmSent(ctx, order.ID, seller.ID)
		require.NoError(t, err)
		_, err = e.orders.ConfirmReceived(ctx, order.ID, seller.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("BuyerRefundFromEscrow", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)
		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		require.NoError(t, err)

		refunded, err := e.orders.Refund(ctx, orders[0].ID, buyer.ID, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusRefunded, refunded.Status)
		assert.Equal(t, int64(100_00), e.balance(t, buyer.ID))
		assert.Equal(t, int64(0), e.balance(t, seller.ID))
		e.requireLedgerConsistent(t, buyer.ID, seller.ID)
	})

	t.Run("AdminRefund", func(t *testing.T) {
		e := newEnv(t)
		admin := e.createAdmin(t, "mod")
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)
		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		require.NoError(t, err)

		_, err = e.orders.Refund(ctx, orders[0].ID, admin.ID, "dispute resolved")
		require.NoError(t, err)
		assert.Equal(t, int64(100_00), e.balance(t, buyer.ID))
	})

	t.Run("StrangerCannotRefund", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)
		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		require.NoError(t, err)

		stranger := e.registerBuyer(t, "stranger")
		_, err = e.orders.Refund(ctx, orders[0].ID, stranger.ID, "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("ShippedOrderCannotBeRefunded", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)
		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		require.NoError(t, err)
		_, err = e.orders.ConfirmSent(ctx, orders[0].ID, seller.ID)
		require.NoError(t, err)

		_, err = e.orders.Refund(ctx, orders[0].ID, buyer.ID, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, int64(55_00), e.balance(t, buyer.ID))
	})

	t.Run("CompletedOrderIsTerminal", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		seller := e.registerSeller(t, "vendor")
		listing := e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.topUp(t, buyer.ID, 100_00)
		orders, err := e.orders.CreateOrder(ctx, buyer.ID,
			[]service.CartItem{{ListingID: listing.ID, Quantity: 1}}, 45_00)
		require.NoError(t, err)
		_, err = e.orders.ConfirmSent(ctx, orders[0].ID, seller.ID)
		require.NoError(t, err)
		_, err = e.orders.ConfirmReceived(ctx, orders[0].ID, buyer.ID)
		require.NoError(t, err)

		_, err = e.orders.Refund(ctx, orders[0].ID, buyer.ID, "")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestMoneyConservation(t *testing.T) {
	// Across a whole shopping session no money is created or destroyed:
	// deposits in, withdrawals out, everything else shuffles between wallets.
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.registerBuyer(t, "shopper")
	alice := e.registerSeller(t, "alice")
	bob := e.registerSeller(t, "bob")
	lamp := e.addListing(t, alice.ID, "Lamp", 30_00)
	mug := e.addListing(t, bob.ID, "Mug", 10_00)
	e.topUp(t, buyer.ID, 200_00)

	orders, err := e.orders.CreateOrder(ctx, buyer.ID, []service.CartItem{
		{ListingID: lamp.ID, Quantity: 1},
		{ListingID: mug.ID, Quantity: 2},
	}, 50_00)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// Alice's order completes, Bob's gets refunded.
	_, err = e.orders.ConfirmSent(ctx, orders[0].ID, alice.ID)
	require.NoError(t, err)
	_, err = e.orders.ConfirmReceived(ctx, orders[0].ID, buyer.ID)
	require.NoError(t, err)
	_, err = e.orders.Refund(ctx, orders[1].ID, buyer.ID, "late delivery")
	require.NoError(t, err)

	_, err = e.wallet.Withdraw(ctx, alice.ID, 30_00)
	require.NoError(t, err)

	total := e.balance(t, buyer.ID) + e.balance(t, alice.ID) + e.balance(t, bob.ID)
	assert.Equal(t, int64(200_00-30_00), total, "deposits minus withdrawals must equal the sum of balances")
	e.requireLedgerConsistent(t, buyer.ID, alice.ID, bob.ID)
}

func TestCancelStaleOrders(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	buyer := e.registerBuyer(t, "shopper")
	seller := e.registerSeller(t, "vendor")

	// Simulate an interrupted checkout: an order stuck before payment.
	stuck := &domain.Order{
		Reference: "ORD-STUCK",
		BuyerID:   buyer.ID,
		SellerID:  seller.ID,
		Status:    domain.OrderStatusPendingPayment,
	}
	require.NoError(t, e.store.Orders().Create(ctx, stuck))

	// A negative timeout puts the cutoff in the future, so the fresh order
	// already counts as stale.
	sweeper := service.NewOrderService(e.store, e.limiter, e.audit,
		service.NewEmailService("", "", ""), 5, -time.Minute)

	cancelled, err := sweeper.CancelStaleOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	got, err := e.store.Orders().GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	// Idempotent: nothing left to cancel.
	cancelled, err = sweeper.CancelStaleOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cancelled)
}
