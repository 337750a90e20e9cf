package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimarket-backend/internal/domain"
)

func TestBanAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("TemporaryBanHidesListings", func(t *testing.T) {
		e := newEnv(t)
		admin := e.createAdmin(t, "mod")
		seller := e.registerSeller(t, "vendor")
		e.addListing(t, seller.ID, "Desk Lamp", 45_00)

		storefront, err := e.catalog.Storefront(ctx)
		require.NoError(t, err)
		require.Len(t, storefront, 1)

		require.NoError(t, e.admin.BanAccount(ctx, admin.ID, seller.ID, domain.BanTypeTemporary, "counterfeit goods"))

		storefront, err = e.catalog.Storefront(ctx)
		require.NoError(t, err)
		assert.Empty(t, storefront)

		banned, err := e.store.Accounts().GetByID(ctx, seller.ID)
		require.NoError(t, err)
		require.NotNil(t, banned.Ban)
		assert.Equal(t, domain.BanTypeTemporary, banned.Ban.Type)
		assert.Nil(t, banned.Ban.ScheduledDeletionAt)
	})

	t.Run("PermanentBanSchedulesDeletion", func(t *testing.T) {
		e := newEnv(t)
		admin := e.createAdmin(t, "mod")
		target := e.registerBuyer(t, "shopper")

		require.NoError(t, e.admin.BanAccount(ctx, admin.ID, target.ID, domain.BanTypePermanent, "fraud"))

		banned, err := e.store.Accounts().GetByID(ctx, target.ID)
		require.NoError(t, err)
		require.NotNil(t, banned.Ban)
		require.NotNil(t, banned.Ban.ScheduledDeletionAt)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *banned.Ban.ScheduledDeletionAt, time.Minute)
	})

	t.Run("NonAdminRejected", func(t *testing.T) {
		e := newEnv(t)
		buyer := e.registerBuyer(t, "shopper")
		target := e.registerSeller(t, "vendor")

		err := e.admin.BanAccount(ctx, buyer.ID, target.ID, domain.BanTypeTemporary, "grudge")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("AdminTargetRejected", func(t *testing.T) {
		e := newEnv(t)
		admin := e.createAdmin(t, "mod")
		other := e.createAdmin(t, "mod2")

		err := e.admin.BanAccount(ctx, admin.ID, other.ID, domain.BanTypePermanent, "coup")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestUnbanAccount(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.createAdmin(t, "mod")
	seller := e.registerSeller(t, "vendor")
	e.addListing(t, seller.ID, "Desk Lamp", 45_00)

	require.NoError(t, e.admin.BanAccount(ctx, admin.ID, seller.ID, domain.BanTypeTemporary, "spam"))
	require.NoError(t, e.admin.UnbanAccount(ctx, admin.ID, seller.ID))

	restored, err := e.store.Accounts().GetByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.Ban)

	storefront, err := e.catalog.Storefront(ctx)
	require.NoError(t, err)
	assert.Len(t, storefront, 1)

	// Login works again.
	_, _, _, err = e.auth.Login(ctx, seller.Email, testPassword)
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("CascadesToListings", func(t *testing.T) {
		e := newEnv(t)
		admin := e.createAdmin(t, "mod")
		seller := e.registerSeller(t, "vendor")
		e.addListing(t, seller.ID, "Desk Lamp", 45_00)
		e.addListing(t, seller.ID, "Mug", 10_00)

		require.NoError(t, e.admin.DeleteAccount(ctx, admin.ID, seller.ID))

		_, err := e.store.Accounts().GetByID(ctx, seller.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		listings, err := e.store.Listings().ListBySeller(ctx, seller.ID)
		require.NoError(t, err)
		assert.Empty(t, listings)
	})

	t.Run("SelfDeleteRejected", func(t *testing.T) {
		e := newEnv(t)
		admin := e.createAdmin(t, "mod")

		err := e.admin.DeleteAccount(ctx, admin.ID, admin.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestRunMaintenanceSweep(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.createAdmin(t, "mod")
	seller := e.registerSeller(t, "vendor")
	e.addListing(t, seller.ID, "Desk Lamp", 45_00)
	bystander := e.registerBuyer(t, "shopper")

	require.NoError(t, e.admin.BanAccount(ctx, admin.ID, seller.ID, domain.BanTypePermanent, "fraud"))

	// Nothing expires yet: the grace period is still running.
	swept, err := e.admin.RunMaintenanceSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	// Rewind the deletion deadline into the past.
	banned, err := e.store.Accounts().GetByID(ctx, seller.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	banned.Ban.ScheduledDeletionAt = &past
	require.NoError(t, e.store.Accounts().Update(ctx, banned))

	swept, err = e.admin.RunMaintenanceSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = e.store.Accounts().GetByID(ctx, seller.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	listings, err := e.store.Listings().ListBySeller(ctx, seller.ID)
	require.NoError(t, err)
	assert.Empty(t, listings)

	// Untouched accounts survive, and the sweep is idempotent.
	_, err = e.store.Accounts().GetByID(ctx, bystander.ID)
	assert.NoError(t, err)
	swept, err = e.admin.RunMaintenanceSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestSecurityLogAccess(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.createAdmin(t, "mod")
	buyer := e.registerBuyer(t, "shopper")

	_, err := e.admin.SecurityLog(ctx, buyer.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	entries, err := e.admin.SecurityLog(ctx, admin.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, entries) // registration events are recorded

	require.NoError(t, e.admin.ClearSecurityLog(ctx, admin.ID))
	entries, err = e.admin.SecurityLog(ctx, admin.ID)
	require.NoError(t, err)
	// Only the clear marker remains.
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "security log cleared")
}
