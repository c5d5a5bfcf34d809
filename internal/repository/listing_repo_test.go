package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"homefinder/internal/database"
	"homefinder/internal/domain"
)

func setupListingDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory("listing_" + t.Name())
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func ptr[T any](v T) *T { return &v }

func TestListingRepository_MatchCandidates(t *testing.T) {
	repo := NewListingRepository(setupListingDB(t))
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	listings := []*domain.Listing{
		{OwnerID: 1, Title: "ok", Status: domain.ListingActive, TransactionType: domain.TransactionSale, Price: 500, Lat: ptr(10.0), Lon: ptr(106.0)},
		{OwnerID: 1, Title: "rent", Status: domain.ListingActive, TransactionType: domain.TransactionRent, Price: 500, Lat: ptr(10.0), Lon: ptr(106.0)},
		{OwnerID: 1, Title: "pending", Status: domain.ListingPending, TransactionType: domain.TransactionSale, Price: 500, Lat: ptr(10.0), Lon: ptr(106.0)},
		{OwnerID: 1, Title: "no coords", Status: domain.ListingActive, TransactionType: domain.TransactionSale, Price: 500},
		{OwnerID: 1, Title: "expired", Status: domain.ListingActive, TransactionType: domain.TransactionSale, Price: 500, Lat: ptr(10.0), Lon: ptr(106.0), ExpiryDate: ptr(now.Add(-time.Hour))},
		{OwnerID: 1, Title: "pricey", Status: domain.ListingActive, TransactionType: domain.TransactionSale, Price: 5000, Lat: ptr(10.0), Lon: ptr(106.0), ExpiryDate: ptr(now.Add(time.Hour))},
	}
	for _, l := range listings {
		require.NoError(t, repo.Create(ctx, l))
	}

	got, err := repo.ListMatchCandidates(ctx, domain.TransactionSale, nil, nil, now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ok", got[0].Title)
	assert.Equal(t, "pricey", got[1].Title)

	got, err = repo.ListMatchCandidates(ctx, domain.TransactionSale, ptr(int64(100)), ptr(int64(1000)), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Title)
}

func TestListingRepository_ExpiryQueries(t *testing.T) {
	repo := NewListingRepository(setupListingDB(t))
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	soon := &domain.Listing{OwnerID: 2, Title: "soon", Status: domain.ListingActive, TransactionType: domain.TransactionRent, ExpiryDate: ptr(now.Add(6 * time.Hour))}
	later := &domain.Listing{OwnerID: 2, Title: "later", Status: domain.ListingActive, TransactionType: domain.TransactionRent, ExpiryDate: ptr(now.Add(72 * time.Hour))}
	past := &domain.Listing{OwnerID: 2, Title: "past", Status: domain.ListingActive, TransactionType: domain.TransactionRent, ExpiryDate: ptr(now.Add(-time.Minute))}
	rejected := &domain.Listing{OwnerID: 2, Title: "rejected", Status: domain.ListingRejected, TransactionType: domain.TransactionRent, ExpiryDate: ptr(now.Add(-time.Minute))}
	for _, l := range []*domain.Listing{soon, later, past, rejected} {
		require.NoError(t, repo.Create(ctx, l))
	}

	expiring, err := repo.ListExpiringBetween(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ID)

	expired, err := repo.ListExpiredAt(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, past.ID, expired[0].ID)
}

func TestListingRepository_GetByIDAndStatus(t *testing.T) {
	repo := NewListingRepository(setupListingDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	l := &domain.Listing{OwnerID: 3, Title: "flat", Status: domain.ListingPending, TransactionType: domain.TransactionSale, Price: 10}
	require.NoError(t, repo.Create(ctx, l))
	require.NoError(t, repo.UpdateStatus(ctx, l.ID, domain.ListingActive))

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingActive, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, domain.ListingActive), ErrListingNotFound)
}
