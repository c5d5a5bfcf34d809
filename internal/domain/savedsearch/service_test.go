package savedsearch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homefinder/internal/database"
	"homefinder/internal/domain"
	"homefinder/internal/domain/notification"
	"homefinder/internal/domain/realtime"
	"homefinder/internal/repository"
)

type fixture struct {
	svc           *Service
	listings      *repository.ListingRepository
	notifications *notification.NotificationRepository
	push          *realtime.Recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenInMemory("savedsearch_" + t.Name())
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, repository.AutoMigrate(db))
	require.NoError(t, notification.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	listings := repository.NewListingRepository(db)
	notifRepo := notification.NewNotificationRepository(db)
	push := realtime.NewRecorder()
	notifSvc := notification.NewService(notifRepo, push, time.Second)

	return &fixture{
		svc:           NewService(NewSavedSearchRepository(db), listings, notifSvc),
		listings:      listings,
		notifications: notifRepo,
		push:          push,
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) activeListing(t *testing.T, ownerID int64, tx domain.TransactionType, price int64, lat, lon float64) *domain.Listing {
	t.Helper()
	l := &domain.Listing{
		OwnerID:         ownerID,
		Title:           "Apartment",
		Status:          domain.ListingActive,
		TransactionType: tx,
		Price:           price,
		Lat:             ptr(lat),
		Lon:             ptr(lon),
	}
	require.NoError(t, f.listings.Create(context.Background(), l))
	return l
}

func saleSearch(radius float64) CreateParams {
	return CreateParams{
		CenterLat:            10.0,
		CenterLon:            106.0,
		RadiusKm:             radius,
		TransactionType:      domain.TransactionSale,
		NotificationsEnabled: true,
	}
}

/* ==================== Create ==================== */

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *CreateParams)
		want   error
	}{
		{"zero radius", func(p *CreateParams) { p.RadiusKm = 0 }, ErrInvalidRadius},
		{"radius above limit", func(p *CreateParams) { p.RadiusKm = 100.5 }, ErrInvalidRadius},
		{"min above max", func(p *CreateParams) {
			p.MinPrice = ptr(int64(2_000_000_000))
			p.MaxPrice = ptr(int64(1_000_000_000))
		}, ErrInvalidPriceRange},
		{"negative price", func(p *CreateParams) { p.MinPrice = ptr(int64(-1)) }, ErrNegativePrice},
		{"bad latitude", func(p *CreateParams) { p.CenterLat = 91 }, ErrInvalidCoordinates},
		{"bad transaction type", func(p *CreateParams) { p.TransactionType = "lease" }, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := saleSearch(5)
			tt.mutate(&p)
			_, err := f.svc.Create(ctx, 1, p)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	ss, err := f.svc.Create(ctx, 1, saleSearch(100))
	require.NoError(t, err)
	assert.True(t, ss.Active)
	assert.NotZero(t, ss.ID)
}

func TestListActiveAndDeactivate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		f.svc.now = func() time.Time { return at }
		ss, err := f.svc.Create(ctx, 7, saleSearch(5))
		require.NoError(t, err)
		ids = append(ids, ss.ID)
	}

	list, err := f.svc.ListActive(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID, "newest first")

	ok, err := f.svc.Deactivate(ctx, ids[0], 8)
	require.NoError(t, err)
	assert.False(t, ok, "not the owner")

	ok, err = f.svc.Deactivate(ctx, ids[0], 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.Deactivate(ctx, ids[0], 7)
	require.NoError(t, err)
	assert.False(t, ok, "second call is a no-op")

	ok, err = f.svc.Deactivate(ctx, 9999, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err = f.svc.ListActive(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

/* ==================== FindMatchingListings ==================== */

func TestFindMatchingListings_RadiusAndOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ss, err := f.svc.Create(ctx, 1, saleSearch(5))
	require.NoError(t, err)

	near := f.activeListing(t, 2, domain.TransactionSale, 100, 10.03, 106.0)
	far := f.activeListing(t, 2, domain.TransactionSale, 100, 10.1, 106.0)
	nearest := f.activeListing(t, 2, domain.TransactionSale, 100, 10.01, 106.0)
	f.activeListing(t, 2, domain.TransactionRent, 100, 10.0, 106.0)

	matches, err := f.svc.FindMatchingListings(ctx, ss.ID, 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, nearest.ID, matches[0].Listing.ID)
	assert.Equal(t, near.ID, matches[1].Listing.ID)
	assert.InDelta(t, 3.34, matches[1].DistanceKm, 0.05)
	for _, m := range matches {
		assert.NotEqual(t, far.ID, m.Listing.ID)
	}
}

func TestFindMatchingListings_PriceBounds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p := saleSearch(5)
	p.MinPrice = ptr(int64(1_000))
	p.MaxPrice = ptr(int64(2_000))
	ss, err := f.svc.Create(ctx, 1, p)
	require.NoError(t, err)

	f.activeListing(t, 2, domain.TransactionSale, 999, 10.0, 106.0)
	inside := f.activeListing(t, 2, domain.TransactionSale, 1_500, 10.0, 106.0)
	f.activeListing(t, 2, domain.TransactionSale, 2_001, 10.0, 106.0)

	matches, err := f.svc.FindMatchingListings(ctx, ss.ID, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, inside.ID, matches[0].Listing.ID)
}

func TestFindMatchingListings_NotOwnedOrInactive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ss, err := f.svc.Create(ctx, 1, saleSearch(5))
	require.NoError(t, err)

	_, err = f.svc.FindMatchingListings(ctx, ss.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.FindMatchingListings(ctx, 12345, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Deactivate(ctx, ss.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.FindMatchingListings(ctx, ss.ID, 1)
	assert.ErrorIs(t, err, ErrSavedSearchNotFound)
}

/* ==================== OnListingActivated ==================== */

func TestOnListingActivated_EndToEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p := saleSearch(2)
	p.MinPrice = ptr(int64(1_000_000))
	p.MaxPrice = ptr(int64(5_000_000))
	ss, err := f.svc.Create(ctx, 1, p)
	require.NoError(t, err)
	f.push.Connect(1)

	listing := &domain.Listing{
		OwnerID:         2,
		Title:           "Riverside flat",
		Status:          domain.ListingPending,
		TransactionType: domain.TransactionSale,
		Price:           3_000_000,
		Lat:             ptr(10.013),
		Lon:             ptr(106.0),
	}
	require.NoError(t, f.listings.Create(ctx, listing))
	require.NoError(t, f.listings.UpdateStatus(ctx, listing.ID, domain.ListingActive))

	created, err := f.svc.OnListingActivated(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	stored, err := f.notifications.ListByUser(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, notification.KindSavedSearchMatch, stored[0].Kind)
	listingID, ok := stored[0].Target.ListingID()
	require.True(t, ok)
	assert.Equal(t, listing.ID, listingID)
	assert.Equal(t, notification.SavedSearchMatchKey(ss.ID, listing.ID), stored[0].DedupKey)

	assert.Len(t, f.push.Delivered(1), 1)
	assert.Empty(t, f.push.Delivered(2))
}

func TestOnListingActivated_ReplayIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, saleSearch(5))
	require.NoError(t, err)
	listing := f.activeListing(t, 2, domain.TransactionSale, 100, 10.03, 106.0)

	created, err := f.svc.OnListingActivated(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = f.svc.OnListingActivated(ctx, listing.ID)
	require.NoError(t, err)
	assert.Zero(t, created)

	count, err := f.notifications.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOnListingActivated_Filters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, saleSearch(5))
	require.NoError(t, err)

	muted := saleSearch(5)
	muted.NotificationsEnabled = false
	_, err = f.svc.Create(ctx, 3, muted)
	require.NoError(t, err)

	rent := saleSearch(5)
	rent.TransactionType = domain.TransactionRent
	_, err = f.svc.Create(ctx, 4, rent)
	require.NoError(t, err)

	outside := f.activeListing(t, 2, domain.TransactionSale, 100, 10.1, 106.0)
	created, err := f.svc.OnListingActivated(ctx, outside.ID)
	require.NoError(t, err)
	assert.Zero(t, created)

	inside := f.activeListing(t, 2, domain.TransactionSale, 100, 10.0, 106.0)
	created, err = f.svc.OnListingActivated(ctx, inside.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "only the enabled sale search is notified")

	for _, owner := range []int64{3, 4} {
		count, err := f.notifications.CountByUser(ctx, owner)
		require.NoError(t, err)
		assert.Zero(t, count)
	}
}

func TestOnListingActivated_InvisibleListing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, saleSearch(5))
	require.NoError(t, err)

	pending := &domain.Listing{OwnerID: 2, Status: domain.ListingPending, TransactionType: domain.TransactionSale, Lat: ptr(10.0), Lon: ptr(106.0)}
	require.NoError(t, f.listings.Create(ctx, pending))
	created, err := f.svc.OnListingActivated(ctx, pending.ID)
	require.NoError(t, err)
	assert.Zero(t, created)

	noCoords := &domain.Listing{OwnerID: 2, Status: domain.ListingActive, TransactionType: domain.TransactionSale}
	require.NoError(t, f.listings.Create(ctx, noCoords))
	created, err = f.svc.OnListingActivated(ctx, noCoords.ID)
	require.NoError(t, err)
	assert.Zero(t, created)

	_, err = f.svc.OnListingActivated(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
