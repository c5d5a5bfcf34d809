package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	"homefinder/internal/app"
	"homefinder/internal/config"
	"homefinder/internal/database"
	"homefinder/internal/domain"
	"homefinder/internal/domain/appointment"
	"homefinder/internal/domain/savedsearch"
)

// Users are owned by the auth service; the seed only needs their IDs.
const (
	ownerID  = int64(1)
	seekerID = int64(2)
	renterID = int64(3)
)

// Almaty, around Abay avenue.
const (
	centerLat = 43.2389
	centerLon = 76.8897
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := app.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	for _, table := range []string{"notifications", "appointments", "saved_searches", "listings"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	a := app.New(cfg, db)
	defer a.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	// ================== LISTINGS ==================
	log.Println("Creating listings...")
	var listings []*domain.Listing
	for i := 0; i < 12; i++ {
		lat := centerLat + (rng.Float64()-0.5)*0.12
		lon := centerLon + (rng.Float64()-0.5)*0.16
		tx := domain.TransactionRent
		price := int64(150000 + rng.Intn(20)*25000)
		if i%3 == 0 {
			tx = domain.TransactionSale
			price = int64(25000000 + rng.Intn(40)*1000000)
		}

		l := &domain.Listing{
			OwnerID:         ownerID,
			Title:           fmt.Sprintf("%d-room apartment #%d", 1+rng.Intn(4), i+1),
			Status:          domain.ListingActive,
			TransactionType: tx,
			Price:           price,
			Lat:             &lat,
			Lon:             &lon,
		}
		switch i {
		case 1:
			expiry := now.Add(6 * time.Hour)
			l.ExpiryDate = &expiry
		case 2:
			expiry := now.Add(-2 * time.Hour)
			l.ExpiryDate = &expiry
		case 3:
			l.Status = domain.ListingPending
		}

		if err := a.Listings.Create(ctx, l); err != nil {
			log.Fatalf("create listing: %v", err)
		}
		listings = append(listings, l)
	}

	// ================== SAVED SEARCHES ==================
	log.Println("Creating saved searches...")
	maxRent := int64(400000)
	searches := []savedsearch.CreateParams{
		{
			Name:                 "Rent near Abay",
			CenterLat:            centerLat,
			CenterLon:            centerLon,
			RadiusKm:             3,
			TransactionType:      domain.TransactionRent,
			MaxPrice:             &maxRent,
			NotificationsEnabled: true,
		},
		{
			Name:                 "Buy anywhere in the city",
			CenterLat:            centerLat,
			CenterLon:            centerLon,
			RadiusKm:             15,
			TransactionType:      domain.TransactionSale,
			NotificationsEnabled: true,
		},
	}
	for _, p := range searches {
		if _, err := a.SavedSearches.Create(ctx, seekerID, p); err != nil {
			log.Fatalf("create saved search: %v", err)
		}
	}

	matched := 0
	for _, l := range listings {
		n, err := a.SavedSearches.OnListingActivated(ctx, l.ID)
		if err != nil {
			log.Printf("match listing %d: %v", l.ID, err)
		}
		matched += n
	}
	log.Printf("Saved search notifications created: %d", matched)

	// ================== APPOINTMENTS ==================
	log.Println("Creating appointments...")
	first, err := a.Appointments.Create(ctx, renterID, appointment.CreateInput{
		ListingID:           listings[0].ID,
		Title:               "Viewing",
		Description:         "Evening viewing after work",
		ScheduledAt:         now.Add(45 * time.Minute),
		ReminderLeadMinutes: 60,
	})
	if err != nil {
		log.Fatalf("create appointment: %v", err)
	}
	if _, err := a.Appointments.Confirm(ctx, first.ID, ownerID); err != nil {
		log.Fatalf("confirm appointment: %v", err)
	}

	if _, err := a.Appointments.Create(ctx, seekerID, appointment.CreateInput{
		ListingID:           listings[4].ID,
		Title:               "Second viewing",
		ScheduledAt:         now.Add(48 * time.Hour),
		ReminderLeadMinutes: 120,
	}); err != nil {
		log.Fatalf("create appointment: %v", err)
	}

	log.Println("Seed completed!")
	log.Printf("Users: owner=%d seeker=%d renter=%d", ownerID, seekerID, renterID)
	log.Println("Run `go run ./cmd/sweep` to send the expiry warnings and the viewing reminder.")
}
