package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"homefinder/internal/domain"
)

var ErrListingNotFound = fmt.Errorf("%w: listing", domain.ErrNotFound)

// ListingRepository reads the listings table owned by the listing service.
// Create exists for seeding and tests only.
type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

type listingModel struct {
	ID              int64      `gorm:"column:id;primaryKey"`
	OwnerID         int64      `gorm:"column:owner_id;not null;index"`
	Title           string     `gorm:"column:title;size:255"`
	Status          string     `gorm:"column:status;size:32;not null;index:idx_listings_status_type,priority:1"`
	TransactionType string     `gorm:"column:transaction_type;size:16;not null;index:idx_listings_status_type,priority:2"`
	Price           int64      `gorm:"column:price;not null"`
	Lat             *float64   `gorm:"column:lat"`
	Lon             *float64   `gorm:"column:lon"`
	ExpiryDate      *time.Time `gorm:"column:expiry_date;index"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (listingModel) TableName() string { return "listings" }

func toDomainListing(m listingModel) *domain.Listing {
	return &domain.Listing{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		Title:           m.Title,
		Status:          domain.ListingStatus(m.Status),
		TransactionType: domain.TransactionType(m.TransactionType),
		Price:           m.Price,
		Lat:             m.Lat,
		Lon:             m.Lon,
		ExpiryDate:      m.ExpiryDate,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toListingModel(l *domain.Listing) listingModel {
	return listingModel{
		ID:              l.ID,
		OwnerID:         l.OwnerID,
		Title:           l.Title,
		Status:          string(l.Status),
		TransactionType: string(l.TransactionType),
		Price:           l.Price,
		Lat:             l.Lat,
		Lon:             l.Lon,
		ExpiryDate:      l.ExpiryDate,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func toDomainListings(rows []listingModel) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainListing(row))
	}
	return out
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	m := toListingModel(l)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	l.ID = m.ID
	l.CreatedAt = m.CreatedAt
	l.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateStatus is used by the seed tool and tests to simulate moderation.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id int64, status domain.ListingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&listingModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	var m listingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return toDomainListing(m), nil
}

// ListMatchCandidates returns active, unexpired, geocoded listings of the
// given transaction type whose price lies inside the optional bounds.
// Distance filtering is left to the caller.
func (r *ListingRepository) ListMatchCandidates(ctx context.Context, txType domain.TransactionType, minPrice, maxPrice *int64, now time.Time) ([]*domain.Listing, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND transaction_type = ?", string(domain.ListingActive), string(txType)).
		Where("lat IS NOT NULL AND lon IS NOT NULL").
		Where("expiry_date IS NULL OR expiry_date > ?", now)

	if minPrice != nil {
		q = q.Where("price >= ?", *minPrice)
	}
	if maxPrice != nil {
		q = q.Where("price <= ?", *maxPrice)
	}

	var rows []listingModel
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainListings(rows), nil
}

// ListExpiringBetween returns active listings with from < expiry_date <= to.
func (r *ListingRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Listing, error) {
	var rows []listingModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.ListingActive)).
		Where("expiry_date > ? AND expiry_date <= ?", from, to).
		Order("expiry_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainListings(rows), nil
}

// ListExpiredAt returns active listings whose expiry_date is at or before now.
func (r *ListingRepository) ListExpiredAt(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	var rows []listingModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.ListingActive)).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", now).
		Order("expiry_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainListings(rows), nil
}

// AutoMigrate creates the listings table for local development and tests.
// In production the listing service owns the schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&listingModel{})
}
