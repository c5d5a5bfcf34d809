package savedsearch

import (
	"fmt"
	"strings"
	"time"

	"homefinder/internal/domain"
	"homefinder/internal/domain/geo"
)

const MaxRadiusKm = 100

// SavedSearch is a circle on the map plus listing filters. It never
// changes after creation apart from being deactivated.
type SavedSearch struct {
	ID                   int64
	OwnerID              int64
	Name                 string
	CenterLat            float64
	CenterLon            float64
	RadiusKm             float64
	TransactionType      domain.TransactionType
	MinPrice             *int64
	MaxPrice             *int64
	NotificationsEnabled bool
	Active               bool
	CreatedAt            time.Time
}

type CreateParams struct {
	Name                 string
	CenterLat            float64
	CenterLon            float64
	RadiusKm             float64
	TransactionType      domain.TransactionType
	MinPrice             *int64
	MaxPrice             *int64
	NotificationsEnabled bool
}

func (p CreateParams) Validate() error {
	if !(p.RadiusKm > 0 && p.RadiusKm <= MaxRadiusKm) {
		return ErrInvalidRadius
	}
	if !geo.ValidCoordinates(p.CenterLat, p.CenterLon) {
		return ErrInvalidCoordinates
	}
	if _, err := domain.ParseTransactionType(string(p.TransactionType)); err != nil {
		return err
	}
	if (p.MinPrice != nil && *p.MinPrice < 0) || (p.MaxPrice != nil && *p.MaxPrice < 0) {
		return ErrNegativePrice
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return ErrInvalidPriceRange
	}
	if len(p.Name) > 120 {
		return fmt.Errorf("%w: name is too long", domain.ErrValidation)
	}
	return nil
}

func newSavedSearch(ownerID int64, p CreateParams, now time.Time) *SavedSearch {
	tx, _ := domain.ParseTransactionType(string(p.TransactionType))
	return &SavedSearch{
		OwnerID:              ownerID,
		Name:                 strings.TrimSpace(p.Name),
		CenterLat:            p.CenterLat,
		CenterLon:            p.CenterLon,
		RadiusKm:             p.RadiusKm,
		TransactionType:      tx,
		MinPrice:             p.MinPrice,
		MaxPrice:             p.MaxPrice,
		NotificationsEnabled: p.NotificationsEnabled,
		Active:               true,
		CreatedAt:            now,
	}
}

func (s *SavedSearch) Center() geo.Point {
	return geo.Point{Lat: s.CenterLat, Lon: s.CenterLon}
}

func (s *SavedSearch) PriceMatches(price int64) bool {
	if s.MinPrice != nil && price < *s.MinPrice {
		return false
	}
	if s.MaxPrice != nil && price > *s.MaxPrice {
		return false
	}
	return true
}

// Match checks a listing against the filters and the circle. The distance
// is only meaningful when ok is true.
func (s *SavedSearch) Match(l *domain.Listing) (distanceKm float64, ok bool) {
	if l.TransactionType != s.TransactionType || !l.HasCoordinates() || !s.PriceMatches(l.Price) {
		return 0, false
	}
	d := geo.DistanceKm(s.CenterLat, s.CenterLon, *l.Lat, *l.Lon)
	return d, d <= s.RadiusKm
}

// Match is a listing found inside a saved search, with its distance from
// the search center.
type Match struct {
	Listing    *domain.Listing
	DistanceKm float64
}
