package savedsearch

import (
	"math"
	"time"

	"homefinder/internal/domain"
)

type CreateSavedSearchRequest struct {
	Name               string   `json:"name" validate:"max=120"`
	CenterLat          *float64 `json:"center_lat" validate:"required,gte=-90,lte=90"`
	CenterLon          *float64 `json:"center_lon" validate:"required,gte=-180,lte=180"`
	RadiusKm           float64  `json:"radius_km" validate:"required,gt=0,lte=100"`
	TransactionType    string   `json:"transaction_type" validate:"required"`
	MinPrice           *int64   `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice           *int64   `json:"max_price" validate:"omitempty,gte=0"`
	EnableNotification *bool    `json:"enable_notification"`
}

// Params converts the request. Notifications default to on.
func (r CreateSavedSearchRequest) Params() CreateParams {
	p := CreateParams{
		Name:                 r.Name,
		RadiusKm:             r.RadiusKm,
		TransactionType:      domain.TransactionType(r.TransactionType),
		MinPrice:             r.MinPrice,
		MaxPrice:             r.MaxPrice,
		NotificationsEnabled: true,
	}
	if r.CenterLat != nil {
		p.CenterLat = *r.CenterLat
	}
	if r.CenterLon != nil {
		p.CenterLon = *r.CenterLon
	}
	if r.EnableNotification != nil {
		p.NotificationsEnabled = *r.EnableNotification
	}
	return p
}

type SavedSearchResponse struct {
	ID                 int64   `json:"id"`
	OwnerID            int64   `json:"owner_id"`
	Name               string  `json:"name,omitempty"`
	CenterLat          float64 `json:"center_lat"`
	CenterLon          float64 `json:"center_lon"`
	RadiusKm           float64 `json:"radius_km"`
	TransactionType    string  `json:"transaction_type"`
	MinPrice           *int64  `json:"min_price,omitempty"`
	MaxPrice           *int64  `json:"max_price,omitempty"`
	EnableNotification bool    `json:"enable_notification"`
	Active             bool    `json:"active"`
	CreatedAt          string  `json:"created_at"`
}

func SavedSearchResponseFromEntity(s *SavedSearch) *SavedSearchResponse {
	return &SavedSearchResponse{
		ID:                 s.ID,
		OwnerID:            s.OwnerID,
		Name:               s.Name,
		CenterLat:          s.CenterLat,
		CenterLon:          s.CenterLon,
		RadiusKm:           s.RadiusKm,
		TransactionType:    string(s.TransactionType),
		MinPrice:           s.MinPrice,
		MaxPrice:           s.MaxPrice,
		EnableNotification: s.NotificationsEnabled,
		Active:             s.Active,
		CreatedAt:          s.CreatedAt.Format(time.RFC3339),
	}
}

type ListingResponse struct {
	ID              int64    `json:"id"`
	OwnerID         int64    `json:"owner_id"`
	Title           string   `json:"title"`
	TransactionType string   `json:"transaction_type"`
	Price           int64    `json:"price"`
	Lat             *float64 `json:"lat,omitempty"`
	Lon             *float64 `json:"lon,omitempty"`
	ExpiryDate      *string  `json:"expiry_date,omitempty"`
}

type MatchResponse struct {
	Listing    ListingResponse `json:"listing"`
	DistanceKm float64         `json:"distance_km"`
}

func MatchResponseFromMatch(m Match) MatchResponse {
	l := m.Listing
	resp := MatchResponse{
		Listing: ListingResponse{
			ID:              l.ID,
			OwnerID:         l.OwnerID,
			Title:           l.Title,
			TransactionType: string(l.TransactionType),
			Price:           l.Price,
			Lat:             l.Lat,
			Lon:             l.Lon,
		},
		// Two decimals are plenty for a "1.52 km away" label.
		DistanceKm: math.Round(m.DistanceKm*100) / 100,
	}
	if l.ExpiryDate != nil {
		s := l.ExpiryDate.Format(time.RFC3339)
		resp.Listing.ExpiryDate = &s
	}
	return resp
}
