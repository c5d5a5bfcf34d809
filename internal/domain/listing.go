package domain

import (
	"fmt"
	"strings"
	"time"
)

type ListingStatus string

const (
	ListingPending  ListingStatus = "pending"
	ListingActive   ListingStatus = "active"
	ListingRejected ListingStatus = "rejected"
)

type TransactionType string

const (
	TransactionSale TransactionType = "sale"
	TransactionRent TransactionType = "rent"
)

// ParseTransactionType accepts the canonical lower-case form and the
// capitalised variants older clients still send.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionSale:
		return TransactionSale, nil
	case TransactionRent:
		return TransactionRent, nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrValidation, s)
}

// Listing is owned by the listing service. This core only reads it.
type Listing struct {
	ID              int64           `json:"id"`
	OwnerID         int64           `json:"owner_id"`
	Title           string          `json:"title"`
	Status          ListingStatus   `json:"status"`
	TransactionType TransactionType `json:"transaction_type"`
	Price           int64           `json:"price"`
	Lat             *float64        `json:"lat,omitempty"`
	Lon             *float64        `json:"lon,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasCoordinates reports whether the listing has been geocoded.
func (l *Listing) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// IsExpired reports whether the expiry date is at or before now.
func (l *Listing) IsExpired(now time.Time) bool {
	return l.ExpiryDate != nil && !l.ExpiryDate.After(now)
}

// IsVisible is true for active, unexpired listings.
func (l *Listing) IsVisible(now time.Time) bool {
	return l.Status == ListingActive && !l.IsExpired(now)
}
