package savedsearch

import (
	"fmt"

	"homefinder/internal/domain"
)

var (
	ErrInvalidRadius       = fmt.Errorf("%w: radius_km must be greater than 0 and at most %d", domain.ErrValidation, MaxRadiusKm)
	ErrInvalidPriceRange   = fmt.Errorf("%w: min_price must not exceed max_price", domain.ErrValidation)
	ErrNegativePrice       = fmt.Errorf("%w: prices must not be negative", domain.ErrValidation)
	ErrInvalidCoordinates  = fmt.Errorf("%w: center is outside valid latitude/longitude range", domain.ErrValidation)
	ErrSavedSearchNotFound = fmt.Errorf("%w: saved search", domain.ErrNotFound)
)
