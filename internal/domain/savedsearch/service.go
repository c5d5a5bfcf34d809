package savedsearch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"homefinder/internal/domain"
	"homefinder/internal/domain/notification"
)

type Repository interface {
	Create(ctx context.Context, s *SavedSearch) error
	GetByID(ctx context.Context, id int64) (*SavedSearch, error)
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]*SavedSearch, error)
	ListNotifiable(ctx context.Context, txType domain.TransactionType) ([]*SavedSearch, error)
	Deactivate(ctx context.Context, id, ownerID int64) (bool, error)
}

// ListingReader is the read-only view of the listing store.
type ListingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	ListMatchCandidates(ctx context.Context, txType domain.TransactionType, minPrice, maxPrice *int64, now time.Time) ([]*domain.Listing, error)
}

// Notifier is the slice of the notification service the registry needs.
type Notifier interface {
	CreateOnce(ctx context.Context, recipientID int64, title, body string, kind notification.Kind, target notification.Target, dedupKey string) (*notification.Notification, bool, error)
}

type Service struct {
	repo     Repository
	listings ListingReader
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, listings ListingReader, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		listings: listings,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, ownerID int64, p CreateParams) (*SavedSearch, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ss := newSavedSearch(ownerID, p, s.now())
	if err := s.repo.Create(ctx, ss); err != nil {
		return nil, fmt.Errorf("create saved search: %w", err)
	}
	return ss, nil
}

// ListActive returns the owner's active searches, newest first.
func (s *Service) ListActive(ctx context.Context, ownerID int64) ([]*SavedSearch, error) {
	return s.repo.ListActiveByOwner(ctx, ownerID)
}

// Deactivate soft-deletes a search. Unknown or foreign ids return false
// rather than an error so repeated calls stay harmless.
func (s *Service) Deactivate(ctx context.Context, id, ownerID int64) (bool, error) {
	return s.repo.Deactivate(ctx, id, ownerID)
}

// FindMatchingListings scans every visible candidate listing and keeps
// the ones inside the circle, nearest first.
func (s *Service) FindMatchingListings(ctx context.Context, id, ownerID int64) ([]Match, error) {
	ss, err := s.ownedActive(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.listings.ListMatchCandidates(ctx, ss.TransactionType, ss.MinPrice, ss.MaxPrice, s.now())
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	matches := make([]Match, 0)
	for _, l := range candidates {
		if d, ok := ss.Match(l); ok {
			matches = append(matches, Match{Listing: l, DistanceKm: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	return matches, nil
}

func (s *Service) ownedActive(ctx context.Context, id, ownerID int64) (*SavedSearch, error) {
	ss, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ss.OwnerID != ownerID || !ss.Active {
		return nil, ErrSavedSearchNotFound
	}
	return ss, nil
}

// OnListingActivated notifies the owner of every notifiable search the
// listing falls into. Each (search, listing) pair is notified at most once,
// so replaying the hook is safe. It returns how many notifications were
// created; per-search dispatch failures are joined into the error and the
// remaining searches are still processed.
func (s *Service) OnListingActivated(ctx context.Context, listingID int64) (int, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	if !listing.IsVisible(now) || !listing.HasCoordinates() {
		log.Printf("match_skipped listing_id=%d status=%s has_coordinates=%t",
			listing.ID, listing.Status, listing.HasCoordinates())
		return 0, nil
	}

	searches, err := s.repo.ListNotifiable(ctx, listing.TransactionType)
	if err != nil {
		return 0, fmt.Errorf("list saved searches: %w", err)
	}

	created := 0
	var errs []error
	for _, ss := range searches {
		d, ok := ss.Match(listing)
		if !ok {
			continue
		}

		_, isNew, err := s.notifier.CreateOnce(ctx, ss.OwnerID,
			matchTitle(ss),
			fmt.Sprintf("%s is %.1f km from the search center", listingLabel(listing), d),
			notification.KindSavedSearchMatch,
			notification.ListingTarget(listing.ID),
			notification.SavedSearchMatchKey(ss.ID, listing.ID),
		)
		if err != nil {
			log.Printf("match_dispatch_failed saved_search_id=%d listing_id=%d error=%q", ss.ID, listing.ID, err)
			errs = append(errs, fmt.Errorf("saved search %d: %w", ss.ID, err))
			continue
		}
		if isNew {
			created++
		}
	}

	log.Printf("listing_matched listing_id=%d searches=%d notified=%d", listing.ID, len(searches), created)
	return created, errors.Join(errs...)
}

func matchTitle(ss *SavedSearch) string {
	if ss.Name != "" {
		return "New listing in " + ss.Name
	}
	return "New listing matches your saved search"
}

func listingLabel(l *domain.Listing) string {
	if l.Title != "" {
		return l.Title
	}
	return fmt.Sprintf("Listing #%d", l.ID)
}
