package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"homefinder/internal/domain"
	"homefinder/internal/domain/notification"
)

const DefaultExpiringSoonWindow = 24 * time.Hour

type ExpiringListings interface {
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Listing, error)
	ListExpiredAt(ctx context.Context, now time.Time) ([]*domain.Listing, error)
}

// OnceNotifier creates a notification unless one with the same dedup key
// already exists.
type OnceNotifier interface {
	CreateOnce(ctx context.Context, recipientID int64, title, body string, kind notification.Kind, target notification.Target, dedupKey string) (*notification.Notification, bool, error)
}

// ExpirySweeper warns owners about listings that are about to expire and
// tells them when they have.
type ExpirySweeper struct {
	listings ExpiringListings
	notifier OnceNotifier
	window   time.Duration
}

func NewExpirySweeper(listings ExpiringListings, notifier OnceNotifier, window time.Duration) *ExpirySweeper {
	if window <= 0 {
		window = DefaultExpiringSoonWindow
	}
	return &ExpirySweeper{listings: listings, notifier: notifier, window: window}
}

func (s *ExpirySweeper) Name() string { return "expiry" }

func (s *ExpirySweeper) Sweep(ctx context.Context, now time.Time) Report {
	var rep Report

	soon, err := s.listings.ListExpiringBetween(ctx, now, now.Add(s.window))
	if err != nil {
		rep.fail(fmt.Errorf("list expiring listings: %w", err))
	}
	for _, l := range soon {
		s.notify(ctx, &rep, notification.KindListingExpiringSoon, l)
	}

	expired, err := s.listings.ListExpiredAt(ctx, now)
	if err != nil {
		rep.fail(fmt.Errorf("list expired listings: %w", err))
	}
	for _, l := range expired {
		s.notify(ctx, &rep, notification.KindListingExpired, l)
	}

	return rep
}

func (s *ExpirySweeper) notify(ctx context.Context, rep *Report, kind notification.Kind, l *domain.Listing) {
	title, body, err := lifecycleMessage(kind, l)
	if err != nil {
		rep.fail(err)
		return
	}

	_, created, err := s.notifier.CreateOnce(ctx, l.OwnerID, title, body, kind,
		notification.ListingTarget(l.ID),
		notification.ListingLifecycleKey(kind, l.OwnerID, l.ID))
	if err != nil {
		log.Printf("expiry_dispatch_failed listing_id=%d kind=%s error=%q", l.ID, kind, err)
		rep.fail(fmt.Errorf("listing %d %s: %w", l.ID, kind, err))
		return
	}
	if created {
		rep.Dispatched++
	} else {
		rep.Skipped++
	}
}

func lifecycleMessage(kind notification.Kind, l *domain.Listing) (string, string, error) {
	name := l.Title
	if name == "" {
		name = fmt.Sprintf("Listing #%d", l.ID)
	}
	var when string
	if l.ExpiryDate != nil {
		when = l.ExpiryDate.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	}

	switch kind {
	case notification.KindListingExpiringSoon:
		return "Your listing expires soon", fmt.Sprintf("%s expires on %s. Renew it to stay visible.", name, when), nil
	case notification.KindListingExpired:
		return "Your listing has expired", fmt.Sprintf("%s expired on %s and is no longer visible.", name, when), nil
	case notification.KindSavedSearchMatch,
		notification.KindAppointmentRequest,
		notification.KindAppointmentConfirmed,
		notification.KindAppointmentRejected,
		notification.KindAppointmentCancelled,
		notification.KindAppointmentReminder:
	}
	return "", "", fmt.Errorf("%w: %s is not a listing lifecycle kind", domain.ErrValidation, kind)
}
