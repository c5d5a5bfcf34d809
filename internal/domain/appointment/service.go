package appointment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"homefinder/internal/domain"
	"homefinder/internal/domain/notification"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Transition(ctx context.Context, id int64, to Status, at time.Time) error
	ListReminderCandidates(ctx context.Context, horizon time.Time) ([]*Appointment, error)
	MarkNotified(ctx context.Context, id int64, at time.Time) error
	ListByRequester(ctx context.Context, requesterID int64) ([]*Appointment, error)
	ListByListingOwner(ctx context.Context, ownerID int64, status *Status) ([]*Appointment, error)
}

type ListingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
}

type Notifier interface {
	Create(ctx context.Context, recipientID int64, title, body string, kind notification.Kind, target notification.Target) (*notification.Notification, error)
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

// Create books a viewing and tells the listing owner about it.
func (s *Service) Create(ctx context.Context, requesterID int64, in CreateInput) (*Appointment, error) {
	now := s.now()
	if err := in.Validate(now); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == requesterID {
		return nil, ErrSelfBooking
	}

	a := &Appointment{
		RequesterID:         requesterID,
		ListingID:           listing.ID,
		Title:               strings.TrimSpace(in.Title),
		Description:         strings.TrimSpace(in.Description),
		ScheduledAt:         in.ScheduledAt.UTC(),
		ReminderLeadMinutes: in.ReminderLeadMinutes,
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.notify(ctx, listing.OwnerID, notification.KindAppointmentRequest, a,
		"New viewing request",
		fmt.Sprintf("%s requested for %s", a.Title, formatWhen(a.ScheduledAt)))

	return a, nil
}

// Confirm accepts a pending request. Only the listing owner may confirm.
func (s *Service) Confirm(ctx context.Context, id, callerID int64) (*Appointment, error) {
	a, listing, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != listing.OwnerID {
		return nil, ErrNotListingOwner
	}

	if err := s.transition(ctx, a, StatusAccepted); err != nil {
		return nil, err
	}

	s.notify(ctx, a.RequesterID, notification.KindAppointmentConfirmed, a,
		"Viewing confirmed",
		fmt.Sprintf("%s is confirmed for %s", a.Title, formatWhen(a.ScheduledAt)))
	return a, nil
}

// Reject declines a pending request. The owner or the requester may
// reject; the requester is notified either way.
func (s *Service) Reject(ctx context.Context, id, callerID int64) (*Appointment, error) {
	a, listing, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != listing.OwnerID && callerID != a.RequesterID {
		return nil, ErrNotParticipant
	}

	if err := s.transition(ctx, a, StatusRejected); err != nil {
		return nil, err
	}

	s.notify(ctx, a.RequesterID, notification.KindAppointmentRejected, a,
		"Viewing rejected",
		fmt.Sprintf("%s on %s was rejected", a.Title, formatWhen(a.ScheduledAt)))
	return a, nil
}

// Cancel is the requester withdrawing a pending request. The status ends
// up Rejected like Reject, but the listing owner is the one notified.
func (s *Service) Cancel(ctx context.Context, id, requesterID int64) (*Appointment, error) {
	a, listing, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	if requesterID != a.RequesterID {
		return nil, ErrNotRequester
	}

	if err := s.transition(ctx, a, StatusRejected); err != nil {
		return nil, err
	}

	s.notify(ctx, listing.OwnerID, notification.KindAppointmentCancelled, a,
		"Viewing cancelled",
		fmt.Sprintf("%s on %s was cancelled by the requester", a.Title, formatWhen(a.ScheduledAt)))
	return a, nil
}

func (s *Service) loadPending(ctx context.Context, id int64) (*Appointment, *domain.Listing, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !a.IsPending() {
		return nil, nil, ErrAppointmentNotFound
	}

	listing, err := s.listings.GetByID(ctx, a.ListingID)
	if err != nil {
		return nil, nil, err
	}
	return a, listing, nil
}

func (s *Service) transition(ctx context.Context, a *Appointment, to Status) error {
	now := s.now()
	if err := s.repo.Transition(ctx, a.ID, to, now); err != nil {
		return err
	}
	log.Printf("appointment_transition appointment_id=%d from=%s to=%s", a.ID, a.Status, to)
	a.Status = to
	a.UpdatedAt = now
	return nil
}

// notify never fails the transition that triggered it.
func (s *Service) notify(ctx context.Context, recipientID int64, kind notification.Kind, a *Appointment, title, body string) {
	if _, err := s.notifier.Create(ctx, recipientID, title, body, kind, notification.AppointmentTarget(a.ID)); err != nil {
		log.Printf("appointment_notify_failed appointment_id=%d kind=%s recipient_id=%d error=%q",
			a.ID, kind, recipientID, err)
	}
}

// DueForReminder returns accepted, unreminded appointments whose reminder
// time has been reached.
func (s *Service) DueForReminder(ctx context.Context, now time.Time) ([]*Appointment, error) {
	horizon := now.Add(MaxReminderLeadMinutes * time.Minute)
	candidates, err := s.repo.ListReminderCandidates(ctx, horizon)
	if err != nil {
		return nil, err
	}

	due := make([]*Appointment, 0, len(candidates))
	for _, a := range candidates {
		if a.DueForReminder(now) {
			due = append(due, a)
		}
	}
	return due, nil
}

func (s *Service) MarkNotified(ctx context.Context, id int64) error {
	return s.repo.MarkNotified(ctx, id, s.now())
}

// GetByID returns the appointment if the caller is its requester or the
// listing owner.
func (s *Service) GetByID(ctx context.Context, id, callerID int64) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.RequesterID == callerID {
		return a, nil
	}

	listing, err := s.listings.GetByID(ctx, a.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != callerID {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (s *Service) ListMine(ctx context.Context, requesterID int64) ([]*Appointment, error) {
	return s.repo.ListByRequester(ctx, requesterID)
}

func (s *Service) ListPendingForOwner(ctx context.Context, ownerID int64) ([]*Appointment, error) {
	pending := StatusPending
	return s.repo.ListByListingOwner(ctx, ownerID, &pending)
}

func (s *Service) ListForOwner(ctx context.Context, ownerID int64) ([]*Appointment, error) {
	return s.repo.ListByListingOwner(ctx, ownerID, nil)
}

func formatWhen(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}
