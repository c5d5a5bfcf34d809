package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"homefinder/internal/database"
	"homefinder/internal/domain"
	"homefinder/internal/pkg/metrics"
)

const defaultPushTimeout = 2 * time.Second

// Broadcaster delivers an event to every live connection of a recipient.
type Broadcaster interface {
	Publish(ctx context.Context, recipientID int64, event any) error
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ExistsByDedupKey(ctx context.Context, key string) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int64, at time.Time) error
	MarkAllAsRead(ctx context.Context, userID int64, at time.Time) (int64, error)
}

// Service persists notifications and forwards them to the real-time
// channel. Persistence decides the outcome; the push is best-effort.
type Service struct {
	repo        Repository
	push        Broadcaster
	pushTimeout time.Duration
	now         func() time.Time
}

func NewService(repo Repository, push Broadcaster, pushTimeout time.Duration) *Service {
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}
	return &Service{
		repo:        repo,
		push:        push,
		pushTimeout: pushTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a notification and pushes it to the recipient's live
// connections. Only persistence errors are returned.
func (s *Service) Create(ctx context.Context, recipientID int64, title, body string, kind Kind, target Target) (*Notification, error) {
	n, err := New(recipientID, kind, target, title, body)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, n); err != nil {
		return nil, err
	}
	s.publish(ctx, n.RecipientID, BuildEvent(n), n)
	return n, nil
}

// CreateOnce is Create guarded by a dedup key. It returns created=false
// when a notification with the same key already exists. The lookup runs
// before the insert; the unique index on dedup_key catches the rare
// concurrent insert that slips past it.
func (s *Service) CreateOnce(ctx context.Context, recipientID int64, title, body string, kind Kind, target Target, dedupKey string) (*Notification, bool, error) {
	if dedupKey == "" {
		return nil, false, fmt.Errorf("%w: dedup key is required", domain.ErrValidation)
	}

	n, err := New(recipientID, kind, target, title, body)
	if err != nil {
		return nil, false, err
	}

	exists, err := s.repo.ExistsByDedupKey(ctx, dedupKey)
	if err != nil {
		return nil, false, fmt.Errorf("dedup lookup: %w", err)
	}
	if exists {
		metrics.NotificationsDeduplicated.WithLabelValues(string(kind)).Inc()
		return nil, false, nil
	}

	n.DedupKey = dedupKey
	if err := s.persist(ctx, n); err != nil {
		if database.IsUniqueViolation(err) {
			metrics.NotificationsDeduplicated.WithLabelValues(string(kind)).Inc()
			log.Printf("dispatch_dedup_race kind=%s dedup_key=%s", kind, dedupKey)
			return nil, false, nil
		}
		return nil, false, err
	}

	s.publish(ctx, n.RecipientID, BuildEvent(n), n)
	return n, true, nil
}

func (s *Service) persist(ctx context.Context, n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Kind)).Inc()
	return nil
}

// publish never fails the caller: errors and panics from the transport
// are logged and counted, and the call is bounded by pushTimeout.
func (s *Service) publish(ctx context.Context, recipientID int64, event Event, n *Notification) {
	if s.push == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.PushResults.WithLabelValues("failed").Inc()
			log.Printf("dispatch_push_panic recipient_id=%d event=%s panic=%v", recipientID, event.Type, r)
		}
	}()

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.pushTimeout)
	defer cancel()

	if err := s.push.Publish(pushCtx, recipientID, event); err != nil {
		metrics.PushResults.WithLabelValues("failed").Inc()
		err = fmt.Errorf("%w: %v", domain.ErrTransientDispatch, err)
		if n != nil {
			log.Printf("dispatch_push_failed notification_id=%d recipient_id=%d kind=%s error=%q", n.ID, recipientID, n.Kind, err)
		} else {
			log.Printf("dispatch_push_failed recipient_id=%d event=%s error=%q", recipientID, event.Type, err)
		}
		return
	}
	metrics.PushResults.WithLabelValues("ok").Inc()
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*Notification, int64, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return list, unread, total, nil
}

func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead flips the read flag and tells the user's other devices.
func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	if err := s.repo.MarkAsRead(ctx, notificationID, userID, s.now()); err != nil {
		return err
	}
	s.publish(ctx, userID, readEvent(notificationID), nil)
	return nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, userID, readAllEvent(n), nil)
	}
	return n, nil
}
