package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"homefinder/internal/database"
	"homefinder/internal/domain"
	"homefinder/internal/domain/appointment"
	"homefinder/internal/domain/notification"
	"homefinder/internal/domain/realtime"
	"homefinder/internal/repository"
)

var sweepNow = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

type stack struct {
	listings      *repository.ListingRepository
	notifications *notification.NotificationRepository
	notifier      *notification.Service
	appointments  *appointment.Service
	apptRepo      *appointment.AppointmentRepository
	push          *realtime.Recorder
}

func setupStack(t *testing.T) *stack {
	t.Helper()

	db, err := database.OpenInMemory("scheduler_" + t.Name())
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	require.NoError(t, notification.AutoMigrate(db))
	require.NoError(t, appointment.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	listings := repository.NewListingRepository(db)
	notifRepo := notification.NewNotificationRepository(db)
	push := realtime.NewRecorder()
	notifier := notification.NewService(notifRepo, push, time.Second)
	apptRepo := appointment.NewAppointmentRepository(db)

	return &stack{
		listings:      listings,
		notifications: notifRepo,
		notifier:      notifier,
		appointments:  appointment.NewService(apptRepo, listings, notifier),
		apptRepo:      apptRepo,
		push:          push,
	}
}

func ptr[T any](v T) *T { return &v }

func (s *stack) listing(t *testing.T, ownerID int64, status domain.ListingStatus, expiry *time.Time) *domain.Listing {
	t.Helper()
	l := &domain.Listing{
		OwnerID:         ownerID,
		Title:           "Loft",
		Status:          status,
		TransactionType: domain.TransactionRent,
		Price:           500,
		ExpiryDate:      expiry,
	}
	require.NoError(t, s.listings.Create(context.Background(), l))
	return l
}

func (s *stack) kinds(t *testing.T, userID int64) map[notification.Kind]int {
	t.Helper()
	list, err := s.notifications.ListByUser(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	out := make(map[notification.Kind]int)
	for _, n := range list {
		out[n.Kind]++
	}
	return out
}

/* -------- Notifier mock for failure paths -------- */

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) CreateOnce(ctx context.Context, recipientID int64, title, body string, kind notification.Kind, target notification.Target, dedupKey string) (*notification.Notification, bool, error) {
	args := m.Called(ctx, recipientID, kind, dedupKey)
	n, _ := args.Get(0).(*notification.Notification)
	return n, args.Bool(1), args.Error(2)
}

/* ==================== ExpirySweeper ==================== */

func TestExpirySweeper_NotifiesOncePerListingAndKind(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	s.listing(t, 1, domain.ListingActive, ptr(sweepNow.Add(6*time.Hour)))
	s.listing(t, 1, domain.ListingActive, ptr(sweepNow.Add(48*time.Hour)))
	s.listing(t, 2, domain.ListingActive, ptr(sweepNow.Add(-time.Hour)))
	s.listing(t, 2, domain.ListingRejected, ptr(sweepNow.Add(-time.Hour)))
	s.listing(t, 3, domain.ListingActive, nil)

	sweeper := NewExpirySweeper(s.listings, s.notifier, 24*time.Hour)

	rep := sweeper.Sweep(ctx, sweepNow)
	assert.Equal(t, 2, rep.Dispatched)
	assert.Zero(t, rep.Failed)
	assert.NoError(t, rep.Err())

	assert.Equal(t, map[notification.Kind]int{notification.KindListingExpiringSoon: 1}, s.kinds(t, 1))
	assert.Equal(t, map[notification.Kind]int{notification.KindListingExpired: 1}, s.kinds(t, 2))
	assert.Empty(t, s.kinds(t, 3))

	rep = sweeper.Sweep(ctx, sweepNow.Add(time.Minute))
	assert.Zero(t, rep.Dispatched)
	assert.Equal(t, 2, rep.Skipped)

	// The listing that was expiring soon has now expired: a different kind,
	// so the owner hears about it once more.
	rep = sweeper.Sweep(ctx, sweepNow.Add(7*time.Hour))
	assert.Equal(t, 1, rep.Dispatched)
	assert.Equal(t, map[notification.Kind]int{
		notification.KindListingExpiringSoon: 1,
		notification.KindListingExpired:      1,
	}, s.kinds(t, 1))

}

func TestExpirySweeper_PerItemFailureDoesNotStopBatch(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	first := s.listing(t, 1, domain.ListingActive, ptr(sweepNow.Add(-2*time.Hour)))
	second := s.listing(t, 2, domain.ListingActive, ptr(sweepNow.Add(-time.Hour)))

	notifier := new(MockNotifier)
	notifier.On("CreateOnce", mock.Anything, int64(1), notification.KindListingExpired,
		notification.ListingLifecycleKey(notification.KindListingExpired, 1, first.ID)).
		Return(nil, false, errors.New("insert failed"))
	notifier.On("CreateOnce", mock.Anything, int64(2), notification.KindListingExpired,
		notification.ListingLifecycleKey(notification.KindListingExpired, 2, second.ID)).
		Return(&notification.Notification{ID: 1}, true, nil)

	rep := NewExpirySweeper(s.listings, notifier, 0).Sweep(ctx, sweepNow)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Dispatched)
	assert.ErrorContains(t, rep.Err(), "insert failed")
	notifier.AssertExpectations(t)
}

func TestLifecycleMessage_RejectsOtherKinds(t *testing.T) {
	l := &domain.Listing{ID: 1}
	for _, k := range notification.Kinds {
		_, _, err := lifecycleMessage(k, l)
		switch k {
		case notification.KindListingExpiringSoon, notification.KindListingExpired:
			assert.NoError(t, err, "kind %s", k)
		default:
			assert.ErrorIs(t, err, domain.ErrValidation, "kind %s", k)
		}
	}
}

/* ==================== ReminderSweeper ==================== */

func (s *stack) acceptedAppointment(t *testing.T, listingID, requesterID, ownerID int64, at time.Time, lead int) *appointment.Appointment {
	t.Helper()
	ctx := context.Background()
	a, err := s.appointments.Create(ctx, requesterID, appointment.CreateInput{
		ListingID:           listingID,
		Title:               "Viewing",
		ScheduledAt:         at,
		ReminderLeadMinutes: lead,
	})
	require.NoError(t, err)
	_, err = s.appointments.Confirm(ctx, a.ID, ownerID)
	require.NoError(t, err)
	return a
}

func TestReminderSweeper_RemindsOnceAndMarksNotified(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	listing := s.listing(t, 10, domain.ListingActive, nil)
	// Appointments are created relative to the real clock.
	now := time.Now().UTC()
	due := s.acceptedAppointment(t, listing.ID, 20, 10, now.Add(30*time.Minute), 60)
	notYet := s.acceptedAppointment(t, listing.ID, 21, 10, now.Add(5*time.Hour), 60)
	s.push.Connect(20)

	sweeper := NewReminderSweeper(s.appointments, s.notifier)

	rep := sweeper.Sweep(ctx, now)
	assert.Equal(t, 1, rep.Dispatched)
	assert.Zero(t, rep.Failed)

	stored, err := s.apptRepo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, stored.Notified)

	stored, err = s.apptRepo.GetByID(ctx, notYet.ID)
	require.NoError(t, err)
	assert.False(t, stored.Notified)

	assert.Equal(t, 1, s.kinds(t, 20)[notification.KindAppointmentReminder])
	assert.Len(t, s.push.Delivered(20), 1)

	rep = sweeper.Sweep(ctx, now.Add(time.Minute))
	assert.Zero(t, rep.Dispatched)
	assert.Zero(t, rep.Skipped)
	assert.Equal(t, 1, s.kinds(t, 20)[notification.KindAppointmentReminder])
}

func TestReminderSweeper_FailedDispatchIsRetriedNextTick(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()

	listing := s.listing(t, 10, domain.ListingActive, nil)
	now := time.Now().UTC()
	a := s.acceptedAppointment(t, listing.ID, 20, 10, now.Add(10*time.Minute), 60)
	b := s.acceptedAppointment(t, listing.ID, 22, 10, now.Add(20*time.Minute), 60)

	failing := new(MockNotifier)
	failing.On("CreateOnce", mock.Anything, int64(20), notification.KindAppointmentReminder, notification.AppointmentReminderKey(a.ID)).
		Return(nil, false, errors.New("db locked"))
	failing.On("CreateOnce", mock.Anything, int64(22), notification.KindAppointmentReminder, notification.AppointmentReminderKey(b.ID)).
		Return(&notification.Notification{ID: 9}, true, nil)

	rep := NewReminderSweeper(s.appointments, failing).Sweep(ctx, now)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Dispatched)

	stored, err := s.apptRepo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.Notified, "failed dispatch must stay eligible")

	stored, err = s.apptRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.Notified)

	rep = NewReminderSweeper(s.appointments, s.notifier).Sweep(ctx, now.Add(time.Minute))
	assert.Equal(t, 1, rep.Dispatched)
	assert.Equal(t, 1, s.kinds(t, 20)[notification.KindAppointmentReminder])
}

func TestSweepLoop_RunsSweeper(t *testing.T) {
	s := setupStack(t)
	s.listing(t, 1, domain.ListingActive, ptr(time.Now().UTC().Add(-time.Hour)))

	l := NewSweepLoop(NewExpirySweeper(s.listings, s.notifier, time.Hour), time.Hour)
	assert.Equal(t, "expiry", l.Name())
	require.NoError(t, l.RunOnce(context.Background()))
	assert.Equal(t, 1, s.kinds(t, 1)[notification.KindListingExpired])
}
