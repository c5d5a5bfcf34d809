package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"homefinder/internal/domain/appointment"
	"homefinder/internal/domain/notification"
)

type DueAppointments interface {
	DueForReminder(ctx context.Context, now time.Time) ([]*appointment.Appointment, error)
	MarkNotified(ctx context.Context, id int64) error
}

// ReminderSweeper sends the requester a reminder ahead of an accepted
// viewing and then marks the appointment as notified.
type ReminderSweeper struct {
	appointments DueAppointments
	notifier     OnceNotifier
}

func NewReminderSweeper(appointments DueAppointments, notifier OnceNotifier) *ReminderSweeper {
	return &ReminderSweeper{appointments: appointments, notifier: notifier}
}

func (s *ReminderSweeper) Name() string { return "reminder" }

// Sweep handles every due appointment. A failed dispatch leaves the
// appointment unmarked so the next tick retries it; the reminder dedup key
// keeps a retry after a failed MarkNotified from sending twice.
func (s *ReminderSweeper) Sweep(ctx context.Context, now time.Time) Report {
	var rep Report

	due, err := s.appointments.DueForReminder(ctx, now)
	if err != nil {
		rep.fail(fmt.Errorf("list due appointments: %w", err))
		return rep
	}

	for _, a := range due {
		_, created, err := s.notifier.CreateOnce(ctx, a.RequesterID,
			"Upcoming viewing",
			fmt.Sprintf("%s starts at %s", a.Title, a.ScheduledAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST")),
			notification.KindAppointmentReminder,
			notification.AppointmentTarget(a.ID),
			notification.AppointmentReminderKey(a.ID))
		if err != nil {
			log.Printf("reminder_dispatch_failed appointment_id=%d error=%q", a.ID, err)
			rep.fail(fmt.Errorf("appointment %d: %w", a.ID, err))
			continue
		}

		if err := s.appointments.MarkNotified(ctx, a.ID); err != nil {
			log.Printf("reminder_mark_failed appointment_id=%d error=%q", a.ID, err)
			rep.fail(fmt.Errorf("appointment %d mark notified: %w", a.ID, err))
			continue
		}

		if created {
			rep.Dispatched++
		} else {
			rep.Skipped++
		}
	}

	return rep
}
