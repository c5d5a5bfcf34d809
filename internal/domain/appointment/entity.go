package appointment

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

const MaxReminderLeadMinutes = 1440

// Appointment is a viewing request for a listing. Pending is the only
// non-terminal status.
type Appointment struct {
	ID                  int64
	RequesterID         int64
	ListingID           int64
	Title               string
	Description         string
	ScheduledAt         time.Time
	ReminderLeadMinutes int
	Status              Status
	Notified            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateInput struct {
	ListingID           int64
	Title               string
	Description         string
	ScheduledAt         time.Time
	ReminderLeadMinutes int
}

func (in CreateInput) Validate(now time.Time) error {
	if !in.ScheduledAt.After(now) {
		return ErrScheduledInPast
	}
	if in.ReminderLeadMinutes < 0 || in.ReminderLeadMinutes > MaxReminderLeadMinutes {
		return ErrInvalidReminderLead
	}
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

func (a *Appointment) IsPending() bool { return a.Status == StatusPending }

// ReminderAt is when the reminder becomes due.
func (a *Appointment) ReminderAt() time.Time {
	return a.ScheduledAt.Add(-time.Duration(a.ReminderLeadMinutes) * time.Minute)
}

// DueForReminder reports whether the reminder should go out at now.
func (a *Appointment) DueForReminder(now time.Time) bool {
	return a.Status == StatusAccepted && !a.Notified && !now.Before(a.ReminderAt())
}
