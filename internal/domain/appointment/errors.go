package appointment

import (
	"fmt"

	"homefinder/internal/domain"
)

var (
	ErrScheduledInPast     = fmt.Errorf("%w: scheduled_at must be in the future", domain.ErrValidation)
	ErrInvalidReminderLead = fmt.Errorf("%w: reminder_lead_minutes must be between 0 and %d", domain.ErrValidation, MaxReminderLeadMinutes)
	ErrSelfBooking         = fmt.Errorf("%w: cannot book a viewing of your own listing", domain.ErrValidation)
	ErrTitleRequired       = fmt.Errorf("%w: title is required", domain.ErrValidation)

	ErrNotListingOwner = fmt.Errorf("%w: only the listing owner can do this", domain.ErrForbidden)
	ErrNotParticipant  = fmt.Errorf("%w: only the listing owner or the requester can do this", domain.ErrForbidden)
	ErrNotRequester    = fmt.Errorf("%w: only the requester can cancel", domain.ErrForbidden)

	// ErrAppointmentNotFound also covers appointments that are no longer pending.
	ErrAppointmentNotFound = fmt.Errorf("%w: appointment", domain.ErrNotFound)
)
