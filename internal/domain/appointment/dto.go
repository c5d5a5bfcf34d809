package appointment

import "time"

type CreateAppointmentRequest struct {
	ListingID           int64     `json:"listing_id" validate:"required,gt=0"`
	Title               string    `json:"title" validate:"required,max=255"`
	Description         string    `json:"description" validate:"max=2000"`
	ScheduledAt         time.Time `json:"scheduled_at" validate:"required"`
	ReminderLeadMinutes *int      `json:"reminder_lead_minutes" validate:"omitempty,gte=0,lte=1440"`
}

const defaultReminderLeadMinutes = 60

func (r CreateAppointmentRequest) Input() CreateInput {
	lead := defaultReminderLeadMinutes
	if r.ReminderLeadMinutes != nil {
		lead = *r.ReminderLeadMinutes
	}
	return CreateInput{
		ListingID:           r.ListingID,
		Title:               r.Title,
		Description:         r.Description,
		ScheduledAt:         r.ScheduledAt,
		ReminderLeadMinutes: lead,
	}
}

type AppointmentResponse struct {
	ID                  int64  `json:"id"`
	RequesterID         int64  `json:"requester_id"`
	ListingID           int64  `json:"listing_id"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	ScheduledAt         string `json:"scheduled_at"`
	ReminderLeadMinutes int    `json:"reminder_lead_minutes"`
	Status              string `json:"status"`
	Notified            bool   `json:"notified"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

func AppointmentResponseFromEntity(a *Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:                  a.ID,
		RequesterID:         a.RequesterID,
		ListingID:           a.ListingID,
		Title:               a.Title,
		Description:         a.Description,
		ScheduledAt:         a.ScheduledAt.Format(time.RFC3339),
		ReminderLeadMinutes: a.ReminderLeadMinutes,
		Status:              string(a.Status),
		Notified:            a.Notified,
		CreatedAt:           a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           a.UpdatedAt.Format(time.RFC3339),
	}
}

func appointmentResponses(list []*Appointment) []*AppointmentResponse {
	out := make([]*AppointmentResponse, len(list))
	for i, a := range list {
		out[i] = AppointmentResponseFromEntity(a)
	}
	return out
}
